// Package pulseox implements the client-side protocol for BerryMed-style
// BLE pulse oximeters: handle binding after service discovery, the
// subscribe/unsubscribe lifecycle for measurement indications, and decoding
// of the 5-byte measurement record into pulse rate, SpO2 and sensor flags.
//
// The package is transport-agnostic. Connection management, attribute
// reads/writes and service discovery are supplied by a Transport
// implementation (see internal/device/go-ble for the production backend);
// this package only consumes discovery results and issues descriptor writes
// through that boundary.
//
// A Client is safe for concurrent use from the application and the transport
// callback path. All lifecycle transitions go through a single atomic
// compare-and-swap register, so conflicting operations fail fast with
// ErrOperationInProgress instead of blocking or corrupting state.
package pulseox
