// Package device provides Bluetooth Low Energy (BLE) connection management and
// GATT service abstractions used by the pulse-oximeter client.
//
// This package implements the BLE client stack the oximeter transport is built on:
//   - Connection lifecycle management (connect, disconnect, reconnect)
//   - GATT service, characteristic and descriptor discovery
//   - Characteristic read/write operations with timeouts
//   - Thread-safe concurrent operations with mutex protection
//
// Indication subscription lifecycle is handled one level up, by the pulseox
// client, against the Transport seam exposed by the go-ble implementation.
package device
