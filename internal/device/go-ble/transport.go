package goble

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/oxim/internal/device"
	"github.com/srg/oxim/internal/groutine"
	"github.com/srg/oxim/internal/pulseox"
)

// BLETransport adapts a BLEConnection to the pulseox.Transport boundary.
//
// The attribute protocol enables indications by writing the Client
// Characteristic Configuration descriptor; CoreBluetooth (and go-ble on top
// of it) hides that write behind Subscribe/Unsubscribe calls. BLETransport
// translates CCC descriptor writes addressed by ATT handle back into the
// corresponding go-ble calls, and fans incoming indication payloads out to
// the handler registered for the characteristic's value handle.
type BLETransport struct {
	conn   *BLEConnection
	logger *logrus.Logger

	mu       sync.RWMutex
	handlers map[uint16]func(payload []byte)
}

// NewBLETransport creates a transport over an established connection.
func NewBLETransport(conn *BLEConnection, logger *logrus.Logger) *BLETransport {
	if logger == nil {
		logger = logrus.New()
	}
	return &BLETransport{
		conn:     conn,
		logger:   logger,
		handlers: make(map[uint16]func(payload []byte)),
	}
}

// DiscoverySnapshot converts the connection's discovered GATT database into
// a pulseox.DiscoveryResult for handle binding.
func (t *BLETransport) DiscoverySnapshot() pulseox.DiscoveryResult {
	var result pulseox.DiscoveryResult
	for _, svc := range t.conn.Services() {
		svcInfo := pulseox.ServiceInfo{UUID: svc.UUID()}
		for _, char := range svc.GetCharacteristics() {
			charInfo := pulseox.CharacteristicInfo{
				UUID:        char.UUID(),
				ValueHandle: char.ValueHandle(),
			}
			for _, desc := range char.GetDescriptors() {
				charInfo.Descriptors = append(charInfo.Descriptors, pulseox.DescriptorInfo{
					UUID:   desc.UUID(),
					Handle: desc.Handle(),
				})
			}
			svcInfo.Characteristics = append(svcInfo.Characteristics, charInfo)
		}
		result.Services = append(result.Services, svcInfo)
	}
	return result
}

// WriteDescriptor issues an asynchronous descriptor write. Writes addressed
// at a Client Characteristic Configuration descriptor are translated into
// go-ble Subscribe/Unsubscribe calls; any other descriptor is written
// directly. A non-nil return means the write was never issued and done will
// not be called.
func (t *BLETransport) WriteDescriptor(handle uint16, value []byte, done func(error)) error {
	if done == nil {
		return fmt.Errorf("descriptor write to handle 0x%04x: done callback is nil", handle)
	}

	t.conn.connMutex.RLock()
	client := t.conn.client
	connected := t.conn.isConnectedInternal()
	t.conn.connMutex.RUnlock()
	if !connected {
		return device.ErrNotConnected
	}

	if char, ok := t.conn.characteristicByCCCHandle(handle); ok {
		t.logger.WithFields(logrus.Fields{
			"handle":    fmt.Sprintf("0x%04x", handle),
			"char_uuid": char.UUID(),
			"value":     fmt.Sprintf("%x", value),
		}).Debug("CCC descriptor write")

		groutine.Go(context.Background(), "gatt-ccc-write", func(context.Context) {
			done(t.applyCCCWrite(client, char, value))
		})
		return nil
	}

	desc, ok := t.conn.descriptorByHandle(handle)
	if !ok {
		return &device.NotFoundError{Resource: "descriptor", UUIDs: []string{fmt.Sprintf("handle 0x%04x", handle)}}
	}
	if desc.Handle == 0 {
		// Synthetic handle: the platform stack never exposed the real one,
		// so a raw descriptor write cannot be addressed.
		return fmt.Errorf("descriptor at handle 0x%04x has no stack handle: %w", handle, device.ErrUnsupported)
	}

	groutine.Go(context.Background(), "gatt-descriptor-write", func(context.Context) {
		done(NormalizeError(client.WriteDescriptor(desc, value)))
	})
	return nil
}

// applyCCCWrite maps a CCC value to the go-ble subscription calls.
// Bit 0 enables notifications, bit 1 enables indications; all bits clear
// disables both.
func (t *BLETransport) applyCCCWrite(client ble.Client, char *BLECharacteristic, value []byte) error {
	if len(value) == 0 {
		return fmt.Errorf("empty CCC value for characteristic %s", char.UUID())
	}

	notify := value[0]&0x01 != 0
	indicate := value[0]&0x02 != 0

	if !notify && !indicate {
		return t.conn.tryUnsubscribe(client, char, "", char.UUID())
	}

	forward := func(data []byte) {
		t.dispatch(char, data)
	}

	if indicate {
		if err := NormalizeError(client.Subscribe(char.BLEChar, true, forward)); err != nil {
			return fmt.Errorf("failed to enable indications for %s: %w", char.UUID(), err)
		}
	}
	if notify {
		if err := NormalizeError(client.Subscribe(char.BLEChar, false, forward)); err != nil {
			return fmt.Errorf("failed to enable notifications for %s: %w", char.UUID(), err)
		}
	}
	return nil
}

// dispatch feeds an incoming payload through the characteristic's update
// pipeline and hands it to the registered indication handler, if any.
// Payloads arriving with no handler registered are dropped.
func (t *BLETransport) dispatch(char *BLECharacteristic, data []byte) {
	t.conn.ProcessCharacteristicNotification(char, data)

	t.mu.RLock()
	fn := t.handlers[char.ValueHandle()]
	t.mu.RUnlock()
	if fn != nil {
		fn(data)
	}
}

// SetIndicationHandler registers fn for payloads arriving on the
// characteristic whose value attribute is at valueHandle, replacing any
// previous handler.
func (t *BLETransport) SetIndicationHandler(valueHandle uint16, fn func(payload []byte)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[valueHandle] = fn
}

// ClearIndicationHandler removes the handler for valueHandle.
func (t *BLETransport) ClearIndicationHandler(valueHandle uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handlers, valueHandle)
}

var _ pulseox.Transport = (*BLETransport)(nil)
