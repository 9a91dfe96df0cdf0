package testutils

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	blelib "github.com/go-ble/ble"
	"github.com/srg/oxim/internal/device"
	"github.com/srg/oxim/internal/testutils/mocks"
	"github.com/stretchr/testify/mock"
)

// aggregatePlaceholderBase marks Aggregate Format descriptor values that
// reference sibling descriptors by index rather than by ATT handle. Real
// handles are only known at Build() time, so the config stores
// little-endian (aggregatePlaceholderBase + descriptorIndex) pairs that
// Build() rewrites into the assigned handles.
const aggregatePlaceholderBase = 0x0100

// createMockUUID creates a ble.UUID from a string for testing
func createMockUUID(name string) blelib.UUID {
	// Parse as proper UUID - will panic if invalid, which is fine for tests
	return blelib.MustParse(name)
}

// DescriptorConfig represents a BLE descriptor configuration for mocking
type DescriptorConfig struct {
	UUID  string    `json:"uuid"`
	Value jsonBytes `json:"value,omitempty"`
}

// CharacteristicConfig represents a BLE characteristic configuration for mocking
type CharacteristicConfig struct {
	UUID        string             `json:"uuid"`
	Properties  string             `json:"properties,omitempty"` // e.g., "read,write,notify,indicate"
	Value       jsonBytes          `json:"value,omitempty"`
	Descriptors []DescriptorConfig `json:"descriptors,omitempty"`

	// NoProperties forces a zero property mask (not expressible via the
	// Properties string, whose empty value means "default set").
	NoProperties bool `json:"no_properties,omitempty"`

	// Artificial latencies for exercising read/write timeout paths.
	ReadDelay  time.Duration `json:"-"`
	WriteDelay time.Duration `json:"-"`
}

// CharacteristicOption customizes a characteristic added via WithCharacteristic.
type CharacteristicOption func(*CharacteristicConfig)

// WithReadDelay makes the mocked peripheral delay characteristic reads,
// for exercising read timeout handling.
func WithReadDelay(d time.Duration) CharacteristicOption {
	return func(c *CharacteristicConfig) { c.ReadDelay = d }
}

// WithWriteDelay makes the mocked peripheral delay characteristic writes,
// for exercising write timeout handling.
func WithWriteDelay(d time.Duration) CharacteristicOption {
	return func(c *CharacteristicConfig) { c.WriteDelay = d }
}

// ServiceConfig represents a BLE service configuration for mocking
type ServiceConfig struct {
	UUID            string                 `json:"uuid"`
	Characteristics []CharacteristicConfig `json:"characteristics,omitempty"`
}

// DeviceProfileConfig represents the complete device profile for mocking
type DeviceProfileConfig struct {
	Services []ServiceConfig `json:"services"`
}

// PeripheralDeviceBuilder builds mocked BLE Device with full
// service/characteristic/descriptor support. ATT handles are assigned
// sequentially in declaration order at Build() time: one handle per service,
// one per characteristic, one per descriptor.
type PeripheralDeviceBuilder struct {
	t                  *testing.T
	profile            DeviceProfileConfig
	scanAdvertisements []device.Advertisement

	disconnectChan chan struct{}

	// Subscription handlers captured from Subscribe calls, keyed by
	// characteristic UUID string. Guarded by handlerMu.
	handlerMu sync.RWMutex
	handlers  map[string]blelib.NotificationHandler
}

// NewPeripheralDeviceBuilder creates a new peripheral device builder
func NewPeripheralDeviceBuilder(t *testing.T) *PeripheralDeviceBuilder {
	return &PeripheralDeviceBuilder{
		t: t,
		profile: DeviceProfileConfig{
			Services: []ServiceConfig{},
		},
		disconnectChan: make(chan struct{}),
		handlers:       make(map[string]blelib.NotificationHandler),
	}
}

// WithService adds a service to the device profile
func (b *PeripheralDeviceBuilder) WithService(uuid string) *PeripheralDeviceBuilder {
	b.profile.Services = append(b.profile.Services, ServiceConfig{
		UUID:            uuid,
		Characteristics: []CharacteristicConfig{},
	})
	return b
}

// WithCharacteristic adds a characteristic to the last added service
func (b *PeripheralDeviceBuilder) WithCharacteristic(uuid, properties string, value []byte, opts ...CharacteristicOption) *PeripheralDeviceBuilder {
	if len(b.profile.Services) == 0 {
		panic("WithCharacteristic: no service added yet, call WithService first")
	}

	char := CharacteristicConfig{
		UUID:       uuid,
		Properties: properties,
		Value:      jsonBytes(value),
	}
	for _, opt := range opts {
		opt(&char)
	}

	lastServiceIdx := len(b.profile.Services) - 1
	b.profile.Services[lastServiceIdx].Characteristics = append(
		b.profile.Services[lastServiceIdx].Characteristics, char)
	return b
}

// WithCharacteristicNoProperties adds a characteristic with an empty property
// mask to the last added service, for exercising no-capability error paths.
func (b *PeripheralDeviceBuilder) WithCharacteristicNoProperties(uuid string, value []byte) *PeripheralDeviceBuilder {
	if len(b.profile.Services) == 0 {
		panic("WithCharacteristicNoProperties: no service added yet, call WithService first")
	}

	lastServiceIdx := len(b.profile.Services) - 1
	b.profile.Services[lastServiceIdx].Characteristics = append(
		b.profile.Services[lastServiceIdx].Characteristics, CharacteristicConfig{
			UUID:         uuid,
			Value:        jsonBytes(value),
			NoProperties: true,
		})
	return b
}

// WithDescriptor adds a descriptor to the last added characteristic
func (b *PeripheralDeviceBuilder) WithDescriptor(uuid string, value []byte) *PeripheralDeviceBuilder {
	char := b.lastCharacteristic()
	char.Descriptors = append(char.Descriptors, DescriptorConfig{
		UUID:  uuid,
		Value: jsonBytes(value),
	})
	return b
}

// lastCharacteristic returns a pointer to the most recently added characteristic
func (b *PeripheralDeviceBuilder) lastCharacteristic() *CharacteristicConfig {
	if len(b.profile.Services) == 0 {
		panic("no service added yet, call WithService first")
	}
	svc := &b.profile.Services[len(b.profile.Services)-1]
	if len(svc.Characteristics) == 0 {
		panic("no characteristic added yet, call WithCharacteristic first")
	}
	return &svc.Characteristics[len(svc.Characteristics)-1]
}

// AggregateFormatDescriptorBuilder accumulates Presentation Format
// descriptors (0x2904) and, on Build(), appends them together with an
// Aggregate Format descriptor (0x2905) referencing them to the parent
// builder's last characteristic.
type AggregateFormatDescriptorBuilder struct {
	parent  *PeripheralDeviceBuilder
	formats [][]byte
}

// WithAggregateFormatDescriptor starts an aggregate format descriptor group
// on the last added characteristic.
func (b *PeripheralDeviceBuilder) WithAggregateFormatDescriptor() *AggregateFormatDescriptorBuilder {
	// Validate early so misuse fails at the call site
	b.lastCharacteristic()
	return &AggregateFormatDescriptorBuilder{parent: b}
}

// WithPresentationFormat adds a Presentation Format descriptor (0x2904) value
// to the aggregate group.
func (a *AggregateFormatDescriptorBuilder) WithPresentationFormat(value []byte) *AggregateFormatDescriptorBuilder {
	a.formats = append(a.formats, value)
	return a
}

// Build appends the accumulated Presentation Format descriptors and the
// Aggregate Format descriptor to the characteristic and returns the parent
// builder for further chaining. The aggregate value holds index placeholders
// until the device Build() assigns real ATT handles.
func (a *AggregateFormatDescriptorBuilder) Build() *PeripheralDeviceBuilder {
	char := a.parent.lastCharacteristic()

	var aggregateValue []byte
	for _, format := range a.formats {
		descIdx := len(char.Descriptors)
		char.Descriptors = append(char.Descriptors, DescriptorConfig{
			UUID:  "2904",
			Value: jsonBytes(format),
		})
		placeholder := aggregatePlaceholderBase + descIdx
		aggregateValue = append(aggregateValue,
			byte(placeholder&0xFF),
			byte(placeholder>>8))
	}

	char.Descriptors = append(char.Descriptors, DescriptorConfig{
		UUID:  "2905",
		Value: jsonBytes(aggregateValue),
	})
	return a.parent
}

// FromJSON fills the device profile from JSON
func (b *PeripheralDeviceBuilder) FromJSON(jsonStrFmt string, args ...interface{}) *PeripheralDeviceBuilder {
	jsonStr := fmt.Sprintf(jsonStrFmt, args...)

	var config DeviceProfileConfig
	if err := json.Unmarshal([]byte(jsonStr), &config); err != nil {
		panic(fmt.Sprintf("PeripheralDeviceBuilder.FromJSON: failed to unmarshal: %v", err))
	}

	b.profile = config
	return b
}

// WithScanAdvertisements returns an AdvertisementArrayBuilder that will return this PeripheralDeviceBuilder on Build()
func (b *PeripheralDeviceBuilder) WithScanAdvertisements() *AdvertisementArrayBuilder[*PeripheralDeviceBuilder] {
	arrayBuilder := NewAdvertisementArrayBuilder[*PeripheralDeviceBuilder]()
	arrayBuilder.parent = b
	arrayBuilder.buildFunc = func(parent *PeripheralDeviceBuilder, ads []device.Advertisement) *PeripheralDeviceBuilder {
		parent.scanAdvertisements = append(parent.scanAdvertisements, ads...)
		return parent
	}
	return arrayBuilder
}

// GetDisconnectChannel returns the channel behind the mocked client's
// Disconnected() method. Closing it simulates the peripheral dropping the
// connection.
func (b *PeripheralDeviceBuilder) GetDisconnectChannel() chan struct{} {
	return b.disconnectChan
}

// SimulateNotification invokes the subscription handler most recently captured
// for the given characteristic UUID, as if the peripheral had sent a
// notification or indication. Returns false if nothing is subscribed.
func (b *PeripheralDeviceBuilder) SimulateNotification(uuid string, data []byte) bool {
	b.handlerMu.RLock()
	h, ok := b.handlers[device.NormalizeUUID(uuid)]
	b.handlerMu.RUnlock()
	if !ok || h == nil {
		return false
	}
	h(data)
	return true
}

// parseCharacteristicProperties converts a comma-separated property string to
// ble.Property flags. An empty string yields the default read/write/notify set.
func parseCharacteristicProperties(props string) blelib.Property {
	if props == "" {
		return blelib.CharRead | blelib.CharWrite | blelib.CharNotify // default
	}

	var property blelib.Property
	for _, p := range strings.Split(props, ",") {
		switch strings.TrimSpace(p) {
		case "broadcast":
			property |= blelib.CharBroadcast
		case "read":
			property |= blelib.CharRead
		case "write_without_response":
			property |= blelib.CharWriteNR
		case "write":
			property |= blelib.CharWrite
		case "notify":
			property |= blelib.CharNotify
		case "indicate":
			property |= blelib.CharIndicate
		case "authenticated_signed_writes":
			property |= blelib.CharSignedWrite
		case "extended_properties":
			property |= blelib.CharExtended
		default:
			panic(fmt.Sprintf("parseCharacteristicProperties: unknown property %q", p))
		}
	}
	return property
}

// Build creates a mocked ble.Device with the configured profile
func (b *PeripheralDeviceBuilder) Build() blelib.Device {
	mockDevice := &mocks.MockDevice{}
	mockClient := &mocks.MockClient{}

	// Create the BLE profile, assigning sequential ATT handles in
	// declaration order
	var handle uint16 = 0x0001
	var bleServices []*blelib.Service
	type charBinding struct {
		config CharacteristicConfig
		char   *blelib.Characteristic
	}
	var bindings []charBinding

	for _, svcConfig := range b.profile.Services {
		bleService := &blelib.Service{
			UUID:   createMockUUID(svcConfig.UUID),
			Handle: handle,
		}
		handle++

		var bleCharacteristics []*blelib.Characteristic
		for _, charConfig := range svcConfig.Characteristics {
			property := parseCharacteristicProperties(charConfig.Properties)
			if charConfig.NoProperties {
				property = 0
			}

			bleChar := &blelib.Characteristic{
				UUID:     createMockUUID(charConfig.UUID),
				Property: property,
				Value:    []byte(charConfig.Value),
				Handle:   handle,
				VHandle:  handle,
			}
			handle++

			// First pass: create descriptors with their handles
			var descHandles []uint16
			for _, descConfig := range charConfig.Descriptors {
				bleDesc := &blelib.Descriptor{
					UUID:   createMockUUID(descConfig.UUID),
					Handle: handle,
					Value:  []byte(descConfig.Value),
				}
				descHandles = append(descHandles, handle)
				handle++

				if descConfig.UUID == "2902" {
					bleChar.CCCD = bleDesc
				}
				bleChar.Descriptors = append(bleChar.Descriptors, bleDesc)
			}

			// Second pass: rewrite aggregate format placeholders into the
			// assigned handles
			for _, bleDesc := range bleChar.Descriptors {
				if !strings.Contains(bleDesc.UUID.String(), "2905") || len(bleDesc.Value) == 0 {
					continue
				}
				var aggregateValue []byte
				for i := 0; i+1 < len(bleDesc.Value); i += 2 {
					idx := int(bleDesc.Value[i]) | int(bleDesc.Value[i+1])<<8
					idx -= aggregatePlaceholderBase
					actualHandle := descHandles[idx]
					aggregateValue = append(aggregateValue,
						byte(actualHandle&0xFF),
						byte(actualHandle>>8))
				}
				bleDesc.Value = aggregateValue
			}
			bleChar.EndHandle = handle - 1

			bleCharacteristics = append(bleCharacteristics, bleChar)
			bindings = append(bindings, charBinding{config: charConfig, char: bleChar})
		}
		bleService.Characteristics = bleCharacteristics
		bleService.EndHandle = handle - 1
		bleServices = append(bleServices, bleService)
	}

	// Create the profile that will be returned by DiscoverProfile
	mockProfile := &blelib.Profile{
		Services: bleServices,
	}

	// Set up mock expectations
	mockDevice.On("Dial", mock.Anything, mock.Anything).Return(mockClient, nil)
	mockClient.On("DiscoverProfile", true).Return(mockProfile, nil)
	mockClient.On("CancelConnection").Return(nil)
	mockClient.On("Disconnected").Return((<-chan struct{})(b.disconnectChan))

	// Set up per-characteristic expectations
	for _, binding := range bindings {
		char := binding.char
		config := binding.config
		uuidKey := device.NormalizeUUID(char.UUID.String())

		// Capture subscription handlers for both notify and indicate so
		// tests can push values through SimulateNotification
		capture := func(args mock.Arguments) {
			h, _ := args.Get(2).(blelib.NotificationHandler)
			b.handlerMu.Lock()
			b.handlers[uuidKey] = h
			b.handlerMu.Unlock()
		}
		release := func(mock.Arguments) {
			b.handlerMu.Lock()
			delete(b.handlers, uuidKey)
			b.handlerMu.Unlock()
		}
		mockClient.On("Subscribe", char, false, mock.Anything).Run(capture).Return(nil)
		mockClient.On("Subscribe", char, true, mock.Anything).Run(capture).Return(nil)
		mockClient.On("Unsubscribe", char, false).Run(release).Return(nil)
		mockClient.On("Unsubscribe", char, true).Run(release).Return(nil)

		// Read expectations - return value only if characteristic supports reading
		if char.Property&blelib.CharRead != 0 {
			call := mockClient.On("ReadCharacteristic", char)
			if config.ReadDelay > 0 {
				delay := config.ReadDelay
				call.Run(func(mock.Arguments) { time.Sleep(delay) })
			}
			call.Return(char.Value, nil)
		} else {
			mockClient.On("ReadCharacteristic", char).Return(nil, fmt.Errorf("characteristic does not support read"))
		}

		// Write expectations - accept writes only if characteristic supports writing
		if char.Property&(blelib.CharWrite|blelib.CharWriteNR) != 0 {
			call := mockClient.On("WriteCharacteristic", char, mock.Anything, mock.Anything)
			if config.WriteDelay > 0 {
				delay := config.WriteDelay
				call.Run(func(mock.Arguments) { time.Sleep(delay) })
			}
			call.Return(nil)
		} else {
			mockClient.On("WriteCharacteristic", char, mock.Anything, mock.Anything).
				Return(fmt.Errorf("characteristic does not support write"))
		}

		// Descriptor reads/writes
		for _, d := range char.Descriptors {
			mockClient.On("WriteDescriptor", d, mock.Anything).Return(nil)
			mockClient.On("ReadDescriptor", d).Return(d.Value, nil)
		}
	}

	// Set up scan expectations - simulate discovering the configured advertisements
	mockDevice.On("Scan", mock.Anything, mock.Anything, mock.MatchedBy(func(handler blelib.AdvHandler) bool {
		// Simulate discovering all configured advertisements
		for _, adv := range b.scanAdvertisements {
			handler(&scanAdvAdapter{adv: adv})
		}
		return true
	})).Return(nil)

	if b.t != nil {
		b.t.Cleanup(func() {
			// Tests may have closed the channel themselves to simulate a
			// peripheral-side disconnect
			select {
			case <-b.disconnectChan:
			default:
				close(b.disconnectChan)
			}
		})
	}

	return mockDevice
}

// GetServices returns the configured services for use in creating connection options
func (b *PeripheralDeviceBuilder) GetServices() []ServiceConfig {
	return b.profile.Services
}
