package pulseox

// Vendor UUIDs used by BerryMed-style pulse oximeters. The measurement
// characteristic carries the 5-byte reading as indications.
const (
	// ServiceUUID identifies the vendor pulse oximeter service.
	ServiceUUID = "cdeacb80-5235-4c07-8846-93a37ee6b86d"

	// MeasurementUUID identifies the measurement characteristic within
	// ServiceUUID.
	MeasurementUUID = "cdeacb81-5235-4c07-8846-93a37ee6b86d"

	// CCCDescriptorUUID is the Client Characteristic Configuration
	// descriptor controlling indication delivery.
	CCCDescriptorUUID = "2902"
)

// Client Characteristic Configuration values written to the measurement
// characteristic's CCC descriptor. Little-endian uint16 per the ATT spec.
var (
	CCCEnableIndications = []byte{0x02, 0x00}
	CCCDisable           = []byte{0x00, 0x00}
)
