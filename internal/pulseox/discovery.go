package pulseox

import "github.com/srg/oxim/internal/bledb"

// DiscoveryResult is a transport-agnostic snapshot of the attribute handles
// discovered on a peer. The BLE backend builds one from its discovered
// profile; tests build them literally.
type DiscoveryResult struct {
	Services []ServiceInfo
}

// ServiceInfo describes one discovered service.
type ServiceInfo struct {
	UUID            string
	Characteristics []CharacteristicInfo
}

// CharacteristicInfo describes one discovered characteristic and its
// descriptors.
type CharacteristicInfo struct {
	UUID        string
	ValueHandle uint16
	Descriptors []DescriptorInfo
}

// DescriptorInfo describes one discovered descriptor.
type DescriptorInfo struct {
	UUID   string
	Handle uint16
}

// handles is the bound pair a Client operates on.
type handles struct {
	value uint16 // measurement characteristic value attribute
	ccc   uint16 // client characteristic configuration descriptor
}

// findMeasurementHandles locates the measurement characteristic and its CCC
// descriptor within the discovery result. The result is not modified.
func findMeasurementHandles(result DiscoveryResult) (handles, error) {
	wantSvc := bledb.NormalizeUUID(ServiceUUID)
	wantChr := bledb.NormalizeUUID(MeasurementUUID)
	wantCCC := bledb.NormalizeUUID(CCCDescriptorUUID)

	for _, svc := range result.Services {
		if bledb.NormalizeUUID(svc.UUID) != wantSvc {
			continue
		}
		for _, chr := range svc.Characteristics {
			if bledb.NormalizeUUID(chr.UUID) != wantChr {
				continue
			}
			for _, desc := range chr.Descriptors {
				if bledb.NormalizeUUID(desc.UUID) == wantCCC {
					return handles{value: chr.ValueHandle, ccc: desc.Handle}, nil
				}
			}
			return handles{}, &NotFoundError{Resource: "descriptor", UUID: CCCDescriptorUUID}
		}
		return handles{}, &NotFoundError{Resource: "characteristic", UUID: MeasurementUUID}
	}
	return handles{}, &NotFoundError{Resource: "service", UUID: ServiceUUID}
}
