// Package bledb holds a compact, checked-in subset of the Bluetooth SIG
// assigned-numbers registry plus the vendor UUIDs this project cares about.
// All lookups key on the normalized UUID form produced by NormalizeUUID.
package bledb

import "strings"

// sigBaseSuffix is the tail of the Bluetooth Base UUID
// 00000000-0000-1000-8000-00805F9B34FB with dashes removed.
const sigBaseSuffix = "00001000800000805f9b34fb"

// NormalizeUUID converts any accepted UUID spelling to its canonical lookup
// form: lowercase hex, no dashes, no braces, no 0x prefix. UUIDs derived from
// the Bluetooth Base UUID collapse to their 16-bit short form (e.g.
// "0000180D-0000-1000-8000-00805F9B34FB" -> "180d"); everything else keeps
// its full 128-bit hex string.
func NormalizeUUID(uuid string) string {
	s := strings.ToLower(strings.TrimSpace(uuid))
	s = strings.Trim(s, "{}")
	s = strings.TrimPrefix(s, "0x")
	s = strings.ReplaceAll(s, "-", "")

	switch len(s) {
	case 32:
		if strings.HasSuffix(s, sigBaseSuffix) && strings.HasPrefix(s, "0000") {
			return s[4:8]
		}
	case 8:
		// 32-bit short form; SIG 16-bit UUIDs are zero-extended.
		if strings.HasPrefix(s, "0000") {
			return s[4:]
		}
	}
	return s
}

// NormalizeUUIDs normalizes each UUID in the slice. Returns nil for nil input.
func NormalizeUUIDs(uuids []string) []string {
	if uuids == nil {
		return nil
	}
	out := make([]string, len(uuids))
	for i, u := range uuids {
		out[i] = NormalizeUUID(u)
	}
	return out
}

// LookupService returns the human-readable name of a service UUID,
// or "" if the UUID is not in the table.
func LookupService(uuid string) string {
	return services[NormalizeUUID(uuid)]
}

// LookupCharacteristic returns the human-readable name of a characteristic
// UUID, or "" if the UUID is not in the table.
func LookupCharacteristic(uuid string) string {
	return characteristics[NormalizeUUID(uuid)]
}

// LookupDescriptor returns the human-readable name of a descriptor UUID,
// or "" if the UUID is not in the table.
func LookupDescriptor(uuid string) string {
	return descriptors[NormalizeUUID(uuid)]
}

// LookupAppearanceCode returns the name of a GAP Appearance value,
// or "" if the code is not in the table.
func LookupAppearanceCode(code uint16) string {
	return appearances[code]
}

var services = map[string]string{
	"1800": "Generic Access",
	"1801": "Generic Attribute",
	"180a": "Device Information",
	"180d": "Heart Rate",
	"180f": "Battery Service",
	"1822": "Pulse Oximeter Service",

	// BerryMed / Contec style pulse oximeters expose their measurement
	// stream on a vendor service rather than the SIG PLX service.
	"cdeacb8052354c07884693a37ee6b86d": "Pulse Oximeter (vendor)",
}

var characteristics = map[string]string{
	"2a00": "Device Name",
	"2a01": "Appearance",
	"2a05": "Service Changed",
	"2a19": "Battery Level",
	"2a24": "Model Number String",
	"2a25": "Serial Number String",
	"2a26": "Firmware Revision String",
	"2a29": "Manufacturer Name String",
	"2a37": "Heart Rate Measurement",
	"2a5e": "PLX Spot-Check Measurement",
	"2a5f": "PLX Continuous Measurement",
	"2a60": "PLX Features",

	"cdeacb8152354c07884693a37ee6b86d": "Pulse Oximeter Measurement (vendor)",
	"cdeacb8252354c07884693a37ee6b86d": "Pulse Oximeter Control (vendor)",
}

var descriptors = map[string]string{
	"2900": "Characteristic Extended Properties",
	"2901": "Characteristic User Descriptor",
	"2902": "Client Characteristic Configuration",
	"2903": "Server Characteristic Configuration",
	"2904": "Characteristic Presentation Format",
	"2905": "Characteristic Aggregate Format",
	"2906": "Valid Range",
}

var appearances = map[uint16]string{
	0:    "Unknown",
	64:   "Generic Phone",
	128:  "Generic Computer",
	192:  "Generic Watch",
	832:  "Generic Heart Rate Sensor",
	833:  "Heart Rate Sensor: Heart Rate Belt",
	3136: "Generic Pulse Oximeter",
	3137: "Pulse Oximeter: Fingertip",
	3138: "Pulse Oximeter: Wrist Worn",
}
