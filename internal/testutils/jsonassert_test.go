//go:build test

package testutils

import (
	"testing"
)

func TestJSONAsserter_DefaultOptions(t *testing.T) {
	ja := NewJSONAsserter(t)
	opts := ja.GetOptions()

	if !opts.IgnoreExtraKeys {
		t.Error("IgnoreExtraKeys should default to true")
	}
	if !opts.NilToEmptyArray {
		t.Error("NilToEmptyArray should default to true")
	}
	if !opts.AllowPresencePlaceholder {
		t.Error("AllowPresencePlaceholder should default to true")
	}
	if opts.CompareOnlyExpectedKeys {
		t.Error("CompareOnlyExpectedKeys should default to false")
	}
	if len(opts.IgnoredFields) != 0 {
		t.Error("IgnoredFields should default to empty slice")
	}
	if opts.IgnoreArrayOrder {
		t.Error("IgnoreArrayOrder should default to false")
	}
}

func TestJSONAsserter_FunctionalOptions(t *testing.T) {
	ja := NewJSONAsserter(t).WithOptions(
		WithIgnoreExtraKeys(false),
		WithIgnoredFields("timestamp", "rssi"),
		WithIgnoreArrayOrder(true),
	)
	opts := ja.GetOptions()

	if opts.IgnoreExtraKeys {
		t.Error("IgnoreExtraKeys should be overridden to false")
	}
	if len(opts.IgnoredFields) != 2 || opts.IgnoredFields[0] != "timestamp" {
		t.Errorf("IgnoredFields not applied: %v", opts.IgnoredFields)
	}
	if !opts.IgnoreArrayOrder {
		t.Error("IgnoreArrayOrder should be overridden to true")
	}
	// Untouched options keep their defaults.
	if !opts.AllowPresencePlaceholder {
		t.Error("AllowPresencePlaceholder should remain true from defaults")
	}
}

func TestJSONAsserter_ExactMatch(t *testing.T) {
	ja := NewJSONAsserter(t)

	reading := `{"pulse_rate": 72, "spo2": 98, "valid": true}`
	if diff := ja.diff(reading, reading); diff != "" {
		t.Errorf("identical JSON must produce no diff, got:\n%s", diff)
	}
}

func TestJSONAsserter_DetectsMismatch(t *testing.T) {
	ja := NewJSONAsserter(t)

	actual := `{"pulse_rate": 72, "spo2": 98}`
	expected := `{"pulse_rate": 75, "spo2": 98}`
	if diff := ja.diff(actual, expected); diff == "" {
		t.Error("differing pulse_rate must produce a diff")
	}
}

func TestJSONAsserter_InvalidJSON(t *testing.T) {
	ja := NewJSONAsserter(t)

	if diff := ja.diff(`{"spo2": 98}`, `{not json`); diff == "" {
		t.Error("invalid expected JSON must be reported")
	}
	if diff := ja.diff(`{not json`, `{"spo2": 98}`); diff == "" {
		t.Error("invalid actual JSON must be reported")
	}
}

func TestJSONAsserter_PresencePlaceholder(t *testing.T) {
	ja := NewJSONAsserter(t)

	actual := `{"address": "AA:BB:CC:DD:EE:FF", "name": "Pulse Oximeter", "rssi": -63}`
	expected := `{"address": "<<PRESENCE>>", "name": "Pulse Oximeter", "rssi": -63}`
	if diff := ja.diff(actual, expected); diff != "" {
		t.Errorf("placeholder must match any value, got:\n%s", diff)
	}

	// Placeholders are literal values once disabled.
	ja = NewJSONAsserter(t).WithOptions(WithAllowPresencePlaceholder(false))
	if diff := ja.diff(actual, expected); diff == "" {
		t.Error("placeholder must not match when disabled")
	}
}

func TestJSONAsserter_IgnoreExtraKeys(t *testing.T) {
	actual := `{"pulse_rate": 72, "spo2": 98, "flags": {"pulse_beep": true}}`
	expected := `{"pulse_rate": 72, "spo2": 98}`

	ja := NewJSONAsserter(t)
	if diff := ja.diff(actual, expected); diff != "" {
		t.Errorf("extra keys must be ignored by default, got:\n%s", diff)
	}

	ja = NewJSONAsserter(t).WithOptions(WithIgnoreExtraKeys(false))
	if diff := ja.diff(actual, expected); diff == "" {
		t.Error("extra keys must be reported when IgnoreExtraKeys is false")
	}
}

func TestJSONAsserter_CompareOnlyExpectedKeys(t *testing.T) {
	ja := NewJSONAsserter(t).WithOptions(
		WithIgnoreExtraKeys(false),
		WithCompareOnlyExpectedKeys(true),
	)

	actual := `{"services": [{"uuid": "cdeacb80", "characteristics": [{"uuid": "cdeacb81", "handle": 42}]}]}`
	expected := `{"services": [{"uuid": "cdeacb80", "characteristics": [{"uuid": "cdeacb81"}]}]}`
	if diff := ja.diff(actual, expected); diff != "" {
		t.Errorf("nested extra keys must be skipped, got:\n%s", diff)
	}
}

func TestJSONAsserter_IgnoredFields(t *testing.T) {
	ja := NewJSONAsserter(t).WithOptions(WithIgnoredFields("timestamp"))

	actual := `{"timestamp": "12:00:01", "pulse_rate": 72, "spo2": 98}`
	expected := `{"timestamp": "12:00:02", "pulse_rate": 72, "spo2": 98}`
	if diff := ja.diff(actual, expected); diff != "" {
		t.Errorf("ignored field must not cause a diff, got:\n%s", diff)
	}
}

func TestJSONAsserter_IgnoredFieldsNested(t *testing.T) {
	ja := NewJSONAsserter(t).WithOptions(WithIgnoredFields("handle"))

	actual := `{"service": {"uuid": "180f", "characteristics": [{"uuid": "2a19", "handle": 12}]}}`
	expected := `{"service": {"uuid": "180f", "characteristics": [{"uuid": "2a19", "handle": 99}]}}`
	if diff := ja.diff(actual, expected); diff != "" {
		t.Errorf("ignored field must be dropped at every depth, got:\n%s", diff)
	}
}

func TestJSONAsserter_IgnoreArrayOrder(t *testing.T) {
	actual := `{"readings": [{"pulse_rate": 75}, {"pulse_rate": 72}]}`
	expected := `{"readings": [{"pulse_rate": 72}, {"pulse_rate": 75}]}`

	ja := NewJSONAsserter(t)
	if diff := ja.diff(actual, expected); diff == "" {
		t.Error("order mismatch must be a diff by default")
	}

	ja = NewJSONAsserter(t).WithOptions(WithIgnoreArrayOrder(true))
	if diff := ja.diff(actual, expected); diff != "" {
		t.Errorf("order mismatch must be tolerated with IgnoreArrayOrder, got:\n%s", diff)
	}
}

// Ignored fields are stripped before array sorting, so rows that differ only
// in an ignored field still align under IgnoreArrayOrder.
func TestJSONAsserter_IgnoreArrayOrderWithIgnoredFields(t *testing.T) {
	ja := NewJSONAsserter(t).WithOptions(
		WithIgnoreArrayOrder(true),
		WithIgnoredFields("timestamp"),
	)

	actual := `{"readings": [
		{"pulse_rate": 75, "spo2": 97, "timestamp": "12:00:02"},
		{"pulse_rate": 72, "spo2": 98, "timestamp": "12:00:01"}
	]}`
	expected := `{"readings": [
		{"pulse_rate": 72, "spo2": 98, "timestamp": "09:30:00"},
		{"pulse_rate": 75, "spo2": 97, "timestamp": "09:30:01"}
	]}`
	if diff := ja.diff(actual, expected); diff != "" {
		t.Errorf("rows must align once ignored fields are stripped, got:\n%s", diff)
	}
}

func TestJSONAsserter_RootLevelArray(t *testing.T) {
	ja := NewJSONAsserter(t)

	actual := `[{"uuid": "180f"}, {"uuid": "cdeacb80"}]`
	expected := `[{"uuid": "180f"}, {"uuid": "cdeacb80"}]`
	if diff := ja.diff(actual, expected); diff != "" {
		t.Errorf("root-level arrays must compare clean, got:\n%s", diff)
	}

	mismatch := `[{"uuid": "180f"}]`
	if diff := ja.diff(actual, mismatch); diff == "" {
		t.Error("root-level array length mismatch must be a diff")
	}
}

func TestJSONAsserter_NilToEmptyArray(t *testing.T) {
	actual := `{"uuid": "2a19", "descriptors": []}`
	expected := `{"uuid": "2a19", "descriptors": null}`

	ja := NewJSONAsserter(t)
	if diff := ja.diff(actual, expected); diff != "" {
		t.Errorf("nil and empty array must be equivalent by default, got:\n%s", diff)
	}

	ja = NewJSONAsserter(t).WithOptions(WithNilToEmptyArray(false))
	if diff := ja.diff(actual, expected); diff == "" {
		t.Error("nil vs empty array must differ when normalization is off")
	}
}

func TestMustJSON(t *testing.T) {
	got := MustJSON(map[string]int{"spo2": 98})
	if got != `{"spo2":98}` {
		t.Errorf("unexpected MustJSON output: %s", got)
	}

	defer func() {
		if recover() == nil {
			t.Error("MustJSON must panic on unmarshalable values")
		}
	}()
	MustJSON(make(chan int))
}
