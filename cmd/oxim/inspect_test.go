//go:build test

package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/srg/oxim/internal/pulseox"
	"github.com/stretchr/testify/suite"
)

// InspectTestSuite tests the inspect command report generation against a
// mocked peripheral.
type InspectTestSuite struct {
	CommandTestSuite

	originalReadLimit int
}

func (suite *InspectTestSuite) SetupTest() {
	suite.originalReadLimit = inspectReadLimit
	inspectReadLimit = 64

	suite.WithPeripheral().
		WithService("180F").
		WithCharacteristic("2A19", "read", []byte{85}).
		WithService(pulseox.ServiceUUID).
		WithCharacteristic(pulseox.MeasurementUUID, "indicate", nil).
		WithDescriptor("2901", []byte("Measurement")).
		WithDescriptor("2902", []byte{0x00, 0x00})

	suite.MockBLEPeripheralSuite.SetupTest()
}

func (suite *InspectTestSuite) TearDownTest() {
	inspectReadLimit = suite.originalReadLimit
	suite.MockBLEPeripheralSuite.TearDownTest()
}

func (suite *InspectTestSuite) buildTestReport() *deviceReport {
	dev, cleanup := suite.ConnectDevice("")
	defer cleanup()

	report, err := buildReport(dev)
	suite.Require().NoError(err, "report MUST build from a connected device")
	suite.Require().NotNil(report)
	return report
}

func (suite *InspectTestSuite) findService(report *deviceReport, uuid string) *serviceReport {
	for i := range report.Services {
		if report.Services[i].UUID == uuid {
			return &report.Services[i]
		}
	}
	suite.Require().Failf("service missing", "service %s MUST be discovered", uuid)
	return nil
}

func (suite *InspectTestSuite) TestBuildReport() {
	// GOAL: Verify the report covers every discovered service, characteristic and descriptor
	//
	// TEST SCENARIO: Connect to mock → build report → both services present with expected attributes

	report := suite.buildTestReport()

	suite.Assert().Equal(TestDeviceAddress1, report.Address, "report MUST carry the device address")
	suite.Require().Len(report.Services, 2, "both services MUST be reported")

	battery := suite.findService(report, "180f")
	suite.Require().Len(battery.Characteristics, 1)
	batteryLevel := battery.Characteristics[0]
	suite.Assert().Contains(batteryLevel.Properties, "Read", "battery level MUST be readable")
	suite.Assert().Equal([]byte{85}, batteryLevel.Value, "readable characteristic value MUST be read")

	oximeter := suite.findService(report, "cdeacb8052354c07884693a37ee6b86d")
	suite.Require().Len(oximeter.Characteristics, 1)
	measurement := oximeter.Characteristics[0]
	suite.Assert().Contains(measurement.Properties, "Indicate", "measurement MUST be indicatable")
	suite.Assert().NotZero(measurement.ValueHandle, "measurement MUST have a value handle")
	suite.Require().Len(measurement.Descriptors, 2, "both descriptors MUST be reported")

	uuids := []string{measurement.Descriptors[0].UUID, measurement.Descriptors[1].UUID}
	suite.Assert().Contains(uuids, "2901")
	suite.Assert().Contains(uuids, "2902")
}

func (suite *InspectTestSuite) TestReadLimitTruncatesValues() {
	// GOAL: Verify --read-limit truncates long characteristic values
	//
	// TEST SCENARIO: Read limit 1 → battery value truncated to one byte; limit 0 → no reads at all

	inspectReadLimit = 1
	report := suite.buildTestReport()
	battery := suite.findService(report, "180f")
	suite.Assert().Len(battery.Characteristics[0].Value, 1, "value MUST be truncated to the read limit")

	inspectReadLimit = 0
	report = suite.buildTestReport()
	battery = suite.findService(report, "180f")
	suite.Assert().Nil(battery.Characteristics[0].Value, "reads MUST be skipped when the limit is zero")
}

func (suite *InspectTestSuite) TestTextOutput() {
	// GOAL: Verify the text rendering names services, handles and descriptor values

	report := suite.buildTestReport()

	var buf bytes.Buffer
	report.writeText(&buf)
	out := buf.String()

	suite.Assert().Contains(out, "Device "+TestDeviceAddress1, "header MUST name the device")
	suite.Assert().Contains(out, "Service 180f", "battery service MUST be listed")
	suite.Assert().Contains(out, "Service cdeacb8052354c07884693a37ee6b86d", "oximeter service MUST be listed")
	suite.Assert().Contains(out, "Characteristic", "characteristics MUST be listed")
	suite.Assert().Contains(out, "Descriptor 2901", "descriptors MUST be listed")
}

func (suite *InspectTestSuite) TestJSONOutput() {
	// GOAL: Verify the report serializes to JSON and round-trips its key fields

	report := suite.buildTestReport()

	data, err := json.Marshal(report)
	suite.Require().NoError(err, "report MUST serialize")

	var decoded deviceReport
	suite.Require().NoError(json.Unmarshal(data, &decoded), "report MUST deserialize")
	suite.Assert().Equal(report.Address, decoded.Address)
	suite.Assert().Len(decoded.Services, len(report.Services))
}

func (suite *InspectTestSuite) TestInspectOptionsDefaults() {
	// GOAL: Verify flag defaults leave descriptor reads enabled

	suite.Assert().Equal(30*time.Second, func() time.Duration {
		d, _ := inspectCmd.Flags().GetDuration("connect-timeout")
		return d
	}(), "connect timeout default MUST be 30s")

	d, _ := inspectCmd.Flags().GetDuration("descriptor-timeout")
	suite.Assert().Equal(2*time.Second, d, "descriptor read timeout default MUST be 2s")
}

// TestInspectCommandSuite runs the test suite
func TestInspectCommandSuite(t *testing.T) {
	suite.Run(t, new(InspectTestSuite))
}
