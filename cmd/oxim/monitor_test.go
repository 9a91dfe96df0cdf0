//go:build test

package main

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/srg/oxim/internal/pulseox"
	"github.com/stretchr/testify/suite"
)

// Valid 5-byte measurement frames (flags, pulse rate LE, SpO2, XOR check).
var (
	monitorFrame72bpm98 = []byte{0x04, 0x48, 0x00, 0x62, 0x2e} // 72 bpm, SpO2 98%, pulse beep
	monitorFrame75bpm97 = []byte{0x00, 0x4b, 0x00, 0x61, 0x2a} // 75 bpm, SpO2 97%
	monitorFrameBad     = []byte{0x00, 0x4b, 0x00, 0x61, 0xff}
)

const monitorTestAddress = "AA:BB:CC:DD:EE:FF"

// MonitorTestSuite exercises the monitor command end-to-end against a mocked
// pulse oximeter peripheral.
type MonitorTestSuite struct {
	CommandTestSuite
}

func (suite *MonitorTestSuite) SetupTest() {
	resetMonitorFlags()
	color.NoColor = true

	// Battery service plus the vendor pulse oximeter service, mirroring a
	// BM1000C GATT layout.
	suite.WithPeripheral().
		WithService("180F").
		WithCharacteristic("2A19", "read", []byte{85}).
		WithService(pulseox.ServiceUUID).
		WithCharacteristic(pulseox.MeasurementUUID, "indicate", nil).
		WithDescriptor("2901", []byte("Measurement")).
		WithDescriptor("2902", []byte{0x00, 0x00})

	suite.MockBLEPeripheralSuite.SetupTest()
}

func (suite *MonitorTestSuite) TearDownTest() {
	resetMonitorFlags()
	suite.MockBLEPeripheralSuite.TearDownTest()
}

func resetMonitorFlags() {
	monitorConnectTimeout = 5 * time.Second
	monitorJSON = false
	monitorVerbose = false
	monitorCapture = 0
	monitorCount = 0
}

// runMonitorSession runs the monitor command against the mock peripheral,
// feeding it frames once the subscription is active. Returns captured stdout
// and the command error.
func (suite *MonitorTestSuite) runMonitorSession(frames ...[]byte) (string, error) {
	var runErr error
	out := suite.CaptureStdout(func() {
		done := make(chan error, 1)
		go func() {
			done <- runMonitor(monitorCmd, []string{monitorTestAddress})
		}()

		// Indications are dropped until the CCC write completes, so poll
		// until the first frame is accepted.
		suite.Require().Eventually(func() bool {
			return suite.PeripheralBuilder.SimulateNotification(pulseox.MeasurementUUID, frames[0])
		}, 5*time.Second, 20*time.Millisecond, "subscription MUST become active")

		for _, frame := range frames[1:] {
			suite.Require().True(
				suite.PeripheralBuilder.SimulateNotification(pulseox.MeasurementUUID, frame),
				"frame MUST be delivered while subscribed")
		}

		select {
		case runErr = <-done:
		case <-time.After(5 * time.Second):
			suite.Fail("monitor MUST exit once --count readings arrived")
		}
	})
	return out, runErr
}

func (suite *MonitorTestSuite) TestMonitorReadings() {
	// GOAL: Verify monitor prints decoded readings and a session summary
	//
	// TEST SCENARIO: Subscribe → deliver two valid frames → monitor exits after --count → output has readings and summary

	monitorCount = 2

	out, err := suite.runMonitorSession(monitorFrame72bpm98, monitorFrame75bpm97)
	suite.Require().NoError(err, "monitor MUST exit cleanly")

	suite.Assert().Contains(out, "pulse  72 bpm", "output MUST contain the first reading")
	suite.Assert().Contains(out, "SpO2  98%", "output MUST contain the first SpO2 value")
	suite.Assert().Contains(out, "BEEP", "pulse beep flag MUST be annotated")
	suite.Assert().Contains(out, "pulse  75 bpm", "output MUST contain the second reading")
	suite.Assert().Contains(out, "Session summary", "summary MUST be printed on exit")
	suite.Assert().Contains(out, "readings:      2", "summary MUST count readings")
}

func (suite *MonitorTestSuite) TestMonitorJSONOutput() {
	// GOAL: Verify --json emits one parseable JSON object per reading
	//
	// TEST SCENARIO: Subscribe with --json → deliver a frame → line decodes into expected fields

	monitorCount = 1
	monitorJSON = true

	out, err := suite.runMonitorSession(monitorFrame72bpm98)
	suite.Require().NoError(err, "monitor MUST exit cleanly")

	var reading measurementJSON
	found := false
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "{") {
			continue
		}
		suite.Require().NoError(json.Unmarshal([]byte(line), &reading), "JSON line MUST parse")
		found = true
	}
	suite.Require().True(found, "output MUST contain a JSON reading")

	suite.Assert().Equal(uint16(72), reading.PulseRate, "pulse rate MUST match the frame")
	suite.Assert().Equal(uint8(98), reading.SpO2, "SpO2 MUST match the frame")
	suite.Assert().True(reading.Valid, "reading MUST be valid")
	suite.Assert().True(reading.Flags.PulseBeep, "pulse beep flag MUST be set")
}

func (suite *MonitorTestSuite) TestMonitorCorruptedFrame() {
	// GOAL: Verify corrupted frames are counted without ending the session
	//
	// TEST SCENARIO: Deliver bad frame then two good frames → monitor exits after 2 readings → summary counts the decode error

	monitorCount = 2
	monitorCapture = 64

	out, err := suite.runMonitorSession(monitorFrame72bpm98, monitorFrameBad, monitorFrame75bpm97)
	suite.Require().NoError(err, "monitor MUST survive a corrupted frame")

	suite.Assert().Contains(out, "decode errors: 1", "summary MUST count the corrupted frame")
	suite.Assert().Contains(out, "readings:      2", "valid frames MUST still be delivered")
}

func (suite *MonitorTestSuite) TestMonitorConnectionLost() {
	// GOAL: Verify monitor reports a lost connection as ErrConnectionLost
	//
	// TEST SCENARIO: Subscribe → peripheral drops the link → monitor exits with ErrConnectionLost

	var runErr error
	suite.CaptureStdout(func() {
		done := make(chan error, 1)
		go func() {
			done <- runMonitor(monitorCmd, []string{monitorTestAddress})
		}()

		suite.Require().Eventually(func() bool {
			return suite.PeripheralBuilder.SimulateNotification(pulseox.MeasurementUUID, monitorFrame72bpm98)
		}, 5*time.Second, 20*time.Millisecond, "subscription MUST become active")

		close(suite.PeripheralBuilder.GetDisconnectChannel())

		select {
		case runErr = <-done:
		case <-time.After(5 * time.Second):
			suite.Fail("monitor MUST exit when the connection drops")
		}
	})

	suite.Require().ErrorIs(runErr, ErrConnectionLost, "monitor MUST report the lost connection")
}

func (suite *MonitorTestSuite) TestMonitorResolvesAlias() {
	// GOAL: Verify the --aliases file maps a device name to its address
	//
	// TEST SCENARIO: Alias file maps name to address → resolve → address returned; unknown names pass through

	path := filepath.Join(suite.T().TempDir(), "aliases.yaml")
	content := "devices:\n  bedside: \"" + monitorTestAddress + "\"\n"
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o644))

	cmd := &cobra.Command{}
	cmd.Flags().String("aliases", path, "")

	addr, err := resolveDeviceAddress(cmd, "bedside")
	suite.Require().NoError(err, "alias resolution MUST succeed")
	suite.Assert().Equal(monitorTestAddress, addr, "alias MUST resolve to the configured address")

	addr, err = resolveDeviceAddress(cmd, "11:22:33:44:55:66")
	suite.Require().NoError(err, "raw address MUST pass through")
	suite.Assert().Equal("11:22:33:44:55:66", addr)
}

// TestMonitorCommandSuite runs the test suite
func TestMonitorCommandSuite(t *testing.T) {
	suite.Run(t, new(MonitorTestSuite))
}
