package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/oxim/inspector"
	"github.com/srg/oxim/internal/device"
	"github.com/srg/oxim/pkg/config"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <device-address>",
	Short: "Inspect services, characteristics, and descriptors of a BLE device",
	Long: `Connects to a BLE device by address and discovers its services,
characteristics, and descriptors. Attempts to read characteristic values when possible.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var (
	inspectConnectTimeout        time.Duration
	inspectDescriptorReadTimeout time.Duration
	inspectVerbose               bool
	inspectJSON                  bool
	inspectReadLimit             int
)

func init() {
	inspectCmd.Flags().DurationVar(&inspectConnectTimeout, "connect-timeout", 30*time.Second, "Connection timeout")
	inspectCmd.Flags().DurationVar(&inspectDescriptorReadTimeout, "descriptor-timeout", 2*time.Second, "Timeout for reading descriptor values (0 to skip descriptor reads)")
	inspectCmd.Flags().BoolVarP(&inspectVerbose, "verbose", "v", false, "Verbose output")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Output as JSON")
	inspectCmd.Flags().IntVar(&inspectReadLimit, "read-limit", 64, "Max bytes to read from readable characteristics (0 to disable reads)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	address, err := resolveDeviceAddress(cmd, args[0])
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	if inspectVerbose {
		cfg.LogLevel = logrus.DebugLevel
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	logger := cfg.NewLogger()

	// Build inspect options
	opts := &inspector.InspectOptions{
		ConnectTimeout:        inspectConnectTimeout,
		DescriptorReadTimeout: inspectDescriptorReadTimeout,
	}

	// Use background context; per-command timeout is applied inside the inspector
	ctx := context.Background()

	// Setup progress printer
	progress := NewProgressPrinter(fmt.Sprintf("Inspecting device %s", address), "Connecting", "Processing results")
	progress.Start()
	defer progress.Stop()

	report, err := inspector.InspectDevice(ctx, address, opts, logger, progress.Callback(), buildReport)
	if err != nil {
		return err
	}

	progress.Stop()

	if inspectJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}
	report.writeText(os.Stdout)
	return nil
}

// deviceReport is the inspection result for one device.
type deviceReport struct {
	Address  string          `json:"address"`
	Name     string          `json:"name"`
	Services []serviceReport `json:"services"`
}

type serviceReport struct {
	UUID            string                 `json:"uuid"`
	Name            string                 `json:"name,omitempty"`
	Characteristics []characteristicReport `json:"characteristics"`
}

type characteristicReport struct {
	UUID        string             `json:"uuid"`
	Name        string             `json:"name,omitempty"`
	ValueHandle uint16             `json:"valueHandle"`
	Properties  []string           `json:"properties"`
	Value       []byte             `json:"value,omitempty"`
	ReadError   string             `json:"readError,omitempty"`
	Descriptors []descriptorReport `json:"descriptors"`
}

type descriptorReport struct {
	UUID   string `json:"uuid"`
	Name   string `json:"name,omitempty"`
	Handle uint16 `json:"handle"`
	Value  []byte `json:"value,omitempty"`
	Parsed string `json:"parsed,omitempty"`
}

// buildReport walks the connected device's GATT database into a deviceReport.
func buildReport(dev device.Device) (*deviceReport, error) {
	conn := dev.GetConnection()
	if conn == nil {
		return nil, device.ErrNotConnected
	}

	report := &deviceReport{
		Address: dev.Address(),
		Name:    dev.Name(),
	}

	for _, svc := range conn.Services() {
		sr := serviceReport{
			UUID: svc.UUID(),
			Name: svc.KnownName(),
		}

		for _, char := range svc.GetCharacteristics() {
			cr := characteristicReport{
				UUID:        char.UUID(),
				Name:        char.KnownName(),
				ValueHandle: char.ValueHandle(),
				Properties:  propertyNames(char.GetProperties()),
			}

			if inspectReadLimit > 0 && char.GetProperties().Read() != nil {
				if value, err := char.Read(2 * time.Second); err != nil {
					cr.ReadError = err.Error()
				} else if len(value) > inspectReadLimit {
					cr.Value = value[:inspectReadLimit]
				} else {
					cr.Value = value
				}
			}

			for _, desc := range char.GetDescriptors() {
				dr := descriptorReport{
					UUID:   desc.UUID(),
					Name:   desc.KnownName(),
					Handle: desc.Handle(),
					Value:  desc.Value(),
				}
				if parsed := desc.ParsedValue(); parsed != nil {
					dr.Parsed = fmt.Sprintf("%v", parsed)
				}
				cr.Descriptors = append(cr.Descriptors, dr)
			}

			sr.Characteristics = append(sr.Characteristics, cr)
		}

		report.Services = append(report.Services, sr)
	}

	return report, nil
}

// propertyNames lists the names of the properties present on a characteristic.
func propertyNames(props device.Properties) []string {
	var names []string
	for _, p := range []device.Property{
		props.Broadcast(),
		props.Read(),
		props.WriteWithoutResponse(),
		props.Write(),
		props.Notify(),
		props.Indicate(),
		props.AuthenticatedSignedWrites(),
		props.ExtendedProperties(),
	} {
		if p != nil {
			names = append(names, p.KnownName())
		}
	}
	return names
}

func (r *deviceReport) writeText(w io.Writer) {
	name := r.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(w, "Device %s  %s\n", r.Address, name)

	for _, svc := range r.Services {
		fmt.Fprintf(w, "Service %s%s\n", svc.UUID, knownNameSuffix(svc.Name))
		for _, char := range svc.Characteristics {
			fmt.Fprintf(w, "  Characteristic %s%s  handle 0x%04x  %v\n",
				char.UUID, knownNameSuffix(char.Name), char.ValueHandle, char.Properties)
			if len(char.Value) > 0 {
				fmt.Fprintf(w, "    value: % x\n", char.Value)
			}
			if char.ReadError != "" {
				fmt.Fprintf(w, "    read failed: %s\n", char.ReadError)
			}
			for _, desc := range char.Descriptors {
				fmt.Fprintf(w, "    Descriptor %s%s  handle 0x%04x", desc.UUID, knownNameSuffix(desc.Name), desc.Handle)
				if desc.Parsed != "" {
					fmt.Fprintf(w, "  %s", desc.Parsed)
				} else if len(desc.Value) > 0 {
					fmt.Fprintf(w, "  % x", desc.Value)
				}
				fmt.Fprintln(w)
			}
		}
	}
}

func knownNameSuffix(name string) string {
	if name == "" {
		return ""
	}
	return fmt.Sprintf(" (%s)", name)
}
