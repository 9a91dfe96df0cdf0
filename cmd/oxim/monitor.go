package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/srg/oxim/internal/device"
	goble "github.com/srg/oxim/internal/device/go-ble"
	"github.com/srg/oxim/internal/devicefactory"
	"github.com/srg/oxim/internal/pulseox"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor <device-address>",
	Short: "Monitor live pulse oximeter readings",
	Long: `Connects to a pulse oximeter, subscribes to measurement indications and
prints each reading as it arrives. Readings carry pulse rate, SpO2 and
sensor status flags.

The device argument is a BLE address, or a name from the --aliases file.
A session summary with min/avg/max vitals is printed on exit.`,
	Args: cobra.ExactArgs(1),
	RunE: runMonitor,
}

var (
	monitorConnectTimeout time.Duration
	monitorJSON           bool
	monitorVerbose        bool
	monitorCapture        int
	monitorCount          int
)

func init() {
	monitorCmd.Flags().DurationVar(&monitorConnectTimeout, "connect-timeout", 30*time.Second, "Connection timeout")
	monitorCmd.Flags().BoolVar(&monitorJSON, "json", false, "Emit one JSON object per reading")
	monitorCmd.Flags().BoolVarP(&monitorVerbose, "verbose", "v", false, "Verbose output")
	monitorCmd.Flags().IntVar(&monitorCapture, "capture", 0, "Capture up to N recent raw payload bytes, hex-dumped on decode errors (0 to disable)")
	monitorCmd.Flags().IntVarP(&monitorCount, "count", "n", 0, "Stop after N readings (0 for unlimited)")
}

// reading is one handler outcome queued for the printing loop.
type reading struct {
	ts  time.Time
	m   *pulseox.Measurement
	err error
}

// subscriptionSignals forwards listener callbacks onto channels so the
// command can wait for the asynchronous CCC writes to complete.
type subscriptionSignals struct {
	subscribed   chan error
	unsubscribed chan error
}

func newSubscriptionSignals() *subscriptionSignals {
	return &subscriptionSignals{
		subscribed:   make(chan error, 1),
		unsubscribed: make(chan error, 1),
	}
}

func (s *subscriptionSignals) OnSubscribed(err error)   { s.subscribed <- err }
func (s *subscriptionSignals) OnUnsubscribed(err error) { s.unsubscribed <- err }

func runMonitor(cmd *cobra.Command, args []string) error {
	address, err := resolveDeviceAddress(cmd, args[0])
	if err != nil {
		return err
	}

	logger, err := configureLogger(cmd, "verbose")
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	ctx := context.Background()

	progress := NewProgressPrinter(fmt.Sprintf("Connecting to %s", address), "Connecting", "Failed")
	progress.Start()
	defer progress.Stop()

	dev := devicefactory.NewDevice(address, logger)
	if err := dev.Connect(ctx, &device.ConnectOptions{ConnectTimeout: monitorConnectTimeout}); err != nil {
		progress.Callback()("Failed")
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	defer func() {
		if err := dev.Disconnect(); err != nil {
			logger.WithError(err).Debug("disconnect failed")
		}
	}()

	conn, ok := dev.GetConnection().(*goble.BLEConnection)
	if !ok {
		return fmt.Errorf("unexpected connection type %T", dev.GetConnection())
	}

	transport := goble.NewBLETransport(conn, logger)

	var tr pulseox.Transport = transport
	var capture *captureTransport
	if monitorCapture > 0 {
		capture = newCaptureTransport(transport, monitorCapture)
		tr = capture
	}

	client, err := pulseox.NewClient(tr)
	if err != nil {
		return err
	}

	signals := newSubscriptionSignals()
	client.SetSubscriptionListener(signals)

	if err := client.Bind(transport.DiscoverySnapshot()); err != nil {
		return err
	}

	// Handlers run on the transport goroutine and must not block; a full
	// queue drops the reading rather than stalling indication delivery.
	readings := make(chan reading, 64)
	handler := pulseox.MeasurementHandlerFunc(func(m *pulseox.Measurement, err error) {
		select {
		case readings <- reading{ts: time.Now(), m: m, err: err}:
		default:
			logger.Warn("reading dropped: printer is falling behind")
		}
	})

	if err := client.Subscribe(handler); err != nil {
		return err
	}
	select {
	case err := <-signals.subscribed:
		if err != nil {
			return fmt.Errorf("failed to enable indications: %w", err)
		}
	case <-time.After(10 * time.Second):
		return fmt.Errorf("enabling indications: %w", device.ErrTimeout)
	}

	progress.Stop()
	fmt.Printf("Monitoring %s - press Ctrl+C to stop\n", address)

	stats := newSessionStats()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	connCtx := conn.ConnectionContext()

	var runErr error
	printed := 0
loop:
	for {
		select {
		case <-sigCh:
			fmt.Println("\nCtrl+C pressed, stopping...")
			break loop

		case <-connCtx.Done():
			runErr = ErrConnectionLost
			break loop

		case r := <-readings:
			if r.err != nil {
				stats.RecordError()
				fmt.Fprintf(os.Stderr, "bad payload: %v\n", r.err)
				if capture != nil {
					capture.Dump(os.Stderr)
				}
				continue
			}

			stats.Record(*r.m)
			if monitorJSON {
				if err := printMeasurementJSON(os.Stdout, r.ts, r.m); err != nil {
					runErr = err
					break loop
				}
			} else {
				printMeasurement(os.Stdout, r.ts, r.m)
			}

			printed++
			if monitorCount > 0 && printed >= monitorCount {
				break loop
			}
		}
	}

	// Disable indications unless the connection is already gone; the
	// deferred Disconnect handles transport teardown either way.
	if runErr != ErrConnectionLost && client.State() == pulseox.StateSubscribed {
		if err := client.Unsubscribe(); err == nil {
			select {
			case <-signals.unsubscribed:
			case <-time.After(5 * time.Second):
				logger.Warn("timed out waiting for indications to disable")
			}
		}
	}

	stats.PrintSummary(os.Stdout)
	return runErr
}
