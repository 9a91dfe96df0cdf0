package main

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/srg/oxim/internal/pulseox"
)

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode <hex-payload>",
	Short: "Decode a raw measurement payload offline",
	Long: `Decodes a captured 5-byte measurement payload without connecting to a
device. The payload is given as hex; spaces, colons and "0x" prefixes
are ignored:

  oxim decode "04 48 00 62 2e"
  oxim decode 0448:0062:2e`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

var decodeJSON bool

func init() {
	decodeCmd.Flags().BoolVar(&decodeJSON, "json", false, "Output as JSON")
}

// parseHexPayload accepts the common ways captured bytes get pasted.
func parseHexPayload(s string) ([]byte, error) {
	cleaned := strings.NewReplacer(" ", "", ":", "", ",", "", "0x", "", "0X", "").Replace(s)
	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("invalid hex payload %q: %w", s, err)
	}
	return data, nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	payload, err := parseHexPayload(args[0])
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	m, err := pulseox.Decode(payload)
	if err != nil {
		return err
	}

	if decodeJSON {
		return printMeasurementJSON(cmd.OutOrStdout(), time.Now(), &m)
	}
	printMeasurement(cmd.OutOrStdout(), time.Now(), &m)
	return nil
}
