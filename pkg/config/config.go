package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	LogLevel      logrus.Level  `json:"log_level"`
	ScanTimeout   time.Duration `json:"scan_timeout"`
	DeviceTimeout time.Duration `json:"device_timeout"`
	OutputFormat  string        `json:"output_format"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	return &Config{
		LogLevel:      logrus.InfoLevel,
		ScanTimeout:   10 * time.Second,
		DeviceTimeout: 30 * time.Second,
		OutputFormat:  "table", // table, json, csv
	}
}

// AliasFile maps user-defined device names to peripheral addresses, loaded
// from a YAML file passed via --aliases.
//
//	output_format: table
//	devices:
//	  bedside: "AA:BB:CC:DD:EE:FF"
//	  clinic:  "11:22:33:44:55:66"
type AliasFile struct {
	OutputFormat string            `yaml:"output_format" default:"table"`
	Devices      map[string]string `yaml:"devices"`
}

// LoadAliasFile reads and parses an alias YAML file. Unset fields receive
// their defaults.
func LoadAliasFile(path string) (*AliasFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias file: %w", err)
	}

	af := &AliasFile{}
	defaults.SetDefaults(af)
	if err := yaml.Unmarshal(data, af); err != nil {
		return nil, fmt.Errorf("failed to parse alias file %s: %w", path, err)
	}
	return af, nil
}

// Resolve maps a device name to its configured address. Anything that is not
// a known alias passes through unchanged, so raw addresses keep working.
// Alias lookup is case-insensitive.
func (a *AliasFile) Resolve(name string) string {
	if a == nil {
		return name
	}
	if addr, ok := a.Devices[name]; ok {
		return addr
	}
	for alias, addr := range a.Devices {
		if strings.EqualFold(alias, name) {
			return addr
		}
	}
	return name
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)

	// Use structured logging format
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
