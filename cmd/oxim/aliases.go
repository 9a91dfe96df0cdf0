package main

import (
	"github.com/spf13/cobra"
	"github.com/srg/oxim/pkg/config"
)

// loadAliases reads the alias file named by the persistent --aliases flag.
// Returns nil when the flag is unset; commands then use addresses as given.
func loadAliases(cmd *cobra.Command) (*config.AliasFile, error) {
	path, _ := cmd.Flags().GetString("aliases")
	if path == "" {
		return nil, nil
	}
	return config.LoadAliasFile(path)
}

// resolveDeviceAddress maps an alias to its configured address, or returns
// the argument unchanged when no alias file is in use or the name is unknown.
func resolveDeviceAddress(cmd *cobra.Command, nameOrAddress string) (string, error) {
	aliases, err := loadAliases(cmd)
	if err != nil {
		return "", err
	}
	return aliases.Resolve(nameOrAddress), nil
}
