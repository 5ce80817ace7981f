package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/forkedapp/forked/internal/client/config"
	"github.com/forkedapp/forked/internal/utils"
)

// configPath picks the config file for this invocation: an explicit
// --config flag wins, then the FORKED_CONFIG_PATH variable, then
// whichever known location already holds a file.
func configPath(cmd *cobra.Command) string {
	if f := cmd.Flag("config"); f != nil && f.Changed {
		return f.Value.String()
	}

	if p := os.Getenv("FORKED_CONFIG_PATH"); p != "" {
		return p
	}

	if utils.FileExists(config.DefaultConfigPath) {
		return config.DefaultConfigPath
	}
	if xdg := filepath.Join(home, ".config", "forked", "config.json"); utils.FileExists(xdg) {
		return xdg
	}

	return config.DefaultConfigPath
}
