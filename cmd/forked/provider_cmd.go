package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forkedapp/forked/internal/client/app"
)

func init() {
	providerCmd := newProviderCmd()
	providerCmd.AddCommand(newProviderListCmd())
	rootCmd.AddCommand(providerCmd)
}

func newProviderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "provider",
		Short: "Inspect the available sync providers",
	}
}

func newProviderListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered providers",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runProviderList(cmd); err != nil {
				fatal(err)
			}
		},
	}
}

func runProviderList(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Registry construction needs no store or lock, so this works while
	// the daemon is running.
	reg, err := app.NewRegistry(cfg)
	if err != nil {
		return err
	}

	for _, name := range reg.Names() {
		marker := " "
		if name == cfg.Provider {
			marker = green.Render("*")
		}
		fmt.Printf("%s %s\n", marker, name)
	}
	return nil
}
