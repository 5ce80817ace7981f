package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/forkedapp/forked/internal/client"
	"github.com/forkedapp/forked/internal/client/config"
	"github.com/forkedapp/forked/internal/version"
)

func init() {
	rootCmd.AddCommand(newDaemonCmd())
}

func newDaemonCmd() *cobra.Command {
	var addr string
	var token string
	var interval time.Duration
	var watch bool

	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the Forked sync daemon",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig(cmd)
			if err != nil {
				fatal(err)
			}

			// Flags override config only when set explicitly.
			if cmd.Flags().Changed("http-addr") {
				cfg.ControlPlane.Addr = addr
			}
			if cmd.Flags().Changed("http-token") {
				cfg.ControlPlane.Token = token
			}
			if cmd.Flags().Changed("sync-interval") {
				cfg.Sync.Interval = interval
			}
			if cmd.Flags().Changed("watch") {
				cfg.Import.Watch = watch
			}

			showHeader()
			slog.Info("forked", "version", version.Version, "revision", version.Revision, "build", version.BuildDate)
			slog.Info("daemon config", "path", cfg.Path)

			daemon, err := client.NewDaemon(cfg)
			if err != nil {
				fatal(err)
			}

			defer slog.Info("daemon stopped")
			if err := daemon.Start(cmd.Context()); err != nil {
				fatal(err)
			}
		},
	}

	daemonCmd.Flags().SortFlags = false
	daemonCmd.Flags().StringVarP(&addr, "http-addr", "a", config.DefaultControlPlaneAddr, "Address to bind the local control plane")
	daemonCmd.Flags().StringVarP(&token, "http-token", "t", "", "Access token for the local control plane")
	daemonCmd.Flags().DurationVarP(&interval, "sync-interval", "i", config.DefaultSyncInterval, "Interval between sync sessions")
	daemonCmd.Flags().BoolVarP(&watch, "watch", "w", false, "Watch the import drop directory")

	return daemonCmd
}
