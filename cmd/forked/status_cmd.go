package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"resty.dev/v3"

	"github.com/forkedapp/forked/internal/client/app"
	"github.com/forkedapp/forked/internal/client/config"
	"github.com/forkedapp/forked/internal/client/handlers"
	"github.com/forkedapp/forked/internal/content"
)

func init() {
	rootCmd.AddCommand(newStatusCmd())
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show provider, container and sync state",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runStatus(cmd); err != nil {
				fatal(err)
			}
		},
	}
}

func runStatus(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	a, err := app.New(cfg)
	if errors.Is(err, app.ErrDataDirLocked) {
		// The daemon holds the data dir; ask its control plane instead.
		return printDaemonStatus(cmd.Context(), cfg)
	}
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.Provider().Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("provider status: %w", err)
	}

	fmt.Printf("%s%s\n", gray.Render("Daemon    "), lightGray.Render("stopped"))
	fmt.Printf("%s%s\n", gray.Render("Provider  "), green.Render(a.Provider().Name()))
	fmt.Printf("%s%s\n", gray.Render("Online    "), yesNo(st.Online))
	fmt.Printf("%s%s\n", gray.Render("Signed in "), yesNo(st.Authenticated))

	containerID, err := a.Store().ContainerID()
	if err != nil {
		return err
	}
	if containerID != "" {
		fmt.Printf("%s%s\n", gray.Render("Container "), green.Render(containerID))
	} else {
		fmt.Printf("%s%s\n", gray.Render("Container "), yellow.Render("none selected"))
	}

	if !st.LastSync.IsZero() {
		fmt.Printf("%s%s\n", gray.Render("Last sync "), lightGray.Render(humanize.Time(st.LastSync)))
	} else {
		fmt.Printf("%s%s\n", gray.Render("Last sync "), lightGray.Render("never"))
	}

	for _, class := range content.Classes {
		items, err := a.Store().Items(class)
		if err != nil {
			return err
		}
		fmt.Printf("%s%d\n", gray.Render(fmt.Sprintf("%-10s", class)), len(items))
	}

	return nil
}

// printDaemonStatus reads /v1/status off the running daemon's control
// plane and renders the same rows from its answer.
func printDaemonStatus(ctx context.Context, cfg *config.Config) error {
	client := resty.New().
		SetBaseURL("http://" + cfg.ControlPlane.Addr).
		SetTimeout(5 * time.Second)
	defer client.Close()

	if cfg.ControlPlane.Token != "" {
		client.SetAuthToken(cfg.ControlPlane.Token)
	}

	var status handlers.StatusResponse
	res, err := client.R().
		SetContext(ctx).
		SetResult(&status).
		Get("/v1/status")
	if err != nil {
		return fmt.Errorf("daemon holds the data dir but its control plane is not answering: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("control plane status: %s", res.Status())
	}

	fmt.Printf("%s%s\n", gray.Render("Daemon    "), green.Render("running"))
	fmt.Printf("%s%s\n", gray.Render("Version   "), lightGray.Render(status.Version))
	if status.Provider != nil {
		fmt.Printf("%s%s\n", gray.Render("Provider  "), green.Render(status.Provider.Name))
		fmt.Printf("%s%s\n", gray.Render("Online    "), yesNo(status.Provider.Online))
		fmt.Printf("%s%s\n", gray.Render("Signed in "), yesNo(status.Provider.Authenticated))
		if status.Provider.LastSync != "" {
			last := status.Provider.LastSync
			if t, err := time.Parse(time.RFC3339, last); err == nil {
				last = humanize.Time(t)
			}
			fmt.Printf("%s%s\n", gray.Render("Last sync "), lightGray.Render(last))
		}
	}
	if status.Sync != nil {
		fmt.Printf("%s%s\n", gray.Render("Syncing   "), yesNo(status.Sync.Running))
	}

	return nil
}
