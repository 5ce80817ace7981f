package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/forkedapp/forked/internal/content"
	"github.com/forkedapp/forked/internal/creds"
	"github.com/forkedapp/forked/internal/provider"
	"github.com/forkedapp/forked/internal/sync"
)

func init() {
	rootCmd.AddCommand(newSyncCmd())
}

func newSyncCmd() *cobra.Command {
	var classFlag string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync session now",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runSyncOnce(cmd, classFlag); err != nil {
				fatal(err)
			}
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVar(&classFlag, "class", "", "sync a single class (recipes|images)")

	return cmd
}

func runSyncOnce(cmd *cobra.Command, classFlag string) error {
	var class content.Class
	if classFlag != "" {
		parsed, err := content.ParseClass(classFlag)
		if err != nil {
			return err
		}
		class = parsed
	}

	a, _, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	obs := sync.ObserverFunc(printProgress)

	var res *sync.Result
	if class != "" {
		res = a.Engine().SyncClass(cmd.Context(), class, obs)
	} else {
		res = a.Engine().Sync(cmd.Context(), obs)
	}

	if !res.Success {
		switch {
		case strings.Contains(res.Error, creds.ErrReauthRequired.Error()),
			strings.Contains(res.Error, creds.ErrNoCredential.Error()):
			return fmt.Errorf("not signed in. run %s first", cyan.Render("forked login"))
		case strings.Contains(res.Error, sync.ErrNoContainer.Error()),
			strings.Contains(res.Error, provider.ErrSelectionRequired.Error()):
			return fmt.Errorf("no container selected. run %s first", cyan.Render("forked container use <name>"))
		default:
			return errors.New(res.Error)
		}
	}

	fmt.Printf("%s %d uploaded, %d downloaded in %s\n",
		green.Render("Synced:"), res.Uploaded, res.Downloaded, res.Duration.Round(time.Millisecond))
	return nil
}

// printProgress renders engine progress as one line per step.
func printProgress(e sync.Event) {
	switch e.Status {
	case sync.PhaseClassify:
		if e.Details != nil {
			fmt.Printf("%s %d to upload, %d to download, %d up to date\n",
				gray.Render(string(e.Class)+":"), e.Details.ToUpload, e.Details.ToDownload, e.Details.Skipped)
		}
	case sync.PhaseUpload:
		if e.Current != "" {
			fmt.Printf("%s %s\n", cyan.Render("up"), e.Current)
		}
	case sync.PhaseDownload:
		if e.Current != "" {
			fmt.Printf("%s %s\n", cyan.Render("down"), e.Current)
		}
	}
}
