package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/forkedapp/forked/internal/client/app"
	"github.com/forkedapp/forked/internal/client/config"
	"github.com/forkedapp/forked/internal/creds"
	"github.com/forkedapp/forked/internal/provider/drive"
)

func init() {
	rootCmd.AddCommand(newLoginCmd())
}

func newLoginCmd() *cobra.Command {
	var email string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the configured provider",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runLogin(cmd, email, quiet); err != nil {
				fatal(err)
			}
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email for the provider")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "disable output")

	return cmd
}

func runLogin(cmd *cobra.Command, email string, quiet bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if email != "" {
		cfg.Email = email
		cfg.Drive.Email = email
	}

	signedIn, err := checkSignedIn(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if signedIn {
		if !quiet {
			fmt.Println(green.Render("Already signed in"))
			printConfig(cfg)
		}
		return nil
	}

	if cfg.Provider == drive.ProviderName {
		err = runDriveLogin(cmd.Context(), cfg)
	} else {
		err = signInDirect(cmd.Context(), cfg)
	}
	if err != nil {
		return err
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	if !quiet {
		fmt.Println(green.Render("Signed in"))
		printConfig(cfg)
	}
	return nil
}

// checkSignedIn reports whether the provider already accepts our
// credential. It opens and closes its own app so the sign-in flow can
// take the data-dir lock afterwards.
func checkSignedIn(ctx context.Context, cfg *config.Config) (bool, error) {
	a, err := app.New(cfg)
	if err != nil {
		if errors.Is(err, app.ErrDataDirLocked) {
			return false, fmt.Errorf("%w. stop the daemon and retry", err)
		}
		return false, err
	}
	defer a.Close()

	return a.Provider().AuthCheck(ctx) == nil, nil
}

func runDriveLogin(ctx context.Context, cfg *config.Config) error {
	runner := &signInRunner{cfg: cfg}
	defer runner.close()

	return RunLoginTUI(ctx, LoginTUIOpts{
		Email:      cfg.Email,
		ServerURL:  cfg.Drive.BaseURL,
		DataDir:    cfg.DataDir,
		ConfigPath: cfg.Path,
		Start:      runner.start,
	})
}

// signInDirect verifies credentials for providers without an
// interactive flow; their grant lives in config or the environment.
func signInDirect(ctx context.Context, cfg *config.Config) error {
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	prompt := creds.ConsentFunc(func(info creds.ConsentInfo) error {
		fmt.Printf("Visit %s and enter code %s\n", cyan.Render(info.VerificationURL), green.Render(info.UserCode))
		return nil
	})
	return a.Provider().SignIn(ctx, prompt)
}

// signInRunner drives the provider sign-in behind the TUI. The app it
// builds holds the data-dir lock, so the command closes the runner
// once the TUI is done.
type signInRunner struct {
	cfg *config.Config

	mu    sync.Mutex
	app   *app.App
	email string
}

// start launches sign-in for the submitted email. Events land on the
// TUI's channel, which is buffered so an abandoned TUI never strands
// this goroutine.
func (r *signInRunner) start(ctx context.Context, email string, events chan<- tea.Msg) {
	go func() {
		a, err := r.ensureApp(email)
		if err != nil {
			events <- signInDoneMsg{err: err}
			return
		}

		prompt := creds.ConsentFunc(func(info creds.ConsentInfo) error {
			events <- consentMsg{info: info}
			return nil
		})
		events <- signInDoneMsg{err: a.Provider().SignIn(ctx, prompt)}
	}()
}

// ensureApp builds the app for an email, replacing a previous attempt
// if the user went back and changed the address.
func (r *signInRunner) ensureApp(email string) (*app.App, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.app != nil && r.email != email {
		r.app.Close()
		r.app = nil
	}
	if r.app == nil {
		r.cfg.Email = email
		r.cfg.Drive.Email = email
		a, err := app.New(r.cfg)
		if err != nil {
			return nil, err
		}
		r.app = a
		r.email = email
	}
	return r.app, nil
}

func (r *signInRunner) close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.app != nil {
		r.app.Close()
		r.app = nil
	}
}
