package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/forkedapp/forked/internal/client/app"
	"github.com/forkedapp/forked/internal/client/config"
	"github.com/forkedapp/forked/internal/utils"
	"github.com/forkedapp/forked/internal/version"
)

var home, _ = os.UserHomeDir()

// configKeys are the settings loadConfig binds to FORKED_* env vars.
// AutomaticEnv alone does not surface env values through Unmarshal, so
// every known key is bound explicitly.
var configKeys = []string{
	"data_dir",
	"email",
	"provider",
	"drive.base_url",
	"drive.auth_url",
	"drive.client_id",
	"drive.email",
	"s3.bucket",
	"s3.region",
	"s3.prefix",
	"s3.access_key",
	"s3.secret_key",
	"s3.endpoint",
	"sync.interval",
	"control_plane.addr",
	"control_plane.token",
	"import.dir",
	"import.watch",
}

var rootCmd = &cobra.Command{
	Use:     "forked",
	Short:   "Forked keeps your recipe box in sync across devices",
	Version: version.Long(),
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "Forked config file")
}

func main() {
	_ = godotenv.Load()

	// TODO rotate the log and give each instance its own file
	logFile := config.DefaultLogFile

	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create log directory: %v\n", err)
		os.Exit(1)
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	stderrHandler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	slog.SetDefault(slog.New(utils.NewTeeHandler(stderrHandler, fileHandler)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig builds the effective config for a command: the resolved
// config file first, FORKED_* env vars on top, defaults for the rest.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath(cmd)
	viper.SetConfigFile(path)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return nil, fmt.Errorf("config read %q: %w", path, err)
		}
	}

	viper.SetEnvPrefix("FORKED")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range configKeys {
		if err := viper.BindEnv(key); err != nil {
			return nil, err
		}
	}

	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config parse %q: %w", path, err)
	}

	cfg.Path = path
	cfg.ApplyDefaults()
	return cfg, nil
}

// openApp builds the client app from the resolved config. The data-dir
// lock means this fails while the daemon is running.
func openApp(cmd *cobra.Command) (*app.App, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(cfg)
	if errors.Is(err, app.ErrDataDirLocked) {
		return nil, nil, fmt.Errorf("%w. stop the daemon and retry", err)
	}
	if err != nil {
		return nil, nil, err
	}
	return a, cfg, nil
}
