package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/forkedapp/forked/internal/client/config"
	"github.com/forkedapp/forked/internal/creds"
	"github.com/forkedapp/forked/internal/provider/drive"
	"github.com/forkedapp/forked/internal/provider/s3"
	"github.com/forkedapp/forked/internal/utils"
)

// fg builds a style for one of the 256 ANSI palette colors.
func fg(ansi string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(ansi))
}

var (
	red       = fg("9")
	green     = fg("10")
	yellow    = fg("11")
	cyan      = fg("14")
	gray      = fg("242")
	lightGray = fg("248")
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "%s %s\n", red.Render("error:"), err)
	os.Exit(1)
}

func showHeader() {
	color.New(color.FgHiCyan, color.Bold).Print(utils.Art + "\n")
}

func yesNo(v bool) string {
	if v {
		return green.Render("yes")
	}
	return red.Render("no")
}

// loginHint decorates credential failures with the command that fixes
// them.
func loginHint(err error) error {
	if errors.Is(err, creds.ErrReauthRequired) || errors.Is(err, creds.ErrNoCredential) {
		return fmt.Errorf("%w. sign in with `forked login`", err)
	}
	return err
}

func printConfig(cfg *config.Config) {
	fmt.Printf("%s%s\n", gray.Render("Config    "), green.Render(cfg.Path))
	fmt.Printf("%s%s\n", gray.Render("Data      "), green.Render(cfg.DataDir))
	fmt.Printf("%s%s\n", gray.Render("Provider  "), green.Render(cfg.Provider))
	if cfg.Email != "" {
		fmt.Printf("%s%s\n", gray.Render("Email     "), green.Render(cfg.Email))
	}
	switch cfg.Provider {
	case drive.ProviderName:
		fmt.Printf("%s%s\n", gray.Render("Cloud     "), green.Render(cfg.Drive.BaseURL))
	case s3.ProviderName:
		fmt.Printf("%s%s\n", gray.Render("Bucket    "), green.Render(cfg.S3.Bucket))
	}
}
