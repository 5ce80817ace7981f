package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newLogoutCmd())
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the stored credential and sign out",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runLogout(cmd); err != nil {
				fatal(err)
			}
		},
	}
}

func runLogout(cmd *cobra.Command) error {
	a, _, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Provider().SignOut(cmd.Context()); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	fmt.Println(green.Render("Signed out"))
	return nil
}
