package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	containerCmd := newContainerCmd()
	containerCmd.AddCommand(newContainerListCmd())
	containerCmd.AddCommand(newContainerUseCmd())
	rootCmd.AddCommand(containerCmd)
}

func newContainerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "container",
		Short: "Manage the remote container synced against",
	}
}

func newContainerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List containers on the provider",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runContainerList(cmd); err != nil {
				fatal(err)
			}
		},
	}
}

func newContainerUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use NAME",
		Short: "Select the container to sync with, creating it if needed",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := runContainerUse(cmd, args[0]); err != nil {
				fatal(err)
			}
		},
	}
}

func runContainerList(cmd *cobra.Command) error {
	a, _, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	containers, err := a.Provider().Containers(cmd.Context())
	if err != nil {
		return loginHint(err)
	}
	if len(containers) == 0 {
		fmt.Printf("No containers on %s yet. create one with %s\n",
			a.Provider().Name(), cyan.Render("forked container use <name>"))
		return nil
	}

	selected, err := a.Store().ContainerID()
	if err != nil {
		return err
	}

	for _, c := range containers {
		marker := " "
		if c.ID == selected {
			marker = green.Render("*")
		}
		fmt.Printf("%s %s %s\n", marker, green.Render(fmt.Sprintf("%-24s", c.Name)), gray.Render(c.ID))
	}
	return nil
}

func runContainerUse(cmd *cobra.Command, name string) error {
	a, _, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.Provider().EnsureContainer(cmd.Context(), name)
	if err != nil {
		return loginHint(err)
	}

	if err := a.Store().SetContainerID(c.ID); err != nil {
		return err
	}

	fmt.Printf("Using container %s %s\n", green.Render(c.Name), gray.Render(c.ID))
	return nil
}
