package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forkedapp/forked/internal/content"
	"github.com/forkedapp/forked/internal/recipemd"
)

func init() {
	rootCmd.AddCommand(newShowCmd())
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Print a recipe from the local box",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := runShow(cmd, args[0]); err != nil {
				fatal(err)
			}
		},
	}
}

func runShow(cmd *cobra.Command, name string) error {
	a, _, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	items, err := a.Store().Items(content.ClassRecipes)
	if err != nil {
		return err
	}

	item, ok := items.Get(name)
	if !ok {
		return fmt.Errorf("recipe %q not found", name)
	}

	recipe, err := recipemd.Parse(item.Content)
	if err != nil {
		// No longer valid front-matter markdown; show it raw.
		fmt.Print(string(item.Content))
		return nil
	}

	fmt.Println(cyan.Bold(true).Render(recipe.Title(item.Name)))
	if len(recipe.Meta.Tags) > 0 {
		fmt.Println(gray.Render(strings.Join(recipe.Meta.Tags, ", ")))
	}
	fmt.Println()
	fmt.Println(strings.TrimSpace(recipe.Body))
	return nil
}
