package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/forkedapp/forked/internal/content"
	"github.com/forkedapp/forked/internal/recipemd"
)

func init() {
	rootCmd.AddCommand(newListCmd())
}

func newListCmd() *cobra.Command {
	var classFlag string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recipes or images in the local box",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runList(cmd, classFlag); err != nil {
				fatal(err)
			}
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVar(&classFlag, "class", string(content.ClassRecipes), "content class to list (recipes|images)")

	return cmd
}

func runList(cmd *cobra.Command, classFlag string) error {
	class, err := content.ParseClass(classFlag)
	if err != nil {
		return err
	}

	a, _, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	items, err := a.Store().Items(class)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Printf("No %s in the local box yet\n", class)
		return nil
	}

	for _, it := range items.Sorted() {
		meta := fmt.Sprintf("%s, %s",
			humanize.Bytes(uint64(len(it.Content))),
			humanize.Time(time.UnixMilli(it.LastModified)))

		if class == content.ClassRecipes {
			title := it.Name
			if recipe, err := recipemd.Parse(it.Content); err == nil {
				title = recipe.Title(it.Name)
			}
			fmt.Printf("%s %-32s %s\n", green.Render(fmt.Sprintf("%-28s", it.Name)), title, gray.Render(meta))
		} else {
			fmt.Printf("%s %s\n", green.Render(fmt.Sprintf("%-28s", it.Name)), gray.Render(meta))
		}
	}
	return nil
}
