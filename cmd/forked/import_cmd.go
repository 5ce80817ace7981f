package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/forkedapp/forked/internal/client/importer"
)

func init() {
	rootCmd.AddCommand(newImportCmd())
}

func newImportCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "import [FILES...]",
		Short: "Import recipe and image files into the local box",
		Args:  cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if !all && len(args) == 0 {
				fatal(errors.New("nothing to import: pass files or --all"))
			}
			if err := runImport(cmd, args, all); err != nil {
				fatal(err)
			}
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().BoolVarP(&all, "all", "a", false, "import everything in the drop directory")

	return cmd
}

func runImport(cmd *cobra.Command, args []string, all bool) error {
	a, cfg, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if all {
		sum, err := a.Importer().ImportAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%s %d imported, %d skipped from %s\n",
			green.Render("Done:"), sum.Imported, sum.Skipped, cyan.Render(cfg.Import.Dir))
		return nil
	}

	for _, path := range args {
		item, class, err := a.Importer().ImportFile(path)
		switch {
		case errors.Is(err, importer.ErrUnchanged):
			fmt.Printf("%s %s\n", gray.Render("unchanged"), path)
		case err != nil:
			return fmt.Errorf("import %q: %w", path, err)
		default:
			fmt.Printf("%s %s (%s, %s)\n",
				green.Render("imported"), item.Name, class, humanize.Bytes(uint64(len(item.Content))))
		}
	}
	return nil
}
