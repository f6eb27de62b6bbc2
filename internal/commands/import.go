package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/importer"
)

func newImportCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file...]",
		Short: "Import transactions, tiers or exchange rates from CSV",
		Long: `Import CSV files. The file name prefix selects what it holds:
transactions*.csv, tiers*.csv or rates*.csv.

Without arguments every matching file in import/ is imported and then moved
to import/processed/.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			im := a.newImporter()
			ctx := cmd.Context()

			// Explicit files are imported in place.
			if len(args) > 0 {
				for _, path := range args {
					res, err := im.ImportFile(ctx, path)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d %s\n", res.File, res.Rows, res.Kind)
				}
				return nil
			}

			// Otherwise drain import/, moving each file once it is stored.
			files, err := importer.Scan(a.root)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to import")
				return nil
			}
			for _, f := range files {
				res, err := im.ImportFile(ctx, f.Path)
				if err != nil {
					return err
				}
				if err := importer.MarkProcessed(a.root, f.Name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d %s\n", res.File, res.Rows, res.Kind)
			}
			return nil
		},
	}
}
