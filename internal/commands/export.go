package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/importer"
)

func newExportCommand(configPath *string) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored data as CSV in the import format",
	}
	exportCmd.AddCommand(
		&cobra.Command{
			Use:   "tiers",
			Short: "Export the live tiers",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp(*configPath)
				if err != nil {
					return err
				}
				defer a.Close()

				tiers, err := a.tiers.List(cmd.Context(), nil)
				if err != nil {
					return err
				}
				return importer.WriteTiers(cmd.OutOrStdout(), tiers)
			},
		},
		&cobra.Command{
			Use:   "rates",
			Short: "Export the exchange rates",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp(*configPath)
				if err != nil {
					return err
				}
				defer a.Close()

				rates, err := a.store.ListRates(cmd.Context())
				if err != nil {
					return err
				}
				return importer.WriteRates(cmd.OutOrStdout(), rates)
			},
		},
	)
	return exportCmd
}
