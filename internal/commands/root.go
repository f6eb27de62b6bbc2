package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/buildinfo"
)

// DefaultConfigFile is the config file looked up when --config is not given.
const DefaultConfigFile = "tally.yaml"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "tally",
		Short:   "Multi-currency host reporting and tier inventory",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", DefaultConfigFile, "path to tally.yaml")

	rootCmd.AddCommand(
		newInitCommand(),
		newImportCommand(&configPath),
		newReportCommand(&configPath),
		newTierCommand(&configPath),
		newGroupCommand(&configPath),
		newEventCommand(&configPath),
		newExportCommand(&configPath),
	)

	return rootCmd
}
