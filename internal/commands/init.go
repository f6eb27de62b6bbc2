package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

type initOptions struct {
	driver   string
	dsn      string
	currency string
}

func newInitCommand() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new tally workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.driver, "driver", "sqlite", "database driver (sqlite or postgres)")
	cmd.Flags().StringVar(&opts.dsn, "dsn", "", "database file or connection string (default tally.db for sqlite)")
	cmd.Flags().StringVar(&opts.currency, "currency", "USD", "host currency for reports")

	return cmd
}

func runInit(out io.Writer, dir string, opts initOptions) error {
	cfgPath := filepath.Join(dir, DefaultConfigFile)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	cfg := config.Default()
	cfg.Database.Driver = opts.driver
	if opts.dsn != "" {
		cfg.Database.DSN = opts.dsn
	} else if opts.driver != "sqlite" {
		return fmt.Errorf("--dsn is required for driver %q", opts.driver)
	}
	cfg.Reporting.HostCurrency = model.NormalizeCurrency(opts.currency)

	// Create directory structure.
	if err := os.MkdirAll(filepath.Join(dir, "import", "processed"), 0o755); err != nil {
		return fmt.Errorf("creating import directory: %w", err)
	}

	// Create and migrate the database.
	st, err := store.Open(resolveDSN(cfg.Database, dir), zap.NewNop())
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(); err != nil {
		return err
	}

	// Write tally.yaml.
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write import/.gitkeep.
	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	// Keep the sqlite file out of version control.
	if cfg.Database.Driver == "sqlite" {
		gitignore := cfg.Database.DSN + "\n"
		if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
			return fmt.Errorf("writing .gitignore: %w", err)
		}
	}

	fmt.Fprintf(out, "Initialized tally workspace at %s\n", dir)
	return nil
}
