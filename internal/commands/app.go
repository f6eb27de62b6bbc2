package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/currency"
	"github.com/cleared-dev/tally/internal/importer"
	"github.com/cleared-dev/tally/internal/logger"
	"github.com/cleared-dev/tally/internal/report"
	"github.com/cleared-dev/tally/internal/store"
	"github.com/cleared-dev/tally/internal/tier"
)

// app is the wiring shared by the commands that touch the datastore.
type app struct {
	root  string // directory holding tally.yaml
	cfg   *config.Config
	log   *zap.Logger
	store *store.Store
	tiers *tier.Service
}

// openApp loads the config at path and connects to its database.
func openApp(path string) (*app, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.Load(absPath)
	if err != nil {
		return nil, err
	}
	root := filepath.Dir(absPath)

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	st, err := store.Open(resolveDSN(cfg.Database, root), log)
	if err != nil {
		return nil, err
	}
	return &app{
		root:  root,
		cfg:   cfg,
		log:   log,
		store: st,
		tiers: tier.NewService(st, log),
	}, nil
}

func (a *app) Close() {
	_ = a.store.Close()
	_ = a.log.Sync()
}

// reports builds a report service converting with every stored exchange rate.
func (a *app) reports(ctx context.Context) (*report.Service, error) {
	rates, err := a.store.ListRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading exchange rates: %w", err)
	}
	epoch, err := a.cfg.EpochTime()
	if err != nil {
		return nil, err
	}
	return report.NewService(a.store, currency.NewRateTable(rates), a.log, report.WithEpoch(epoch)), nil
}

func (a *app) newImporter() *importer.Importer {
	return importer.New(a.store, a.tiers, a.log)
}

// resolveDSN makes a relative sqlite path relative to the workspace root.
func resolveDSN(db config.DatabaseConfig, root string) config.DatabaseConfig {
	if (db.Driver == "" || db.Driver == "sqlite") && db.DSN != ":memory:" && !filepath.IsAbs(db.DSN) {
		db.DSN = filepath.Join(root, db.DSN)
	}
	return db
}

// parseDate parses an optional YYYY-MM-DD flag value.
func parseDate(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(config.DateFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing --%s %q: %w", name, value, err)
	}
	return t, nil
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return enc.Close()
}
