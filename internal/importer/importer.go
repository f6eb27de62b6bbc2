// Package importer loads transactions, tiers and exchange rates from CSV files
// dropped in a workspace's import directory.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/cleared-dev/tally/internal/model"
)

// Kind is what a CSV file holds, taken from its file name prefix.
type Kind string

const (
	KindTransactions Kind = "transactions"
	KindTiers        Kind = "tiers"
	KindRates        Kind = "rates"
)

// KindOf returns the kind of a CSV file from its name, e.g.
// "transactions-2017-01.csv" -> KindTransactions.
func KindOf(fileName string) (Kind, bool) {
	name := strings.ToLower(filepath.Base(fileName))
	for _, k := range []Kind{KindTransactions, KindTiers, KindRates} {
		if strings.HasPrefix(name, string(k)) {
			return k, true
		}
	}
	return "", false
}

// FileInfo describes a CSV file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
	Kind Kind
}

// Sink stores imported rows.
type Sink interface {
	CreateTransactions(ctx context.Context, txns []model.Transaction) error
	SaveRates(ctx context.Context, rates []model.ExchangeRate) error
}

// TierCreator creates imported tiers.
type TierCreator interface {
	CreateMany(ctx context.Context, tiers []model.Tier, defaults model.Tier) ([]model.Tier, error)
}

// Importer parses CSV files and hands their rows to the datastore.
type Importer struct {
	sink  Sink
	tiers TierCreator
	log   *zap.Logger
}

// New creates an Importer.
func New(sink Sink, tiers TierCreator, log *zap.Logger) *Importer {
	return &Importer{sink: sink, tiers: tiers, log: log.Named("import")}
}

// Result counts the rows imported from one file.
type Result struct {
	File string `yaml:"file"`
	Kind Kind   `yaml:"kind"`
	Rows int    `yaml:"rows"`
}

// ImportFile imports a single CSV file, picking the codec from its name.
func (im *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	kind, ok := KindOf(path)
	if !ok {
		return Result{}, fmt.Errorf("%s: file name must start with transactions, tiers or rates", filepath.Base(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	res, err := im.Import(ctx, kind, f)
	if err != nil {
		return res, fmt.Errorf("importing %s: %w", filepath.Base(path), err)
	}
	res.File = filepath.Base(path)
	im.log.Info("imported", zap.String("file", res.File), zap.String("kind", string(kind)), zap.Int("rows", res.Rows))
	return res, nil
}

// Import reads rows of the given kind from r and stores them.
func (im *Importer) Import(ctx context.Context, kind Kind, r io.Reader) (Result, error) {
	res := Result{Kind: kind}
	switch kind {
	case KindTransactions:
		txns, err := ReadTransactions(r)
		if err != nil {
			return res, err
		}
		if err := im.sink.CreateTransactions(ctx, txns); err != nil {
			return res, err
		}
		res.Rows = len(txns)
	case KindRates:
		rates, err := ReadRates(r)
		if err != nil {
			return res, err
		}
		if err := im.sink.SaveRates(ctx, rates); err != nil {
			return res, err
		}
		res.Rows = len(rates)
	case KindTiers:
		tiers, err := ReadTiers(r)
		if err != nil {
			return res, err
		}
		created, err := im.tiers.CreateMany(ctx, tiers, model.Tier{})
		res.Rows = len(created)
		if err != nil {
			return res, err
		}
	default:
		return res, fmt.Errorf("unknown import kind %q", kind)
	}
	return res, nil
}

// importDir is the subdirectory for import CSVs.
const importDir = "import"

// processedDir is the subdirectory for processed CSVs.
const processedDir = "import/processed"

// Scan returns the importable CSV files in <root>/import/, in name order.
// Files whose name matches no kind are skipped.
func Scan(root string) ([]FileInfo, error) {
	dir := filepath.Join(root, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		kind, ok := KindOf(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
			Kind: kind,
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(root, fileName string) error {
	src := filepath.Join(root, importDir, fileName)
	dstDir := filepath.Join(root, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
