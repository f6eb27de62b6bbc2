package commands_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/commands"
	"github.com/cleared-dev/tally/internal/importer"
)

func runTally(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := commands.NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func initWorkspace(t *testing.T, extra ...string) (dir, cfg string) {
	t.Helper()
	dir = t.TempDir()
	_, err := runTally(t, append([]string{"init", dir}, extra...)...)
	require.NoError(t, err)
	return dir, filepath.Join(dir, "tally.yaml")
}

func copyFixture(t *testing.T, name, dstDir string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dstDir, name), data, 0o644))
}

func TestInit_CreatesStructure(t *testing.T) {
	dir, _ := initWorkspace(t)

	for _, d := range []string{"import", filepath.Join("import", "processed")} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
	for _, f := range []string{"tally.yaml", "tally.db", ".gitignore", filepath.Join("import", ".gitkeep")} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "file %s should exist", f)
	}
}

func TestInit_Config(t *testing.T) {
	dir, _ := initWorkspace(t, "--currency", "eur")

	data, err := os.ReadFile(filepath.Join(dir, "tally.yaml"))
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "driver: sqlite")
	assert.Contains(t, contents, "dsn: tally.db")
	assert.Contains(t, contents, "host_currency: EUR")
}

func TestInit_Twice(t *testing.T) {
	dir, _ := initWorkspace(t)
	_, err := runTally(t, "init", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInit_PostgresNeedsDSN(t *testing.T) {
	dir := t.TempDir()
	_, err := runTally(t, "init", dir, "--driver", "postgres")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--dsn is required")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is written before the options are checked")
}

func TestMissingConfig(t *testing.T) {
	_, err := runTally(t, "tier", "list", "--config", filepath.Join(t.TempDir(), "tally.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestImport_ScansAndMovesFiles(t *testing.T) {
	dir, cfg := initWorkspace(t)
	importDir := filepath.Join(dir, "import")
	for _, name := range []string{"transactions_2017_01.csv", "tiers.csv", "rates.csv"} {
		copyFixture(t, name, importDir)
	}

	out, err := runTally(t, "import", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "rates.csv: 3 rates")
	assert.Contains(t, out, "tiers.csv: 3 tiers")
	assert.Contains(t, out, "transactions_2017_01.csv: 4 transactions")

	for _, name := range []string{"transactions_2017_01.csv", "tiers.csv", "rates.csv"} {
		_, err := os.Stat(filepath.Join(importDir, name))
		assert.True(t, os.IsNotExist(err), "%s should have moved", name)
		_, err = os.Stat(filepath.Join(importDir, "processed", name))
		assert.NoError(t, err)
	}

	out, err = runTally(t, "import", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "Nothing to import\n", out)
}

func importedWorkspace(t *testing.T) string {
	t.Helper()
	dir, cfg := initWorkspace(t)
	for _, name := range []string{"transactions_2017_01.csv", "tiers.csv", "rates.csv"} {
		copyFixture(t, name, filepath.Join(dir, "import"))
	}
	_, err := runTally(t, "import", "--config", cfg)
	require.NoError(t, err)
	return cfg
}

func TestReport_Totals(t *testing.T) {
	cfg := importedWorkspace(t)

	// EUR converts at 1.05, effective on the end date.
	out, err := runTally(t, "report", "host-fees", "--config", cfg,
		"--groups", "1,2", "--from", "2017-01-01", "--to", "2017-02-01")
	require.NoError(t, err)
	assert.Contains(t, out, "currency: EUR")
	assert.Contains(t, out, "total_in_host_currency: 131")

	out, err = runTally(t, "report", "net-amount", "--config", cfg,
		"--groups", "1", "--type", "DONATION", "--from", "2017-01-01", "--to", "2017-02-01")
	require.NoError(t, err)
	assert.Contains(t, out, "total_in_host_currency: 1525")

	_, err = runTally(t, "report", "host-fees", "--config", cfg, "--from", "2017-01-01")
	assert.Error(t, err, "--groups is required")

	_, err = runTally(t, "report", "host-fees", "--config", cfg, "--groups", "1",
		"--from", "2017-02-01", "--to", "2017-01-01")
	assert.ErrorContains(t, err, "is before")
}

func TestReport_MissingRate(t *testing.T) {
	dir, cfg := initWorkspace(t)
	copyFixture(t, "transactions_2017_01.csv", filepath.Join(dir, "import"))
	_, err := runTally(t, "import", "--config", cfg)
	require.NoError(t, err)

	_, err = runTally(t, "report", "host-fees", "--config", cfg, "--groups", "1",
		"--from", "2017-01-01", "--to", "2017-02-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EUR")
}

func TestReport_Backers(t *testing.T) {
	cfg := importedWorkspace(t)

	out, err := runTally(t, "report", "backers", "--config", cfg, "--from", "2017-01-01", "--to", "2017-02-01")
	require.NoError(t, err)
	assert.Contains(t, out, "total: 3")
	assert.Contains(t, out, "new: 3")
	assert.Contains(t, out, "repeat: 0")

	out, err = runTally(t, "report", "backers", "--config", cfg, "--groups", "2", "--from", "2017-01-01", "--to", "2017-02-01")
	require.NoError(t, err)
	assert.Contains(t, out, "total: 1")
}

func TestReport_Host(t *testing.T) {
	cfg := importedWorkspace(t)

	out, err := runTally(t, "report", "hosted-groups", "--config", cfg, "--host", "7")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)

	out, err = runTally(t, "report", "host", "--config", cfg, "--host", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "host_id: 7")
	assert.Contains(t, out, "total_in_host_currency: 0")
}

func TestTier_Lifecycle(t *testing.T) {
	cfg := importedWorkspace(t)

	out, err := runTally(t, "tier", "list", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "name: Early Bird")
	assert.Contains(t, out, "name: VIP Pass")
	assert.NotContains(t, out, "password")

	out, err = runTally(t, "tier", "list", "--config", cfg, "--event", "3")
	require.NoError(t, err)
	assert.NotContains(t, out, "Monthly Backer")

	out, err = runTally(t, "tier", "available", "1", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "early-bird: 50\n", out)

	out, err = runTally(t, "tier", "available", "3", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "monthly-backer: unlimited\n", out)

	out, err = runTally(t, "tier", "reserve", "1", "--user", "5", "--quantity", "2", "--config", cfg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Reserved 2 of tier 1 for user 5"))

	_, err = runTally(t, "tier", "reserve", "1", "--user", "5", "--config", cfg)
	assert.ErrorContains(t, err, "per-user quantity exceeded")

	out, err = runTally(t, "tier", "available", "1", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "early-bird: 48\n", out)

	_, err = runTally(t, "tier", "reserve", "2", "--user", "6", "--quantity", "11", "--config", cfg)
	assert.ErrorContains(t, err, "sold out")

	_, err = runTally(t, "tier", "delete", "2", "--config", cfg)
	require.NoError(t, err)
	out, err = runTally(t, "tier", "list", "--config", cfg)
	require.NoError(t, err)
	assert.NotContains(t, out, "VIP Pass")

	_, err = runTally(t, "tier", "delete", "2", "--config", cfg)
	assert.ErrorContains(t, err, "tier not found")

	_, err = runTally(t, "tier", "available", "abc", "--config", cfg)
	assert.ErrorContains(t, err, "invalid tier id")
}

func TestTier_Update(t *testing.T) {
	cfg := importedWorkspace(t)

	out, err := runTally(t, "tier", "update", "1", "--config", cfg,
		"--name", "Earlier Bird", "--amount", "1200", "--currency", "eur", "--max-quantity", "40")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Earlier Bird")
	assert.Contains(t, out, "amount: 1200")
	assert.Contains(t, out, "currency: EUR")
	assert.Contains(t, out, "description: First 50 seats", "unset flags keep their value")

	out, err = runTally(t, "tier", "available", "1", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "early-bird: 40\n", out, "slug survives a rename")

	_, err = runTally(t, "tier", "update", "1", "--config", cfg, "--name", "")
	assert.ErrorContains(t, err, "invalid tier")

	_, err = runTally(t, "tier", "delete", "1", "--config", cfg)
	require.NoError(t, err)
	_, err = runTally(t, "tier", "update", "1", "--config", cfg, "--amount", "1")
	assert.ErrorContains(t, err, "tier not found")
}

func TestGroupAndEvent(t *testing.T) {
	cfg := importedWorkspace(t)

	out, err := runTally(t, "group", "create", "--config", cfg, "--name", "Open Source Collective", "--currency", "usd")
	require.NoError(t, err)
	assert.Equal(t, "Created group 1 (open-source-collective)\n", out)

	out, err = runTally(t, "group", "add-member", "1", "--config", cfg, "--user", "7", "--role", "host")
	require.NoError(t, err)
	assert.Equal(t, "Added user 7 to group 1 as HOST\n", out)

	_, err = runTally(t, "group", "add-member", "1", "--config", cfg, "--user", "8", "--role", "owner")
	assert.ErrorContains(t, err, "unknown role")

	out, err = runTally(t, "report", "hosted-groups", "--config", cfg, "--host", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "slug: open-source-collective")

	out, err = runTally(t, "event", "create", "--config", cfg, "--group", "1", "--name", "Meetup", "--from", "2017-03-01", "--to", "2017-03-02")
	require.NoError(t, err)
	assert.Equal(t, "Created event 1 (meetup)\n", out)

	// The fixture tiers name event 3 but no event row backs it.
	_, err = runTally(t, "event", "delete", "3", "--config", cfg)
	assert.ErrorContains(t, err, "not found")

	_, err = runTally(t, "event", "delete", "1", "--config", cfg)
	require.NoError(t, err)
	_, err = runTally(t, "event", "delete", "1", "--config", cfg)
	assert.ErrorContains(t, err, "not found")

	_, err = runTally(t, "event", "delete", "x", "--config", cfg)
	assert.ErrorContains(t, err, "invalid event id")
}

func TestExport(t *testing.T) {
	cfg := importedWorkspace(t)

	out, err := runTally(t, "export", "rates", "--config", cfg)
	require.NoError(t, err)
	rates, err := importer.ReadRates(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, rates, 3)
	assert.Equal(t, "EUR", rates[0].FromCurrency)
	assert.True(t, rates[1].Rate.Equal(decimal.RequireFromString("1.05")))
	assert.Equal(t, "GBP", rates[2].FromCurrency)

	_, err = runTally(t, "tier", "delete", "2", "--config", cfg)
	require.NoError(t, err)

	out, err = runTally(t, "export", "tiers", "--config", cfg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "slug,name,description,type,amount,currency"))
	assert.Contains(t, out, "early-bird,Early Bird,First 50 seats,TICKET,1500,USD,50,2,0,3,2017-03-01,2017-04-01\n")
	assert.NotContains(t, out, "VIP Pass")

	tiers, err := importer.ReadTiers(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, tiers, 2)
	assert.Equal(t, "monthly-backer", tiers[1].Slug)
	assert.False(t, tiers[1].StartsAt.IsZero(), "created tiers carry a sale window")
}
