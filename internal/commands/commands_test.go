package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerfeed/ledgerfeed/internal/accounts"
	"github.com/ledgerfeed/ledgerfeed/internal/config"
	"github.com/ledgerfeed/ledgerfeed/internal/model"
	"github.com/ledgerfeed/ledgerfeed/internal/recurring"
	"github.com/ledgerfeed/ledgerfeed/internal/runlog"
)

const bankFixture = "../../testdata/bank.json"

func runLedgerfeed(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

// initRepo creates a ledger without git and registers the current account
// and the credit card the bank fixture transfers to.
func initRepo(t *testing.T, extra ...string) string {
	t.Helper()
	dir := t.TempDir()
	args := append([]string{"init", dir}, extra...)
	if len(extra) == 0 {
		args = append(args, "--no-git")
	}
	_, err := runLedgerfeed(t, args...)
	require.NoError(t, err)

	cfgPath := filepath.Join(dir, config.FileName)
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	cfg.BankAccounts = []config.BankAccount{
		{Name: "Current Account", Type: "current", AccountID: 1001},
		{Name: "Credit Card", Type: config.CreditCard, LastFour: "4321", AccountID: 1003},
	}
	require.NoError(t, config.Save(cfgPath, cfg))
	return dir
}

func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(t, os.WriteFile(dst, data, 0o644))
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out, err := runLedgerfeed(t, "init", dir, "--no-git", "--currency", "omr", "--timezone", "Asia/Muscat")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized ledger at "+dir)

	for _, d := range []string{"accounts", "logs", "import", filepath.Join("import", "processed")} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "OMR", cfg.Ledger.Currency)
	assert.Equal(t, "Asia/Muscat", cfg.Ledger.Timezone)
	assert.Equal(t, config.BackendJournal, cfg.Ledger.Backend)
	assert.False(t, cfg.Git.AutoCommit)

	svc, err := accounts.Load(dir)
	require.NoError(t, err)
	assert.Len(t, svc.All(), len(accounts.DefaultChart("OMR")))
}

func TestInit_Twice(t *testing.T) {
	dir := t.TempDir()
	_, err := runLedgerfeed(t, "init", dir, "--no-git")
	require.NoError(t, err)

	_, err = runLedgerfeed(t, "init", dir, "--no-git")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already initialized")
}

func TestInit_BadOptions(t *testing.T) {
	_, err := runLedgerfeed(t, "init", t.TempDir(), "--no-git", "--backend", "sqlite")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown ledger.backend")

	t.Setenv(config.EnvDatabaseURL, "")
	_, err = runLedgerfeed(t, "init", t.TempDir(), "--no-git", "--backend", "postgres")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")
}

func TestImport_InboxAndArchive(t *testing.T) {
	dir := initRepo(t)
	copyFile(t, bankFixture, filepath.Join(dir, "import", "bank.json"))

	out, err := runLedgerfeed(t, "import", "--repo", dir, "--archive")
	require.NoError(t, err)
	assert.Contains(t, out, "bank.json (bankjson)")
	assert.Contains(t, out, "imported: 8 created, 2 skipped (0 duplicates), 0 failed (transfer 1, withdrawal 5, deposit 2)")
	assert.Contains(t, out, "archived bank.json")

	_, err = os.Stat(filepath.Join(dir, "import", "processed", "bank.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "2025", "09", "journal.csv"))
	require.NoError(t, err)

	entries, err := runlog.Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 10)
	assert.Equal(t, entries[0].RunID, entries[9].RunID)

	// Re-importing the archived file finds every record already in the ledger.
	out, err = runLedgerfeed(t, "import", "--repo", dir, filepath.Join(dir, "import", "processed", "bank.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "imported: 0 created, 10 skipped (8 duplicates), 0 failed")

	entries, err = runlog.Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 20)
	assert.NotEqual(t, entries[0].RunID, entries[10].RunID)
}

func TestImport_DryRun(t *testing.T) {
	dir := initRepo(t)

	out, err := runLedgerfeed(t, "import", "--repo", dir, "--dry-run", bankFixture)
	require.NoError(t, err)
	assert.Contains(t, out, "dry run: 8 previewed, 2 skipped, 0 failed")

	_, err = os.Stat(filepath.Join(dir, "2025"))
	assert.True(t, os.IsNotExist(err), "dry run writes no journal")
}

func TestImport_NoFiles(t *testing.T) {
	dir := initRepo(t)
	out, err := runLedgerfeed(t, "import", "--repo", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "no statement files to import")
}

func TestImport_SetupErrors(t *testing.T) {
	dir := initRepo(t)

	_, err := runLedgerfeed(t, "import", "--repo", dir, "--account", "5001", bankFixture)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source account")

	_, err = runLedgerfeed(t, "import", "--repo", dir, "--format", "ofx", bankFixture)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "ofx"`)

	_, err = runLedgerfeed(t, "import", "--repo", dir, filepath.Join(dir, "missing.json"))
	require.Error(t, err)

	_, err = runLedgerfeed(t, "import", "--repo", t.TempDir(), bankFixture)
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.FileName)
}

func TestImport_GitCommit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := initRepo(t, "--backend", "journal")
	copyFile(t, bankFixture, filepath.Join(dir, "import", "bank.json"))

	out, err := runLedgerfeed(t, "import", "--repo", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "committed ")

	log, err := exec.Command("git", "-C", dir, "log", "--format=%s", "-1").Output()
	require.NoError(t, err)
	assert.Contains(t, string(log), "import: bank.json (8 created)")
}

func TestRecurring_FromFile(t *testing.T) {
	dir := initRepo(t)

	out, err := runLedgerfeed(t, "recurring", "--repo", dir, "--file", bankFixture, "--json")
	require.NoError(t, err)

	var report recurring.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Findings, 1)
	assert.Equal(t, "Unknown", report.Findings[0].Merchant)
	assert.Equal(t, recurring.Weekly, report.Findings[0].Frequency)

	out, err = runLedgerfeed(t, "recurring", "--repo", dir, "--file", bankFixture)
	require.NoError(t, err)
	assert.Contains(t, out, "MERCHANT")
	assert.Contains(t, out, "weekly")
	assert.Contains(t, out, "monthly total: 0.00")
}

func TestRecurring_FromLedger(t *testing.T) {
	dir := initRepo(t)

	out, err := runLedgerfeed(t, "recurring", "--repo", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "no recurring payments found")

	_, err = runLedgerfeed(t, "import", "--repo", dir, bankFixture)
	require.NoError(t, err)

	out, err = runLedgerfeed(t, "recurring", "--repo", dir, "--json")
	require.NoError(t, err)
	var report recurring.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
}

func TestAccounts(t *testing.T) {
	dir := initRepo(t)

	out, err := runLedgerfeed(t, "accounts", "--repo", dir, "expense")
	require.NoError(t, err)
	assert.Contains(t, out, "Groceries")
	assert.NotContains(t, out, "Current Account")

	out, err = runLedgerfeed(t, "accounts", "--repo", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Current Account")
	assert.Contains(t, out, string(model.AccountTypeRevenue))

	_, err = runLedgerfeed(t, "accounts", "--repo", dir, "cash")
	require.Error(t, err)
}
