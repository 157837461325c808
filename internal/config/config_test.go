package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerfeed/ledgerfeed/internal/recurring"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.BankAccounts = []BankAccount{
		{Name: "Current Account", Type: "current", AccountID: 1001},
		{Name: "Visa Platinum", Type: CreditCard, LastFour: "4321", AccountID: 1003},
	}
	cfg.Normalize.Cities = []string{"Dubai", "Muscat"}
	cfg.Recurring.VoteShare = 0.5

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Ledger, got.Ledger)
	assert.Equal(t, cfg.BankAccounts, got.BankAccounts)
	assert.Equal(t, []string{"Dubai", "Muscat"}, got.Normalize.Cities)
	assert.InDelta(t, 0.5, got.Recurring.VoteShare, 0.001)
	assert.Equal(t, recurring.DefaultBands(), got.Recurring.Bands)
	assert.Equal(t, cfg.Git, got.Git)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "AED", cfg.Ledger.Currency)
	assert.Equal(t, "Asia/Dubai", cfg.Ledger.Timezone)
	assert.Equal(t, BackendJournal, cfg.Ledger.Backend)
	assert.Equal(t, "en", cfg.Normalize.Language)
	assert.Equal(t, recurring.DefaultConfig(), cfg.Recurring)
	assert.False(t, cfg.Git.AutoCommit)
	assert.Empty(t, cfg.BankAccounts)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("ledger:\n  currency: OMR\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "OMR", cfg.Ledger.Currency)
	assert.Equal(t, "Asia/Dubai", cfg.Ledger.Timezone)
	assert.Equal(t, recurring.DefaultConfig().MinSplitEntries, cfg.Recurring.MinSplitEntries)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestLoadRepo_EnvOverrides(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.Ledger.Backend = BackendPostgres
	cfg.Ledger.DatabaseURL = "postgres://file"
	require.NoError(t, Save(filepath.Join(root, FileName), cfg))

	t.Setenv(EnvTimezone, "UTC")
	t.Setenv(EnvDatabaseURL, "postgres://env")

	got, err := LoadRepo(root)
	require.NoError(t, err)
	assert.Equal(t, "UTC", got.Ledger.Timezone)
	assert.Equal(t, "postgres://env", got.Ledger.DatabaseURL)
}

func TestLoadRepo_DotEnv(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.Ledger.Backend = BackendPostgres
	require.NoError(t, Save(filepath.Join(root, FileName), cfg))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte(EnvDatabaseURL+"=postgres://dotenv\n"), 0o600))

	t.Setenv(EnvDatabaseURL, "")
	os.Unsetenv(EnvDatabaseURL)

	got, err := LoadRepo(root)
	require.NoError(t, err)
	assert.Equal(t, "postgres://dotenv", got.Ledger.DatabaseURL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"currency", func(c *Config) { c.Ledger.Currency = "DIRHAM" }, "ledger.currency"},
		{"timezone", func(c *Config) { c.Ledger.Timezone = "Mars/Olympus" }, "ledger.timezone"},
		{"backend", func(c *Config) { c.Ledger.Backend = "sqlite" }, "unknown ledger.backend"},
		{"postgres url", func(c *Config) { c.Ledger.Backend = BackendPostgres }, "database_url"},
		{"card digits", func(c *Config) {
			c.BankAccounts = []BankAccount{{Name: "Visa", Type: CreditCard, LastFour: "12"}}
		}, "last_four"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCardsAndDefaultSource(t *testing.T) {
	cfg := Default()
	cfg.BankAccounts = []BankAccount{
		{Name: "Current Account", Type: "current", AccountID: 1001},
		{Name: "Visa Platinum", Type: CreditCard, LastFour: "4321", AccountID: 1003},
		{Name: "Mastercard Titanium", Type: CreditCard, LastFour: "8765", AccountID: 1004},
	}

	assert.Equal(t, map[string]string{"4321": "Visa Platinum", "8765": "Mastercard Titanium"}, cfg.Cards())
	assert.Equal(t, 1001, cfg.DefaultSource(false))
	assert.Equal(t, 1003, cfg.DefaultSource(true))
	assert.Equal(t, 0, Default().DefaultSource(true))

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Dubai", loc.String())
}
