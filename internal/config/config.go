package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata" // timezone names resolve without system zoneinfo

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ledgerfeed/ledgerfeed/internal/recurring"
)

// FileName is the config file at the ledger repository root.
const FileName = "ledgerfeed.yaml"

// Environment overrides, also read from <repo>/.env.
const (
	EnvDatabaseURL = "LEDGERFEED_DATABASE_URL"
	EnvTimezone    = "LEDGERFEED_TIMEZONE"
)

// Ledger backends.
const (
	BackendJournal  = "journal"
	BackendPostgres = "postgres"
)

// CreditCard is the bank_accounts type whose last four digits route card transfers.
const CreditCard = "credit_card"

// Config represents the top-level ledgerfeed.yaml configuration.
type Config struct {
	Ledger       LedgerConfig     `yaml:"ledger"`
	BankAccounts []BankAccount    `yaml:"bank_accounts,omitempty"`
	Normalize    NormalizeConfig  `yaml:"normalize"`
	Recurring    recurring.Config `yaml:"recurring"`
	Git          GitConfig        `yaml:"git"`
}

// LedgerConfig selects where transactions are written and how dates are read.
type LedgerConfig struct {
	Currency    string `yaml:"currency"`
	Timezone    string `yaml:"timezone"`
	Backend     string `yaml:"backend"`
	DatabaseURL string `yaml:"database_url,omitempty"`
}

// BankAccount maps a statement source to a chart-of-accounts entry.
type BankAccount struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	LastFour  string `yaml:"last_four,omitempty"`
	AccountID int    `yaml:"account_id"`
}

// NormalizeConfig tunes merchant name cleanup.
type NormalizeConfig struct {
	Cities   []string `yaml:"cities,omitempty"`
	Language string   `yaml:"language"` // narration language preferred for merchant titles
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a ledgerfeed.yaml file from disk. Fields left out of the file
// keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadRepo reads the config of the repository at root, then applies
// <root>/.env and the process environment on top of it.
func LoadRepo(root string) (*Config, error) {
	cfg, err := Load(filepath.Join(root, FileName))
	if err != nil {
		return nil, err
	}
	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvDatabaseURL); ok && v != "" {
		c.Ledger.DatabaseURL = v
	}
	if v, ok := os.LookupEnv(EnvTimezone); ok && v != "" {
		c.Ledger.Timezone = v
	}
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger.
func Default() *Config {
	return &Config{
		Ledger: LedgerConfig{
			Currency: "AED",
			Timezone: "Asia/Dubai",
			Backend:  BackendJournal,
		},
		Normalize: NormalizeConfig{
			Language: "en",
		},
		Recurring: recurring.DefaultConfig(),
		Git: GitConfig{
			AuthorName:  "ledgerfeed",
			AuthorEmail: "ledgerfeed@localhost",
		},
	}
}

// Validate checks values that would otherwise fail halfway through a run.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Ledger.Currency) != 3 {
		errs = append(errs, fmt.Errorf("ledger.currency %q is not a 3-letter code", c.Ledger.Currency))
	}
	if _, err := time.LoadLocation(c.Ledger.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("ledger.timezone: %w", err))
	}
	switch c.Ledger.Backend {
	case BackendJournal:
	case BackendPostgres:
		if c.Ledger.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("postgres backend needs ledger.database_url or %s", EnvDatabaseURL))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ledger.backend %q", c.Ledger.Backend))
	}
	for _, b := range c.BankAccounts {
		if b.Type == CreditCard && len(b.LastFour) != 4 {
			errs = append(errs, fmt.Errorf("credit card %q needs a 4-digit last_four", b.Name))
		}
	}
	return errors.Join(errs...)
}

// Location returns the statement time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Ledger.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Ledger.Timezone, err)
	}
	return loc, nil
}

// Cards maps credit card last-four digits to their account names.
func (c *Config) Cards() map[string]string {
	cards := make(map[string]string)
	for _, b := range c.BankAccounts {
		if b.Type == CreditCard && b.LastFour != "" {
			cards[b.LastFour] = b.Name
		}
	}
	return cards
}

// DefaultSource returns the account id of the first configured card
// account when card is set, else of the first non-card account. It returns
// 0 when none matches.
func (c *Config) DefaultSource(card bool) int {
	for _, b := range c.BankAccounts {
		if (b.Type == CreditCard) == card {
			return b.AccountID
		}
	}
	return 0
}
