// Package pgstore keeps the ledger in Postgres. It implements the same
// sink, directory and history contracts as the file-backed journal.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerfeed/ledgerfeed/internal/accounts"
	"github.com/ledgerfeed/ledgerfeed/internal/ledger"
	"github.com/ledgerfeed/ledgerfeed/internal/model"
)

const (
	uniqueViolation  = "23505"
	externalIDUnique = "transactions_external_id_key"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id          INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	type        TEXT NOT NULL,
	parent_id   INTEGER NOT NULL DEFAULT 0,
	currency    TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS accounts_type_name_key ON accounts (type, lower(name));

CREATE TABLE IF NOT EXISTS transactions (
	id                 BIGSERIAL PRIMARY KEY,
	kind               TEXT NOT NULL,
	date               DATE NOT NULL,
	amount             NUMERIC(18,2) NOT NULL CHECK (amount > 0),
	currency           TEXT NOT NULL,
	foreign_amount     NUMERIC(18,3),
	foreign_currency   TEXT NOT NULL DEFAULT '',
	description        TEXT NOT NULL,
	source_id          INTEGER NOT NULL REFERENCES accounts (id),
	destination_id     INTEGER NOT NULL REFERENCES accounts (id),
	tags               TEXT[] NOT NULL DEFAULT '{}',
	notes              TEXT NOT NULL DEFAULT '',
	external_id        TEXT,
	internal_reference TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT transactions_external_id_key UNIQUE (external_id)
);
`

// Connect opens a pool and checks the connection.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("opening database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// Store is a Postgres-backed ledger.
type Store struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

var (
	_ ledger.Sink        = (*Store)(nil)
	_ ledger.History     = (*Store)(nil)
	_ accounts.Directory = (*Store)(nil)
)

// New wraps pool. Dates are stored without a zone and read back in loc.
func New(pool *pgxpool.Pool, loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{pool: pool, loc: loc}
}

// Close releases the pool.
func (s *Store) Close() { s.pool.Close() }

// Migrate creates the tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// Seed inserts accounts whose id is not yet present.
func (s *Store) Seed(ctx context.Context, accts []model.Account) error {
	batch := &pgx.Batch{}
	for _, a := range accts {
		batch.Queue(`
			INSERT INTO accounts (id, name, type, parent_id, currency, description)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT DO NOTHING`,
			a.ID, a.Name, string(a.Type), a.ParentID, a.Currency, a.Description)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seeding accounts: %w", err)
	}
	return nil
}

// ListAccounts implements accounts.Directory.
func (s *Store) ListAccounts(ctx context.Context, accountType model.AccountType) ([]model.Account, error) {
	query := `
		SELECT id, name, type, parent_id, currency, description
		FROM accounts WHERE type = $1
		ORDER BY id
	`
	rows, err := s.pool.Query(ctx, query, string(accountType))
	if err != nil {
		return nil, fmt.Errorf("listing %s accounts: %w", accountType, err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		var a model.Account
		var t string
		if err := rows.Scan(&a.ID, &a.Name, &t, &a.ParentID, &a.Currency, &a.Description); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		a.Type = model.AccountType(t)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create stores tx in one database transaction, creating any named
// counterparty account first. The external id is unique across the table.
func (s *Store) Create(ctx context.Context, tx model.Transaction, failIfDuplicate bool) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("invalid transaction: %w", err)
	}

	id, err := s.insert(ctx, tx)
	if err == nil {
		return id, nil
	}
	if !isDuplicate(err) {
		return "", err
	}

	existing, lookupErr := s.idByExternalID(ctx, tx.ExternalID)
	if lookupErr != nil {
		return "", fmt.Errorf("looking up duplicate %s: %w", tx.ExternalID, lookupErr)
	}
	if failIfDuplicate {
		return "", &ledger.DuplicateError{ExternalID: tx.ExternalID, ExistingID: existing}
	}
	return existing, nil
}

func (s *Store) insert(ctx context.Context, t model.Transaction) (string, error) {
	dbtx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbtx.Rollback(ctx)

	srcType, dstType := t.Kind.SideTypes()
	source, err := resolve(ctx, dbtx, t.Source, srcType, t.CurrencyCode)
	if err != nil {
		return "", fmt.Errorf("resolving source: %w", err)
	}
	dest, err := resolve(ctx, dbtx, t.Destination, dstType, t.CurrencyCode)
	if err != nil {
		return "", fmt.Errorf("resolving destination: %w", err)
	}

	var externalID *string
	if t.ExternalID != "" {
		externalID = &t.ExternalID
	}
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}

	query := `
		INSERT INTO transactions (kind, date, amount, currency, foreign_amount, foreign_currency,
			description, source_id, destination_id, tags, notes, external_id, internal_reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	var id int64
	err = dbtx.QueryRow(ctx, query,
		string(t.Kind),
		t.Date.Format(time.DateOnly),
		t.Amount,
		t.CurrencyCode,
		t.ForeignAmount,
		t.ForeignCurrencyCode,
		t.Description,
		source,
		dest,
		tags,
		t.Notes,
		externalID,
		t.InternalReference,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("inserting transaction: %w", err)
	}
	if err := dbtx.Commit(ctx); err != nil {
		return "", fmt.Errorf("committing transaction: %w", err)
	}
	return fmt.Sprint(id), nil
}

// resolve returns the account id for ref, creating a named account of type t
// with the next id in its block when it does not exist.
func resolve(ctx context.Context, q pgx.Tx, ref model.AccountRef, t model.AccountType, currency string) (int, error) {
	if ref.IsKnown() {
		var id int
		err := q.QueryRow(ctx, `SELECT id FROM accounts WHERE id = $1`, ref.ID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("unknown account %d", ref.ID)
		}
		return id, err
	}

	insert := `
		INSERT INTO accounts (id, name, type, currency, description)
		SELECT COALESCE(MAX(id), $1) + 1, $2, $3, $4, 'auto-created by import'
		FROM accounts WHERE type = $3
		ON CONFLICT DO NOTHING
	`
	if _, err := q.Exec(ctx, insert, t.IDBase(), ref.Name, string(t), currency); err != nil {
		return 0, fmt.Errorf("creating account %q: %w", ref.Name, err)
	}
	var id int
	err := q.QueryRow(ctx, `SELECT id FROM accounts WHERE type = $1 AND lower(name) = lower($2)`, string(t), ref.Name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("looking up account %q: %w", ref.Name, err)
	}
	return id, nil
}

func (s *Store) idByExternalID(ctx context.Context, externalID string) (string, error) {
	var id int64
	if err := s.pool.QueryRow(ctx, `SELECT id FROM transactions WHERE external_id = $1`, externalID).Scan(&id); err != nil {
		return "", err
	}
	return fmt.Sprint(id), nil
}

// Transactions implements ledger.History, oldest first.
func (s *Store) Transactions(ctx context.Context) ([]model.Transaction, error) {
	query := `
		SELECT t.kind, t.date, t.amount, t.currency, t.foreign_amount, t.foreign_currency,
			t.description, src.id, src.type, src.name, dst.id, dst.type, dst.name,
			t.tags, t.notes, COALESCE(t.external_id, ''), t.internal_reference
		FROM transactions t
		JOIN accounts src ON src.id = t.source_id
		JOIN accounts dst ON dst.id = t.destination_id
		ORDER BY t.date, t.id
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var (
			t                model.Transaction
			kind             string
			date             time.Time
			srcID, dstID     int
			srcType, dstType string
			srcName, dstName string
		)
		err := rows.Scan(&kind, &date, &t.Amount, &t.CurrencyCode, &t.ForeignAmount, &t.ForeignCurrencyCode,
			&t.Description, &srcID, &srcType, &srcName, &dstID, &dstType, &dstName,
			&t.Tags, &t.Notes, &t.ExternalID, &t.InternalReference)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		t.Kind = model.TransactionKind(kind)
		t.Date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.loc)
		t.Source = side(srcID, srcType, srcName)
		t.Destination = side(dstID, dstType, dstName)
		if len(t.Tags) == 0 {
			t.Tags = nil
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func side(id int, t, name string) model.AccountRef {
	if model.AccountType(t) == model.AccountTypeAsset {
		return model.Known(id)
	}
	return model.Named(name)
}

// isDuplicate reports whether err is the external id unique violation.
func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == externalIDUnique
}
