package reconcile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore persists unsynced identities in PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens dsn, checks connectivity and creates the table
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS unsynced_identities (
		subject VARCHAR(256) PRIMARY KEY,
		natural_key TEXT NOT NULL DEFAULT '',
		tx_hash VARCHAR(66) NOT NULL,
		error TEXT NOT NULL,
		recorded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_unsynced_recorded ON unsynced_identities(recorded_at);
	CREATE INDEX IF NOT EXISTS idx_unsynced_natural_key ON unsynced_identities(natural_key);
	`

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *PostgresStore) Record(ctx context.Context, entry Entry) error {
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
	INSERT INTO unsynced_identities (subject, natural_key, tx_hash, error, recorded_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (subject) DO UPDATE SET
		natural_key = EXCLUDED.natural_key,
		tx_hash = EXCLUDED.tx_hash,
		error = EXCLUDED.error,
		recorded_at = EXCLUDED.recorded_at
	`
	_, err := s.db.ExecContext(ctx, query, entry.Subject, entry.NaturalKey, entry.TxHash, entry.Error, entry.RecordedAt)
	return err
}

func (s *PostgresStore) Resolve(ctx context.Context, subject string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, "DELETE FROM unsynced_identities WHERE subject = $1", subject)
	return err
}

func (s *PostgresStore) Lookup(ctx context.Context, naturalKey string) (Entry, bool, error) {
	if naturalKey == "" {
		return Entry{}, false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var e Entry
	err := s.db.QueryRowContext(ctx, `
		SELECT subject, natural_key, tx_hash, error, recorded_at
		FROM unsynced_identities
		WHERE natural_key = $1
		ORDER BY recorded_at, subject
		LIMIT 1
	`, naturalKey).Scan(&e.Subject, &e.NaturalKey, &e.TxHash, &e.Error, &e.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM unsynced_identities").Scan(&n)
	return n, err
}

func (s *PostgresStore) List(ctx context.Context) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT subject, natural_key, tx_hash, error, recorded_at
		FROM unsynced_identities
		ORDER BY recorded_at, subject
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Subject, &e.NaturalKey, &e.TxHash, &e.Error, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
