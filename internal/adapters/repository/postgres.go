package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/okian/standings/internal/domain/model"
	"github.com/okian/standings/pkg/metrics"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS subjects (
	id   UUID PRIMARY KEY,
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS attribution_events (
	event_id    TEXT PRIMARY KEY,
	subject_id  UUID NOT NULL REFERENCES subjects (id),
	kind        TEXT NOT NULL,
	amount      BIGINT NOT NULL CHECK (amount >= 0),
	occurred_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS attribution_events_kind_time_idx
	ON attribution_events (kind, occurred_at);
`

const (
	upsertSubjectSQL = `INSERT INTO subjects (id, name) VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`

	insertEventSQL = `INSERT INTO attribution_events (event_id, subject_id, kind, amount, occurred_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (event_id) DO NOTHING`

	talliesSQL = `SELECT s.id, s.name, SUM(e.amount)::BIGINT
FROM attribution_events e
JOIN subjects s ON s.id = e.subject_id
WHERE e.kind = $1 AND ($2::TIMESTAMPTZ IS NULL OR e.occurred_at >= $2::TIMESTAMPTZ)
GROUP BY s.id, s.name`

	countSubjectsSQL = `SELECT COUNT(*) FROM subjects`
)

// PostgresStore keeps the event log in Postgres and aggregates in SQL.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects with dsn and ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := NewPostgresStore(db)
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an existing connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the tables if they are missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Record implements Store.Record in one transaction.
func (s *PostgresStore) Record(ctx context.Context, e model.Event) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("record", float64(time.Since(start).Microseconds())/1000)
	}()

	if err := validateEvent(e); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, upsertSubjectSQL, e.Subject.ID, e.Subject.Name); err != nil {
		return fmt.Errorf("upsert subject: %w", err)
	}
	if _, err = tx.ExecContext(ctx, insertEventSQL, e.EventID, e.Subject.ID, string(e.Kind), int64(e.Amount), e.TS.UTC()); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Tallies implements Store.Tallies.
func (s *PostgresStore) Tallies(ctx context.Context, kind model.Kind, since time.Time) ([]model.Tally, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("tallies", float64(time.Since(start).Microseconds())/1000)
	}()

	var lower sql.NullTime
	if !since.IsZero() {
		lower = sql.NullTime{Time: since.UTC(), Valid: true}
	}
	rows, err := s.db.QueryContext(ctx, talliesSQL, string(kind), lower)
	if err != nil {
		return nil, fmt.Errorf("query tallies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Tally
	for rows.Next() {
		var (
			t     model.Tally
			count int64
		)
		if err := rows.Scan(&t.Subject.ID, &t.Subject.Name, &count); err != nil {
			return nil, fmt.Errorf("scan tally: %w", err)
		}
		t.Kind = kind
		t.Count = uint64(count)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tallies: %w", err)
	}
	return out, nil
}

// Count implements Store.Count.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, countSubjectsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count subjects: %w", err)
	}
	return n, nil
}

// Close implements Store.Close.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
