// Package store persists parse runs and their row errors in PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/importme/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the query surface shared by pools, connections and transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner is a DBTX that can open transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store implements core.RunStore on PostgreSQL.
type Store struct {
	db TxBeginner
}

var _ core.RunStore = (*Store)(nil)

// New returns a Store using db.
func New(db TxBeginner) *Store {
	return &Store{db: db}
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS parse_runs (
		id           UUID PRIMARY KEY,
		schema_key   TEXT        NOT NULL,
		file_name    TEXT        NOT NULL,
		status       TEXT        NOT NULL,
		failure      TEXT        NOT NULL DEFAULT '',
		rows_total   INTEGER     NOT NULL DEFAULT 0,
		rows_skipped INTEGER     NOT NULL DEFAULT 0,
		records      INTEGER     NOT NULL DEFAULT 0,
		errors       INTEGER     NOT NULL DEFAULT 0,
		ip_address   TEXT        NOT NULL DEFAULT '',
		user_agent   TEXT        NOT NULL DEFAULT '',
		started_at   TIMESTAMPTZ NOT NULL,
		finished_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS parse_run_errors (
		run_id        UUID    NOT NULL REFERENCES parse_runs (id) ON DELETE CASCADE,
		row_index     INTEGER NOT NULL,
		message       TEXT    NOT NULL DEFAULT '',
		column_errors JSONB   NOT NULL DEFAULT '[]'
	)`,
	`CREATE INDEX IF NOT EXISTS parse_run_errors_run_idx ON parse_run_errors (run_id, row_index)`,
}

// Migrate creates the run tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}

const insertRunSQL = `
INSERT INTO parse_runs (
	id, schema_key, file_name, status, failure,
	rows_total, rows_skipped, records, errors,
	ip_address, user_agent, started_at, finished_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

var errorColumns = []string{"run_id", "row_index", "message", "column_errors"}

// SaveRun inserts the run and all of its row errors in one transaction.
func (s *Store) SaveRun(ctx context.Context, run core.RunRecord) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op after commit

	id := pgtype.UUID{Bytes: run.ID, Valid: true}

	_, err = tx.Exec(ctx, insertRunSQL,
		id, run.Schema, run.FileName, run.Status, run.Failure,
		run.Summary.Rows, run.Summary.Skipped, run.Summary.Records, run.Summary.Errors,
		run.IPAddress, run.UserAgent, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(run.Errors) > 0 {
		rows := make([][]any, 0, len(run.Errors))
		for _, re := range run.Errors {
			cols, err := encodeColumnErrors(re.Columns)
			if err != nil {
				return fmt.Errorf("row %d: %w", re.Row, err)
			}
			rows = append(rows, []any{id, re.Row, re.Message, cols})
		}

		n, err := tx.CopyFrom(ctx, pgx.Identifier{"parse_run_errors"}, errorColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("copy row errors: %w", err)
		}
		if int(n) != len(rows) {
			return fmt.Errorf("copy row errors: wrote %d of %d rows", n, len(rows))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const selectRunSQL = `
SELECT id, schema_key, file_name, status, failure,
       rows_total, rows_skipped, records, errors,
       ip_address, user_agent, started_at, finished_at
FROM parse_runs
WHERE id = $1`

const selectErrorsSQL = `
SELECT row_index, message, column_errors
FROM parse_run_errors
WHERE run_id = $1
ORDER BY row_index`

// GetRun loads a run and its row errors. Unknown ids return core.ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*core.RunRecord, error) {
	pgID := pgtype.UUID{Bytes: id, Valid: true}

	var (
		run       core.RunRecord
		scannedID pgtype.UUID
		started   time.Time
		finished  time.Time
	)
	err := s.db.QueryRow(ctx, selectRunSQL, pgID).Scan(
		&scannedID, &run.Schema, &run.FileName, &run.Status, &run.Failure,
		&run.Summary.Rows, &run.Summary.Skipped, &run.Summary.Records, &run.Summary.Errors,
		&run.IPAddress, &run.UserAgent, &started, &finished,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrRunNotFound
		}
		return nil, fmt.Errorf("select run: %w", err)
	}
	run.ID = uuid.UUID(scannedID.Bytes)
	run.StartedAt = started.UTC()
	run.FinishedAt = finished.UTC()

	rows, err := s.db.Query(ctx, selectErrorsSQL, pgID)
	if err != nil {
		return nil, fmt.Errorf("select row errors: %w", err)
	}
	run.Errors, err = pgx.CollectRows(rows, scanRowError)
	if err != nil {
		return nil, fmt.Errorf("scan row errors: %w", err)
	}

	return &run, nil
}

func scanRowError(row pgx.CollectableRow) (core.RowError, error) {
	var (
		re   core.RowError
		cols []byte
	)
	if err := row.Scan(&re.Row, &re.Message, &cols); err != nil {
		return re, err
	}
	if len(cols) > 0 {
		if err := json.Unmarshal(cols, &re.Columns); err != nil {
			return re, fmt.Errorf("decode column errors: %w", err)
		}
	}
	if len(re.Columns) == 0 {
		re.Columns = nil
	}
	return re, nil
}

// encodeColumnErrors renders column errors as a JSONB document.
func encodeColumnErrors(cols []core.ColumnError) (string, error) {
	if len(cols) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(cols)
	if err != nil {
		return "", fmt.Errorf("encode column errors: %w", err)
	}
	return string(b), nil
}
