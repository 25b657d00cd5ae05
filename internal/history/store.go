// Package history records converted files in a database.
//
// Two backends share one entry shape: Store writes to PostgreSQL through
// pgx and SQLiteStore writes to a local SQLite file through gorm. Both
// satisfy core.HistoryRecorder.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/csvxform/internal/core"
	"github.com/JonMunkholm/csvxform/internal/logging"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// TableName is the history table.
const TableName = "xform_file_runs"

// Status values stored per file.
const (
	StatusCompleted = "completed"
	StatusPartial   = "partial" // Completed with failed rows
	StatusFailed    = "failed"
)

// Entry is one history row, independent of the backend.
type Entry struct {
	ID          string
	RunID       string
	Layout      string
	InputPath   string
	OutputPath  string
	Status      string
	TotalRows   int
	RowsWritten int
	RowsFailed  int
	PassThrough int
	BytesRead   int64
	Error       string // Empty unless the file failed as a whole
	StartedAt   time.Time
	DurationMs  int64
}

// NewEntry builds the entry for one processed file.
//
// runID and layout are used when result does not carry them, which is the
// case for files that failed before producing a result.
func NewEntry(runID, layout string, pair core.FilePair, result *core.FileResult, fileErr error, now time.Time) Entry {
	e := Entry{
		ID:         uuid.New().String(),
		RunID:      runID,
		Layout:     layout,
		InputPath:  pair.Input,
		OutputPath: pair.Output,
		Status:     StatusCompleted,
		StartedAt:  now,
	}

	if result != nil {
		if result.RunID != "" {
			e.RunID = result.RunID
		}
		if result.Layout != "" {
			e.Layout = result.Layout
		}
		e.TotalRows = result.TotalRows
		e.RowsWritten = result.Written
		e.RowsFailed = result.Failed
		e.PassThrough = result.PassedThrough
		e.BytesRead = result.BytesRead
		e.StartedAt = result.StartedAt
		e.DurationMs = result.Duration.Milliseconds()
		if result.Failed > 0 {
			e.Status = StatusPartial
		}
	}

	if fileErr != nil {
		e.Status = StatusFailed
		e.Error = fileErr.Error()
	}
	return e
}

// DBTX is the subset of pgx used by the store.
// Satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const createTableSQL = `CREATE TABLE IF NOT EXISTS ` + TableName + ` (
	id            UUID PRIMARY KEY,
	run_id        UUID,
	layout        TEXT NOT NULL,
	input_path    TEXT NOT NULL,
	output_path   TEXT NOT NULL,
	status        TEXT NOT NULL,
	total_rows    INTEGER NOT NULL DEFAULT 0,
	rows_written  INTEGER NOT NULL DEFAULT 0,
	rows_failed   INTEGER NOT NULL DEFAULT 0,
	pass_through  INTEGER NOT NULL DEFAULT 0,
	bytes_read    BIGINT NOT NULL DEFAULT 0,
	error         TEXT,
	started_at    TIMESTAMPTZ NOT NULL,
	duration_ms   BIGINT NOT NULL DEFAULT 0
)`

const insertSQL = `INSERT INTO ` + TableName + ` (
	id, run_id, layout, input_path, output_path, status,
	total_rows, rows_written, rows_failed, pass_through, bytes_read,
	error, started_at, duration_ms
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

// Store writes one history row per processed file to PostgreSQL.
type Store struct {
	db     DBTX
	layout string
	now    func() time.Time
}

// NewStore creates a store. layout is recorded for files that failed
// before producing a result.
func NewStore(db DBTX, layout string) *Store {
	return &Store{db: db, layout: layout, now: time.Now}
}

// EnsureSchema creates the history table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create %s: %w", TableName, err)
	}
	return nil
}

// RecordFile implements core.HistoryRecorder.
func (s *Store) RecordFile(ctx context.Context, pair core.FilePair, result *core.FileResult, fileErr error) error {
	e := NewEntry(logging.RunIDFromContext(ctx), s.layout, pair, result, fileErr, s.now())

	tag, err := s.db.Exec(ctx, insertSQL,
		e.ID, toPgUUID(e.RunID), e.Layout, e.InputPath, e.OutputPath, e.Status,
		e.TotalRows, e.RowsWritten, e.RowsFailed, e.PassThrough, e.BytesRead,
		pgtype.Text{String: e.Error, Valid: e.Error != ""}, e.StartedAt, e.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("insert %s: %w", TableName, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("insert %s: %d rows affected", TableName, tag.RowsAffected())
	}
	return nil
}

func toPgUUID(s string) pgtype.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: id, Valid: true}
}
