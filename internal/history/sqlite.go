package history

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/csvxform/internal/core"
	"github.com/JonMunkholm/csvxform/internal/logging"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// FileRun is the gorm model of a history row.
type FileRun struct {
	ID          string    `gorm:"primaryKey;type:text"`
	RunID       string    `gorm:"index"`
	Layout      string    `gorm:"not null"`
	InputPath   string    `gorm:"not null"`
	OutputPath  string    `gorm:"not null"`
	Status      string    `gorm:"not null"` // completed, partial, failed
	TotalRows   int       `gorm:"default:0"`
	RowsWritten int       `gorm:"default:0"`
	RowsFailed  int       `gorm:"default:0"`
	PassThrough int       `gorm:"default:0"`
	BytesRead   int64     `gorm:"default:0"`
	Error       string    `gorm:"type:text"`
	StartedAt   time.Time `gorm:"not null"`
	DurationMs  int64     `gorm:"default:0"`
}

func (FileRun) TableName() string { return TableName }

func fileRunFromEntry(e Entry) FileRun {
	return FileRun{
		ID:          e.ID,
		RunID:       e.RunID,
		Layout:      e.Layout,
		InputPath:   e.InputPath,
		OutputPath:  e.OutputPath,
		Status:      e.Status,
		TotalRows:   e.TotalRows,
		RowsWritten: e.RowsWritten,
		RowsFailed:  e.RowsFailed,
		PassThrough: e.PassThrough,
		BytesRead:   e.BytesRead,
		Error:       e.Error,
		StartedAt:   e.StartedAt,
		DurationMs:  e.DurationMs,
	}
}

// SQLiteStore writes history rows to a local SQLite database.
type SQLiteStore struct {
	db     *gorm.DB
	layout string
	now    func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and migrates
// the history table.
func OpenSQLite(path, layout string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open history database %s: %w", path, err)
	}
	if err := db.AutoMigrate(&FileRun{}); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", TableName, err)
	}
	return &SQLiteStore{db: db, layout: layout, now: time.Now}, nil
}

// RecordFile implements core.HistoryRecorder.
func (s *SQLiteStore) RecordFile(ctx context.Context, pair core.FilePair, result *core.FileResult, fileErr error) error {
	run := fileRunFromEntry(NewEntry(logging.RunIDFromContext(ctx), s.layout, pair, result, fileErr, s.now()))
	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return fmt.Errorf("insert %s: %w", TableName, err)
	}
	return nil
}

// Runs returns the rows of one run in insertion order.
func (s *SQLiteStore) Runs(ctx context.Context, runID string) ([]FileRun, error) {
	var runs []FileRun
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("rowid").
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", TableName, err)
	}
	return runs, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
