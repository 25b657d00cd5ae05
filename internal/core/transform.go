package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/csvxform/internal/logging"
)

// ContextCheckInterval is how often (in rows) to check for context cancellation.
var ContextCheckInterval = 100

// FailedRowsSuffix is appended to the output base name for the failed-rows file.
const FailedRowsSuffix = " - failed.csv"

// Transformer converts single files to a layout.
type Transformer struct {
	Layout          Layout
	Verbose         bool         // Log a progress line per file
	UseCRLF         bool         // Terminate output lines with \r\n
	WriteFailedRows bool         // Write failed rows next to the output file
	Logger          *slog.Logger // Defaults to slog.Default()
}

// TransformFile converts inputPath into outputPath.
//
// The input is opened and its header line and column header read before
// the output is touched, so an unreadable or empty input, or one whose
// column header can not be parsed, leaves no output behind. Once
// writing has started, a row that can not be parsed or written is logged,
// counted in the result and skipped. There is no rollback: an error part
// way through leaves the rows written so far. The returned result is
// non-nil whenever the output file was created.
func (t *Transformer) TransformFile(ctx context.Context, inputPath, outputPath string) (*FileResult, error) {
	start := time.Now()
	logger := logging.WithFields(ctx, t.Logger, "input", inputPath, "output", outputPath)

	reader, err := OpenReader(inputPath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	columns, err := reader.ReadColumns()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", inputPath, err)
	}
	layout := t.Layout.ForColumns(columns)

	if t.Verbose {
		logger.Info("transforming file", "layout", layout.Key)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	result := &FileResult{
		RunID:     logging.RunIDFromContext(ctx),
		Input:     inputPath,
		Output:    outputPath,
		Layout:    layout.Key,
		StartedAt: start,
	}

	writer := NewRowWriter(out, layout.Fields, t.UseCRLF)
	if err := writer.WriteHeader(reader.FileHeader()); err != nil {
		return result, err
	}

	fail := func(line int, stage RowStage, rec Record, err error) {
		result.Failed++
		result.FailedRows = append(result.FailedRows, FailedRow{
			FileName:   filepath.Base(inputPath),
			LineNumber: line,
			Stage:      stage,
			Reason:     err.Error(),
			Record:     rec,
		})
		logger.Warn("row skipped",
			"line", line,
			"stage", stage,
			"code", MapError(err).Code,
			"record", rec.String(),
			"error", err,
		)
	}

	for i := 0; ; i++ {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				t.finish(result, writer, reader, start)
				return result, fmt.Errorf("operation cancelled after %d rows: %w", result.TotalRows, err)
			}
		}

		rec, line, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) || errors.Is(err, ErrColumnHeader) {
				t.finish(result, writer, reader, start)
				return result, fmt.Errorf("read %s: %w", inputPath, err)
			}
			result.TotalRows++
			fail(line, StageParse, Record{}, err)
			continue
		}
		result.TotalRows++

		converted, passThrough := layout.remap(rec)
		if err := writer.WriteRecord(converted); err != nil {
			fail(line, StageWrite, converted, err)
			continue
		}
		result.Written++
		if passThrough {
			result.PassedThrough++
		}
	}

	if err := t.finish(result, writer, reader, start); err != nil {
		return result, err
	}
	if err := out.Close(); err != nil {
		return result, fmt.Errorf("close output: %w", err)
	}

	if t.WriteFailedRows {
		path := FailedRowsPath(outputPath)
		if len(result.FailedRows) > 0 {
			if err := writeFailedRows(path, result.FailedRows); err != nil {
				return result, fmt.Errorf("write failed rows file: %w", err)
			}
			logger.Info("failed rows written", "path", path, "count", len(result.FailedRows))
		} else if err := os.Remove(path); err == nil {
			logger.Debug("stale failed rows file removed", "path", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return result, fmt.Errorf("remove failed rows file: %w", err)
		}
	}

	logger.Debug("file transformed",
		"rows", result.TotalRows,
		"written", result.Written,
		"failed", result.Failed,
		"pass_through", result.PassedThrough,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// finish flushes buffered rows and fills in the result totals.
func (t *Transformer) finish(result *FileResult, w *RowWriter, r *Reader, start time.Time) error {
	err := w.Flush()
	result.BytesRead = r.BytesRead()
	result.Duration = time.Since(start)
	if err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// FailedRowsPath returns where the failed rows of outputPath are written,
// e.g. "out/a.csv" -> "out/a - failed.csv".
func FailedRowsPath(outputPath string) string {
	base := filepath.Base(outputPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(outputPath), name+FailedRowsSuffix)
}

func writeFailedRows(path string, rows []FailedRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Write([]string{"Status", "Line", "Record"})
	for _, row := range rows {
		w.Write([]string{
			fmt.Sprintf("%s: %s", row.Stage, row.Reason),
			strconv.Itoa(row.LineNumber),
			row.Record.String(),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
