package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/csvxform/internal/logging"
	"github.com/google/uuid"
)

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Extension       string // Input file suffix, default ".csv"
	ContinueOnError bool   // Record file failures and move on instead of aborting
	History         HistoryRecorder
	Logger          *slog.Logger
}

// Service runs batch conversions of a directory.
type Service struct {
	transformer *Transformer
	opts        ServiceOptions
}

// NewService creates a Service around a configured transformer.
func NewService(t *Transformer, opts ServiceOptions) *Service {
	if opts.Extension == "" {
		opts.Extension = DefaultExtension
	}
	if t.Logger == nil {
		t.Logger = opts.Logger
	}
	return &Service{transformer: t, opts: opts}
}

// Run converts every matching file of inputDir into outputDir, one file at
// a time.
//
// A file that fails as a whole stops the run and its error is returned,
// unless ContinueOnError is set. The summary is returned in both cases.
func (s *Service) Run(ctx context.Context, inputDir, outputDir string) (*RunSummary, error) {
	start := time.Now()
	runID := uuid.New().String()
	ctx = logging.ContextWithRunID(ctx, runID)
	logger := logging.FromContext(ctx, s.opts.Logger)

	summary := &RunSummary{RunID: runID}
	defer func() { summary.Duration = time.Since(start) }()

	pairs, err := PairFiles(inputDir, outputDir, s.opts.Extension)
	if err != nil {
		return summary, err
	}
	logger.Info("run started",
		"input_dir", inputDir,
		"output_dir", outputDir,
		"files", len(pairs),
		"layout", s.transformer.Layout.Key,
	)

	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("operation cancelled: %w", err)
		}

		result, fileErr := s.transformer.TransformFile(ctx, pair.Input, pair.Output)
		if result != nil {
			summary.Files = append(summary.Files, result)
		}
		s.record(ctx, logger, pair, result, fileErr)

		if fileErr != nil {
			summary.Errors = append(summary.Errors, FileError{Pair: pair, Err: fileErr})
			msg := MapError(fileErr)
			logger.Error("file failed",
				"input", pair.Input,
				"code", msg.Code,
				"action", msg.Action,
				"error", fileErr,
			)
			if !s.opts.ContinueOnError {
				return summary, fmt.Errorf("transform %s: %w", pair.Input, fileErr)
			}
		}
	}

	logger.Info("run completed",
		"files", len(summary.Files),
		"file_errors", len(summary.Errors),
		"rows_written", summary.Written(),
		"rows_failed", summary.Failed(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return summary, nil
}

// record stores the file outcome in history. History failures are logged,
// never fatal to the run.
func (s *Service) record(ctx context.Context, logger *slog.Logger, pair FilePair, result *FileResult, fileErr error) {
	if s.opts.History == nil {
		return
	}
	if err := s.opts.History.RecordFile(ctx, pair, result, fileErr); err != nil {
		logger.Warn("history record failed", "input", pair.Input, "error", err)
	}
}
