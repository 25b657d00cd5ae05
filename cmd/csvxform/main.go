// Command csvxform converts every CSV file of an input directory to a
// registered output layout.
//
// Usage:
//
//	csvxform [input_dir output_dir]
//
// Directories default to XFORM_INPUT_DIR and XFORM_OUTPUT_DIR.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/csvxform/internal/config"
	"github.com/JonMunkholm/csvxform/internal/core"
	_ "github.com/JonMunkholm/csvxform/internal/core/layouts" // Register all layouts
	"github.com/JonMunkholm/csvxform/internal/history"
	"github.com/JonMunkholm/csvxform/internal/logging"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("csvxform failed", "code", core.MapError(err).Code, "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// Load .env file if it exists; real environment variables win
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	switch len(args) {
	case 0:
	case 2:
		cfg.Transform.InputDir, cfg.Transform.OutputDir = args[0], args[1]
	default:
		return fmt.Errorf("usage: csvxform [input_dir output_dir]")
	}

	slog.Debug("configuration loaded", "config", cfg.String())

	layout, err := core.Lookup(cfg.Transform.Layout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := core.ServiceOptions{
		Extension:       cfg.Transform.Extension,
		ContinueOnError: cfg.Transform.ContinueOnError,
	}

	if cfg.Database.HistoryEnabled() {
		pool, err := connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		store := history.NewStore(pool, layout.Key)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		opts.History = store
		slog.Info("history enabled", "backend", "postgres", "table", history.TableName)
	} else if cfg.Database.SQLiteHistoryEnabled() {
		store, err := history.OpenSQLite(cfg.Database.SQLitePath, layout.Key)
		if err != nil {
			return err
		}
		defer store.Close()

		opts.History = store
		slog.Info("history enabled", "backend", "sqlite", "path", cfg.Database.SQLitePath)
	}

	service := core.NewService(&core.Transformer{
		Layout:          layout,
		Verbose:         cfg.Transform.Verbose,
		UseCRLF:         cfg.Transform.UseCRLF,
		WriteFailedRows: cfg.Transform.WriteFailedRows,
	}, opts)

	summary, err := service.Run(ctx, cfg.Transform.InputDir, cfg.Transform.OutputDir)
	if err != nil {
		return err
	}
	if len(summary.Errors) > 0 {
		return fmt.Errorf("%d file(s) failed", len(summary.Errors))
	}
	return nil
}

// connect opens the history connection pool.
func connect(ctx context.Context, dbCfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dbCfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(dbCfg.MaxConns)
	poolConfig.MinConns = int32(dbCfg.MinConns)
	poolConfig.MaxConnLifetime = dbCfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = dbCfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
