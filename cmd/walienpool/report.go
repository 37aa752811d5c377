package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"walienPool/internal/config"
	"walienPool/internal/report"
	"walienPool/internal/storage/postgres"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregate the event log into sale window metrics",
		RunE:  runReport,
	}
	cmd.Flags().String("in", "./data/events.jsonl", "input event log JSONL")
	cmd.Flags().String("window", "1h", "aggregation window (e.g. 5m, 1h)")
	cmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	cmd.Flags().String("state-file", "", "optional local checkpoint file for progress tracking")
	cmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts for window writes")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReport(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	programID := cfg.ProgramID

	logger, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}

	windowDuration, err := time.ParseDuration(cfg.Window)
	if err != nil {
		return fmt.Errorf("invalid window: %w", err)
	}
	if windowDuration <= 0 {
		return fmt.Errorf("window must be positive")
	}
	windowSeconds := uint64(windowDuration.Seconds())
	if windowSeconds == 0 {
		return fmt.Errorf("window must be at least 1s")
	}

	recomputeFrom, err := config.ParseTimestamp(cfg.RecomputeFrom)
	if err != nil {
		return fmt.Errorf("parse recompute-from: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var writer report.MetricsWriter = report.JSONWriter{W: cmd.OutOrStdout()}
	var checkpoints report.CheckpointStore
	if cfg.StateFile != "" {
		checkpoints = &report.FileCheckpointStore{Path: cfg.StateFile}
	}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN, logger)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		writer = store
		if checkpoints == nil {
			checkpoints = &report.DBCheckpointStore{Store: store}
		}
	}

	r := report.NewReporter(report.Config{
		ProgramID:     programID,
		WindowSeconds: windowSeconds,
		BatchSize:     cfg.BatchSize,
		RecomputeFrom: recomputeFrom,
		Checkpoints:   checkpoints,
		MaxRetries:    cfg.MaxRetries,
		RetryBackoff:  cfg.RetryBackoff,
	}, writer, logger)

	logger.Info("report start",
		zap.String("input", cfg.Input),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Uint64("window_seconds", windowSeconds),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Uint64("recompute_from", recomputeFrom),
	)

	return r.Run(ctx, cfg.Input)
}
