// Package report rolls the sale event log up into fixed time windows.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"walienPool/internal/events"
	"walienPool/internal/model"
	"walienPool/internal/sale"
)

// Config controls report behavior. RecomputeFrom, when set, ignores the
// checkpoint and rebuilds every window from the one containing it.
type Config struct {
	ProgramID     string
	WindowSeconds uint64
	BatchSize     int
	RecomputeFrom uint64
	Checkpoints   CheckpointStore
	MaxRetries    int
	RetryBackoff  time.Duration
}

// MetricsWriter persists finished windows.
type MetricsWriter interface {
	UpsertWindowMetrics(ctx context.Context, metrics []model.SaleWindowMetrics) error
}

// Reporter aggregates event records into sale window metrics.
type Reporter struct {
	cfg    Config
	writer MetricsWriter
	logger *zap.Logger

	open     *Accumulator
	consumed uint64
}

func NewReporter(cfg Config, writer MetricsWriter, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{cfg: cfg, writer: writer, logger: logger}
}

// Run executes aggregation over an event log JSONL file. Closed windows are
// written in batches and the open window once at the end of the run, so it may
// be partial; the checkpoint stops before it and the next run rebuilds it whole.
func (r *Reporter) Run(ctx context.Context, inputPath string) error {
	if r.writer == nil {
		return fmt.Errorf("metrics writer is nil")
	}
	if r.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if r.cfg.BatchSize <= 0 {
		r.cfg.BatchSize = 1000
	}

	afterSeq, err := r.resumeSeq(ctx)
	if err != nil {
		return err
	}
	var fromTs uint64
	if r.cfg.RecomputeFrom > 0 {
		fromTs = windowStart(r.cfg.RecomputeFrom, r.cfg.WindowSeconds)
	}

	policy := newWritePolicy(r.cfg.MaxRetries, r.cfg.RetryBackoff, r.logger)
	batch := make([]model.SaleWindowMetrics, 0, r.cfg.BatchSize)
	r.open = nil
	r.consumed = afterSeq
	var total, windows, skipped, failed int

	err = events.ReadRecords(inputPath, func(record model.EventRecord) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		total++
		if record.Seq <= afterSeq {
			skipped++
			return nil
		}
		if record.Timestamp < 0 {
			failed++
			r.consumed = record.Seq
			r.logger.Warn("negative event timestamp", zap.String("id", record.ID), zap.Uint64("seq", record.Seq))
			return nil
		}
		ts := uint64(record.Timestamp)
		if ts < fromTs {
			skipped++
			r.consumed = record.Seq
			return nil
		}

		start := windowStart(ts, r.cfg.WindowSeconds)
		if r.open != nil && r.open.WindowStart != start {
			batch = append(batch, r.flushAccumulator(r.open))
			windows++
			r.open = nil
		}
		if r.open == nil {
			r.open = NewAccumulator(start, start+r.cfg.WindowSeconds)
			r.open.FirstSeq = record.Seq
		}
		r.consumed = record.Seq

		if err := r.open.AddEvent(record, ts); err != nil {
			failed++
			r.logger.Warn("aggregate event", zap.Error(err), zap.String("event", record.EventName), zap.Uint64("seq", record.Seq))
			return nil
		}

		if len(batch) >= r.cfg.BatchSize {
			if err := policy.write(ctx, r.writer, batch); err != nil {
				return err
			}
			batch = batch[:0]
			return r.saveCheckpoint(ctx)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if r.open != nil {
		batch = append(batch, r.flushAccumulator(r.open))
		windows++
	}
	if len(batch) > 0 {
		if err := policy.write(ctx, r.writer, batch); err != nil {
			return err
		}
	}
	if err := r.saveCheckpoint(ctx); err != nil {
		return err
	}
	r.open = nil

	r.logger.Info("report complete",
		zap.Int("total", total),
		zap.Int("windows", windows),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Uint64("last_seq", r.consumed),
	)
	return nil
}

// resumeSeq returns the sequence after which records still need reading.
func (r *Reporter) resumeSeq(ctx context.Context) (uint64, error) {
	if r.cfg.RecomputeFrom > 0 || r.cfg.Checkpoints == nil {
		return 0, nil
	}
	cp, ok, err := r.cfg.Checkpoints.Load(ctx, r.cfg.ProgramID, int64(r.cfg.WindowSeconds))
	if err != nil {
		return 0, fmt.Errorf("load checkpoint: %w", err)
	}
	if !ok {
		return 0, nil
	}
	r.logger.Info("resume report",
		zap.Uint64("last_seq", cp.LastSeq),
		zap.Uint64("open_window_start", cp.OpenWindowStart),
	)
	return cp.LastSeq, nil
}

// saveCheckpoint records progress up to, but not into, the open window.
func (r *Reporter) saveCheckpoint(ctx context.Context) error {
	if r.cfg.Checkpoints == nil {
		return nil
	}
	cp := model.ReportCheckpoint{
		ProgramID:      r.cfg.ProgramID,
		WindowSizeSecs: int64(r.cfg.WindowSeconds),
		LastSeq:        r.consumed,
	}
	if r.open != nil && r.open.FirstSeq > 0 {
		cp.LastSeq = r.open.FirstSeq - 1
		cp.OpenWindowStart = r.open.WindowStart
	}
	if err := r.cfg.Checkpoints.Save(ctx, cp); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (r *Reporter) flushAccumulator(acc *Accumulator) model.SaleWindowMetrics {
	lastSqrt, lastPrice := computeLastPrice(acc.LastSqrtPrice)
	return model.SaleWindowMetrics{
		ProgramID:       r.cfg.ProgramID,
		WindowSizeSecs:  int64(r.cfg.WindowSeconds),
		WindowStart:     time.Unix(int64(acc.WindowStart), 0).UTC(),
		WindowEnd:       time.Unix(int64(acc.WindowEnd), 0).UTC(),
		BuyCount:        acc.BuyCount,
		ClaimCount:      acc.ClaimCount,
		UniqueBuyers:    acc.UniqueBuyers(),
		StableVolume:    formatTokenAmount(acc.StableVolume, sale.StableDecimals),
		AllocationSold:  formatTokenAmount(acc.AllocationSold, sale.SaleDecimals),
		AllocationClaim: formatTokenAmount(acc.AllocationClaim, sale.SaleDecimals),
		LastSqrtPrice:   lastSqrt,
		LastPrice:       lastPrice,
		AvgPrice:        computeAvgPrice(acc.StableVolume, acc.AllocationSold),
	}
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

// JSONWriter prints windows as JSON lines, for runs without a database.
type JSONWriter struct {
	W io.Writer
}

func (w JSONWriter) UpsertWindowMetrics(_ context.Context, metrics []model.SaleWindowMetrics) error {
	enc := json.NewEncoder(w.W)
	for _, m := range metrics {
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encode window: %w", err)
		}
	}
	return nil
}
