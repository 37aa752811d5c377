package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"walienPool/internal/model"
)

// Store provides Postgres persistence for the sale ledger and report metrics.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewStore(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, logger: logger}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// EnsureSchema creates the tables used by the store when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS ledger_accounts (
		key BYTEA PRIMARY KEY,
		value BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS sale_window_metrics (
		program_id TEXT NOT NULL,
		window_size_seconds BIGINT NOT NULL,
		window_start_ts TIMESTAMPTZ NOT NULL,
		window_end_ts TIMESTAMPTZ NOT NULL,
		buy_count BIGINT NOT NULL,
		claim_count BIGINT NOT NULL,
		unique_buyers BIGINT NOT NULL,
		stable_volume NUMERIC NOT NULL,
		allocation_sold NUMERIC NOT NULL,
		allocation_claimed NUMERIC NOT NULL,
		last_sqrt_price NUMERIC,
		last_price NUMERIC,
		avg_price NUMERIC,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (program_id, window_size_seconds, window_start_ts)
	)`,
	`CREATE TABLE IF NOT EXISTS report_checkpoints (
		name TEXT PRIMARY KEY,
		program_id TEXT NOT NULL,
		window_size_seconds BIGINT NOT NULL,
		last_seq BIGINT NOT NULL,
		open_window_start_ts BIGINT NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// UpsertWindowMetrics inserts or updates window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.SaleWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO sale_window_metrics (
				program_id, window_size_seconds, window_start_ts, window_end_ts,
				buy_count, claim_count, unique_buyers, stable_volume, allocation_sold,
				allocation_claimed, last_sqrt_price, last_price, avg_price, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,now(),now())
			ON CONFLICT (program_id, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				buy_count = EXCLUDED.buy_count,
				claim_count = EXCLUDED.claim_count,
				unique_buyers = EXCLUDED.unique_buyers,
				stable_volume = EXCLUDED.stable_volume,
				allocation_sold = EXCLUDED.allocation_sold,
				allocation_claimed = EXCLUDED.allocation_claimed,
				last_sqrt_price = EXCLUDED.last_sqrt_price,
				last_price = EXCLUDED.last_price,
				avg_price = EXCLUDED.avg_price,
				updated_at = now()
		`,
			m.ProgramID,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.BuyCount),
			int64(m.ClaimCount),
			int64(m.UniqueBuyers),
			m.StableVolume,
			m.AllocationSold,
			m.AllocationClaim,
			m.LastSqrtPrice,
			m.LastPrice,
			m.AvgPrice,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range metrics {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadReportCheckpoint returns the named report checkpoint.
func (s *Store) LoadReportCheckpoint(ctx context.Context, name string) (model.ReportCheckpoint, bool, error) {
	if name == "" {
		return model.ReportCheckpoint{}, false, fmt.Errorf("checkpoint name required")
	}
	var (
		cp         model.ReportCheckpoint
		lastSeq    int64
		openWindow int64
	)
	row := s.pool.QueryRow(ctx, `
		SELECT program_id, window_size_seconds, last_seq, open_window_start_ts, updated_at
		FROM report_checkpoints WHERE name=$1`, name)
	if err := row.Scan(&cp.ProgramID, &cp.WindowSizeSecs, &lastSeq, &openWindow, &cp.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ReportCheckpoint{}, false, nil
		}
		return model.ReportCheckpoint{}, false, err
	}
	cp.LastSeq = uint64(lastSeq)
	cp.OpenWindowStart = uint64(openWindow)
	return cp, true, nil
}

// SaveReportCheckpoint upserts the named report checkpoint.
func (s *Store) SaveReportCheckpoint(ctx context.Context, name string, cp model.ReportCheckpoint) error {
	if name == "" {
		return fmt.Errorf("checkpoint name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO report_checkpoints (name, program_id, window_size_seconds, last_seq, open_window_start_ts, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (name) DO UPDATE
		SET program_id = EXCLUDED.program_id,
			window_size_seconds = EXCLUDED.window_size_seconds,
			last_seq = EXCLUDED.last_seq,
			open_window_start_ts = EXCLUDED.open_window_start_ts,
			updated_at = now()
	`, name, cp.ProgramID, cp.WindowSizeSecs, int64(cp.LastSeq), int64(cp.OpenWindowStart))
	return err
}
