package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"walienPool/internal/storage"
)

// ledgerLockKey serializes ledger writers across processes sharing the database.
const ledgerLockKey int64 = 0x77616c69656e

type txReader struct {
	ctx context.Context
	tx  pgx.Tx
}

func (r txReader) Get(key []byte) ([]byte, error) {
	var value []byte
	err := r.tx.QueryRow(r.ctx, `SELECT value FROM ledger_accounts WHERE key=$1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger get: %w", err)
	}
	return value, nil
}

// View runs fn against a read-only repeatable-read snapshot.
func (s *Store) View(ctx context.Context, fn func(storage.Reader) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	return pgx.BeginTxFunc(ctx, s.pool, opts, func(tx pgx.Tx) error {
		return fn(txReader{ctx: ctx, tx: tx})
	})
}

// Update runs fn under the ledger advisory lock and writes the staged
// mutations in the same transaction.
func (s *Store) Update(ctx context.Context, fn func(storage.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerLockKey); err != nil {
			return fmt.Errorf("ledger lock: %w", err)
		}

		staged := storage.NewStaged(txReader{ctx: ctx, tx: tx})
		if err := fn(staged); err != nil {
			return err
		}

		writes := staged.Writes()
		if len(writes) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for _, w := range writes {
			if w.Delete {
				batch.Queue(`DELETE FROM ledger_accounts WHERE key=$1`, w.Key)
				continue
			}
			batch.Queue(`
				INSERT INTO ledger_accounts (key, value, updated_at)
				VALUES ($1, $2, now())
				ON CONFLICT (key) DO UPDATE
				SET value = EXCLUDED.value, updated_at = now()
			`, w.Key, w.Value)
		}

		br := tx.SendBatch(ctx, batch)
		for range writes {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("ledger write: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("ledger write: %w", err)
		}
		s.logger.Debug("ledger transaction committed", zap.Int("writes", len(writes)))
		return nil
	})
}
