package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"go.uber.org/zap"

	"walienPool/internal/model"
)

const maxWriteBackoff = 30 * time.Second

// writePolicy retries window writes with doubling backoff. A write that
// fails because the run was cancelled is not retried.
type writePolicy struct {
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

func newWritePolicy(maxRetries int, backoff time.Duration, logger *zap.Logger) writePolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	return writePolicy{maxRetries: maxRetries, backoff: backoff, logger: logger}
}

func (p writePolicy) write(ctx context.Context, w MetricsWriter, batch []model.SaleWindowMetrics) error {
	attempts := 0
	err := retry.Do(func() error {
		attempts++
		return w.UpsertWindowMetrics(ctx, batch)
	},
		retry.Context(ctx),
		retry.Attempts(uint(p.maxRetries)+1),
		retry.Delay(p.backoff),
		retry.MaxDelay(maxWriteBackoff),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && ctx.Err() == nil
		}),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Warn("write windows",
				zap.Uint("attempt", n+1),
				zap.Int("windows", len(batch)),
				zap.Time("first_window", batch[0].WindowStart),
				zap.Error(err),
			)
		}),
	)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}
	return fmt.Errorf("write %d windows after %d attempts: %w", len(batch), attempts, err)
}
