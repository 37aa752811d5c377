package events

import (
	"context"

	"go.uber.org/zap"

	"walienPool/internal/model"
)

// LogSink writes events to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(_ context.Context, ev model.Event) error {
	switch e := ev.(type) {
	case model.BuyEvent:
		s.logger.Info("event",
			zap.String("event", e.EventName()),
			zap.String("user", e.User.String()),
			zap.String("user_position", e.UserPosition.String()),
			zap.Uint64("position_index", e.PositionIndex),
			zap.Uint64("usdc_amount", e.UsdcAmount),
			zap.Uint64("walien_amount", e.WalienAmount),
			zap.String("price_after", e.PriceAfter.Dec()),
		)
	case model.ClaimEvent:
		s.logger.Info("event",
			zap.String("event", e.EventName()),
			zap.String("caller", e.Caller.String()),
			zap.String("user", e.User.String()),
			zap.String("user_position", e.UserPosition.String()),
			zap.Uint64("position_index", e.PositionIndex),
			zap.Uint64("walien_amount", e.WalienAmount),
		)
	default:
		s.logger.Info("event", zap.String("event", ev.EventName()), zap.Any("payload", ev))
	}
	return nil
}
