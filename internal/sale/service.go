// Package sale settles purchases against the pool curve and unwinds the
// resulting positions through claim, withdraw and rollback.
//
// Every exported operation runs inside a single storage.Store.Update, so a
// failure at any step leaves the pool, positions, summaries and token
// balances exactly as they were. Events are emitted only after commit.
package sale

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"walienPool/internal/curve"
	"walienPool/internal/errs"
	"walienPool/internal/model"
	"walienPool/internal/storage"
)

// PricingEngine prices one swap step.
type PricingEngine interface {
	ComputeSwap(in curve.SwapInput) (curve.SwapStep, error)
}

// EventSink receives committed events. Delivery failures are logged and do
// not undo the operation.
type EventSink interface {
	Emit(ctx context.Context, ev model.Event) error
}

// Service is the settlement and unwind service of one pool deployment.
type Service struct {
	store  storage.Store
	addrs  Addresses
	signer authority
	engine PricingEngine
	sink   EventSink
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger for settlement and rejection logs.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces the wall clock used for position timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithEventSink sets where events go after each committed operation.
func WithEventSink(sink EventSink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithEngine replaces the pricing engine.
func WithEngine(engine PricingEngine) Option {
	return func(s *Service) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// New builds a Service for programID over store.
func New(store storage.Store, programID solana.PublicKey, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	addrs, err := DeriveAddresses(programID)
	if err != nil {
		return nil, err
	}
	signer, err := newAuthority(programID, addrs.Bump)
	if err != nil {
		return nil, err
	}
	s := &Service{
		store:  store,
		addrs:  addrs,
		signer: signer,
		engine: curve.NewEngine(),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Addresses returns the derived addresses of the deployment.
func (s *Service) Addresses() Addresses {
	return s.addrs
}

// Store exposes the ledger the service writes to.
func (s *Service) Store() storage.Store {
	return s.store
}

func (s *Service) emit(ctx context.Context, ev model.Event) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Emit(ctx, ev); err != nil {
		s.logger.Warn("emit event", zap.String("event", ev.EventName()), zap.Error(err))
	}
}

func (s *Service) reject(op string, err error, fields ...zap.Field) error {
	codespace, code := errs.Code(err)
	fields = append(fields,
		zap.String("codespace", codespace),
		zap.Uint32("code", code),
		zap.Error(err),
	)
	s.logger.Warn(op+" rejected", fields...)
	return err
}
