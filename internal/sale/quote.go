package sale

import (
	"context"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"walienPool/internal/curve"
	"walienPool/internal/errs"
	"walienPool/internal/model"
	"walienPool/internal/storage"
)

// Quote is the priced outcome of a buy against the current pool state.
type Quote struct {
	AmountIn      uint64          `json:"amount_in"`
	Fee           uint64          `json:"fee"`
	AmountOut     uint64          `json:"amount_out"`
	Transfer      uint64          `json:"transfer"`
	NextSqrtPrice *uint256.Int    `json:"next_sqrt_price"`
	Price         decimal.Decimal `json:"price"`
}

// Quote returns the sale tokens a buy of amount would receive now. It never
// writes to the ledger.
func (s *Service) Quote(ctx context.Context, amount uint64) (uint64, error) {
	q, err := s.QuoteDetail(ctx, amount)
	if err != nil {
		return 0, err
	}
	return q.AmountOut, nil
}

// QuoteDetail is Quote with the full swap step and the post-trade price.
func (s *Service) QuoteDetail(ctx context.Context, amount uint64) (Quote, error) {
	var q Quote
	err := s.store.View(ctx, func(r storage.Reader) error {
		pool, err := s.loadPool(r)
		if err != nil {
			return err
		}
		q, err = s.price(&pool, amount)
		return err
	})
	return q, err
}

// price runs the engine against pool and checks the stable amount it would
// take. It performs no inventory or slippage checks.
func (s *Service) price(pool *model.Pool, amount uint64) (Quote, error) {
	target, err := curve.SqrtPriceFromTick(pool.TickUpper)
	if err != nil {
		return Quote{}, err
	}
	step, err := s.engine.ComputeSwap(curve.SwapInput{
		Amount:          amount,
		FeeRate:         curve.FeeRateFromBps(pool.FeeBps),
		Liquidity:       pool.Liquidity,
		SqrtPrice:       pool.SqrtPrice,
		SqrtPriceTarget: *target,
		AmountIsInput:   true,
		AToB:            false,
	})
	if err != nil {
		return Quote{}, err
	}
	transfer, overflow := math.SafeAdd(step.AmountIn, step.FeeAmount)
	if overflow {
		return Quote{}, errs.ErrAmountCalcOverflow
	}
	next := step.NextSqrtPrice
	return Quote{
		AmountIn:      step.AmountIn,
		Fee:           step.FeeAmount,
		AmountOut:     step.AmountOut,
		Transfer:      transfer,
		NextSqrtPrice: &next,
		Price:         curve.UIPrice(&next, SaleDecimals, StableDecimals),
	}, nil
}
