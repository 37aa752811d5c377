package sale

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"walienPool/internal/custody"
	"walienPool/internal/errs"
	"walienPool/internal/model"
	"walienPool/internal/storage"
)

// Buy spends up to amount of the buyer's stable tokens on the curve and
// records the allocation in a new position. The buyer pays for the position
// record and, on a first purchase, for the summary record.
func (s *Service) Buy(ctx context.Context, buyer solana.PublicKey, amount, minimumOutput uint64) (model.BuyEvent, error) {
	var ev model.BuyEvent
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		pool, err := s.loadPool(tx)
		if err != nil {
			return err
		}
		if !pool.SaleActive {
			return errs.ErrSaleNotActive
		}

		q, err := s.price(&pool, amount)
		if err != nil {
			return err
		}
		if q.Transfer > AbsoluteCap || pool.AvailableForSwap > AbsoluteCap {
			return errs.ErrUsdcCapExceeded
		}
		if pool.AvailableForSwap < q.Transfer {
			return errorsmod.Wrapf(errs.ErrInsufficientAvailableForSwap, "need %d, available %d", q.Transfer, pool.AvailableForSwap)
		}
		if q.AmountOut == 0 {
			return errs.ErrZeroTradableAmount
		}
		if q.AmountOut < minimumOutput {
			return errorsmod.Wrapf(errs.ErrSlippageExceeded, "out %d, minimum %d", q.AmountOut, minimumOutput)
		}

		buyerATA, err := custody.AssociatedAddress(buyer, pool.StableMint)
		if err != nil {
			return err
		}
		if err := custody.Transfer(tx, buyerATA, s.addrs.StableVault, buyer, q.Transfer); err != nil {
			return err
		}

		index := pool.NextPositionIndex
		now := s.now().Unix()
		posAddr, err := PositionAddress(s.addrs.ProgramID, s.addrs.Pool, index)
		if err != nil {
			return err
		}
		pos := model.Position{
			Owner:       buyer,
			Index:       index,
			StableSpent: q.Transfer,
			Allocation:  q.AmountOut,
			CreatedAt:   now,
		}
		if err := s.createRecord(tx, buyer, posAddr, &pos, model.PositionSpace); err != nil {
			return err
		}

		if err := s.recordPurchase(tx, buyer, q.Transfer, q.AmountOut, index, now); err != nil {
			return err
		}

		pool.AvailableForSwap -= q.Transfer
		pool.SqrtPrice = *q.NextSqrtPrice
		next, overflow := math.SafeAdd(pool.NextPositionIndex, 1)
		if overflow {
			return errs.ErrAmountCalcOverflow
		}
		pool.NextPositionIndex = next
		if err := s.storePool(tx, &pool); err != nil {
			return err
		}

		ev = model.BuyEvent{
			User:          buyer,
			UserPosition:  posAddr,
			PositionIndex: index,
			UsdcAmount:    q.Transfer,
			WalienAmount:  q.AmountOut,
			PriceAfter:    *q.NextSqrtPrice,
		}
		return nil
	})
	if err != nil {
		return model.BuyEvent{}, s.reject("buy", err,
			zap.String("buyer", buyer.String()),
			zap.Uint64("amount", amount),
			zap.Uint64("minimum_output", minimumOutput),
		)
	}

	s.logger.Info("buy settled",
		zap.String("buyer", buyer.String()),
		zap.Uint64("position_index", ev.PositionIndex),
		zap.Uint64("usdc_amount", ev.UsdcAmount),
		zap.Uint64("walien_amount", ev.WalienAmount),
		zap.String("price_after", ev.PriceAfter.Dec()),
	)
	s.emit(ctx, ev)
	return ev, nil
}

// recordPurchase creates the buyer's summary on first purchase and adds the
// new position to its totals.
func (s *Service) recordPurchase(tx storage.Tx, buyer solana.PublicKey, spent, allocation, index uint64, now int64) error {
	addr, sum, err := s.loadSummary(tx, buyer)
	created := false
	if errorsmod.IsOf(err, errs.ErrAccountNotInitialized) {
		sum = model.Summary{Owner: buyer}
		created = true
	} else if err != nil {
		return err
	}

	var overflow bool
	if sum.TotalStableLocked, overflow = math.SafeAdd(sum.TotalStableLocked, spent); overflow {
		return errs.ErrAmountCalcOverflow
	}
	if sum.TotalAllocationOwed, overflow = math.SafeAdd(sum.TotalAllocationOwed, allocation); overflow {
		return errs.ErrAmountCalcOverflow
	}
	if sum.PositionCount, overflow = math.SafeAdd(sum.PositionCount, 1); overflow {
		return errs.ErrAmountCalcOverflow
	}
	sum.LastGlobalIndex = index
	sum.LastPurchaseAt = now

	if created {
		addr, err = SummaryAddress(s.addrs.ProgramID, buyer)
		if err != nil {
			return err
		}
		return s.createRecord(tx, buyer, addr, &sum, model.SummarySpace)
	}
	return s.writeRecord(tx, addr, &sum, model.SummarySpace)
}
