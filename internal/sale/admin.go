package sale

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"walienPool/internal/curve"
	"walienPool/internal/custody"
	"walienPool/internal/errs"
	"walienPool/internal/model"
	"walienPool/internal/storage"
)

// InitParams configures a new pool.
type InitParams struct {
	StableMint       solana.PublicKey
	AvailableForSwap uint64
	TickUpper        int32
	FeeBps           uint16
	Liquidity        uint256.Int
	SqrtPrice        uint256.Int
}

// Initialize creates the pool record and the stable vault. admin pays for both
// and becomes the pool admin. Sale and claim start inactive.
func (s *Service) Initialize(ctx context.Context, admin solana.PublicKey, p InitParams) (model.Pool, error) {
	var pool model.Pool
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		mint, err := custody.GetMint(tx, p.StableMint)
		if err != nil {
			return errorsmod.Wrap(errs.ErrInvalidUsdcMint, err.Error())
		}
		if mint.Decimals != StableDecimals {
			return errorsmod.Wrapf(errs.ErrInvalidUsdcDecimals, "got %d", mint.Decimals)
		}
		if p.SqrtPrice.Lt(curve.MinSqrtPrice) || p.SqrtPrice.Gt(curve.MaxSqrtPrice) {
			return errs.ErrSqrtPriceOutOfBounds
		}
		if _, err := curve.SqrtPriceFromTick(p.TickUpper); err != nil {
			return err
		}
		startTick, err := curve.TickFromSqrtPrice(&p.SqrtPrice)
		if err != nil {
			return err
		}
		if startTick >= p.TickUpper {
			return errorsmod.Wrapf(errs.ErrInvalidTickIndex, "start tick %d is not below tick upper %d", startTick, p.TickUpper)
		}
		if curve.FeeRateFromBps(p.FeeBps) > curve.MaxFeeRate {
			return errs.ErrInvalidFeeRate
		}
		if p.AvailableForSwap > AbsoluteCap {
			return errs.ErrUsdcCapExceeded
		}
		if p.Liquidity.IsZero() {
			return errs.ErrLiquidityZero
		}
		if p.Liquidity.BitLen() > 128 {
			return errs.ErrLiquidityTooHigh
		}

		pool = model.Pool{
			Admin:             admin,
			StableMint:        p.StableMint,
			AvailableForSwap:  p.AvailableForSwap,
			NextPositionIndex: 1,
			Bump:              s.addrs.Bump,
			TickUpper:         p.TickUpper,
			FeeBps:            p.FeeBps,
			Liquidity:         p.Liquidity,
			SqrtPrice:         p.SqrtPrice,
		}
		if err := s.createRecord(tx, admin, s.addrs.Pool, &pool, model.PoolSpace); err != nil {
			return err
		}
		return custody.InitTokenAccount(tx, admin, s.addrs.StableVault, p.StableMint, s.signer.key)
	})
	if err != nil {
		return model.Pool{}, s.reject("initialize", err, zap.String("admin", admin.String()))
	}
	s.logger.Info("pool initialized",
		zap.String("pool", s.addrs.Pool.String()),
		zap.String("admin", admin.String()),
		zap.Uint64("available_for_swap", pool.AvailableForSwap),
		zap.Int32("tick_upper", pool.TickUpper),
		zap.Uint16("fee_bps", pool.FeeBps),
	)
	return pool, nil
}

// SetSaleToken records the sale mint and creates the sale vault if needed.
func (s *Service) SetSaleToken(ctx context.Context, admin, saleMint solana.PublicKey) error {
	return s.adminUpdate(ctx, "set sale token", admin, func(tx storage.Tx, pool *model.Pool) error {
		mint, err := custody.GetMint(tx, saleMint)
		if err != nil {
			return err
		}
		if mint.Decimals != SaleDecimals {
			return errorsmod.Wrapf(errs.ErrInvalidWalienDecimals, "got %d", mint.Decimals)
		}
		exists, err := custody.Exists(tx, s.addrs.SaleVault)
		if err != nil {
			return err
		}
		if exists {
			vault, err := custody.GetTokenAccount(tx, s.addrs.SaleVault)
			if err != nil {
				return err
			}
			if !vault.Mint.Equals(saleMint) {
				return errorsmod.Wrap(errs.ErrConstraintRaw, "sale vault holds another mint")
			}
		} else if err := custody.InitTokenAccount(tx, admin, s.addrs.SaleVault, saleMint, s.signer.key); err != nil {
			return err
		}
		pool.SaleMint = &saleMint
		return nil
	}, zap.String("sale_mint", saleMint.String()))
}

func (s *Service) SetSaleActive(ctx context.Context, admin solana.PublicKey, active bool) error {
	return s.adminUpdate(ctx, "set sale active", admin, func(_ storage.Tx, pool *model.Pool) error {
		pool.SaleActive = active
		return nil
	}, zap.Bool("active", active))
}

// SetClaimActive toggles claiming. The sale token must be set first.
func (s *Service) SetClaimActive(ctx context.Context, admin solana.PublicKey, active bool) error {
	return s.adminUpdate(ctx, "set claim active", admin, func(_ storage.Tx, pool *model.Pool) error {
		if !pool.SaleMintSet() {
			return errs.ErrWalienIsNotSet
		}
		pool.ClaimActive = active
		return nil
	}, zap.Bool("active", active))
}

func (s *Service) TransferAdmin(ctx context.Context, admin, newAdmin solana.PublicKey) error {
	return s.adminUpdate(ctx, "transfer admin", admin, func(_ storage.Tx, pool *model.Pool) error {
		pool.Admin = newAdmin
		return nil
	}, zap.String("new_admin", newAdmin.String()))
}

// DepositSaleToken moves amount from the admin's sale-token account into the
// sale vault.
func (s *Service) DepositSaleToken(ctx context.Context, admin solana.PublicKey, amount uint64) error {
	return s.adminUpdate(ctx, "deposit sale token", admin, func(tx storage.Tx, pool *model.Pool) error {
		if !pool.SaleMintSet() {
			return errs.ErrWalienIsNotSet
		}
		from, err := custody.AssociatedAddress(admin, *pool.SaleMint)
		if err != nil {
			return err
		}
		return custody.Transfer(tx, from, s.addrs.SaleVault, admin, amount)
	}, zap.Uint64("amount", amount))
}

// WithdrawSaleToken empties the sale vault into the admin's sale-token
// account and returns the amount moved.
func (s *Service) WithdrawSaleToken(ctx context.Context, admin solana.PublicKey) (uint64, error) {
	var moved uint64
	err := s.adminUpdate(ctx, "withdraw sale token", admin, func(tx storage.Tx, pool *model.Pool) error {
		if !pool.SaleMintSet() {
			return errs.ErrWalienIsNotSet
		}
		balance, err := custody.Balance(tx, s.addrs.SaleVault)
		if err != nil {
			return err
		}
		to, err := custody.AssociatedAddress(admin, *pool.SaleMint)
		if err != nil {
			return err
		}
		if err := custody.Transfer(tx, s.addrs.SaleVault, to, s.signer.key, balance); err != nil {
			return err
		}
		moved = balance
		return nil
	})
	return moved, err
}

// Pool returns the current pool record.
func (s *Service) Pool(ctx context.Context) (model.Pool, error) {
	var pool model.Pool
	err := s.store.View(ctx, func(r storage.Reader) error {
		var err error
		pool, err = s.loadPool(r)
		return err
	})
	return pool, err
}

// Position returns an open position by index.
func (s *Service) Position(ctx context.Context, index uint64) (model.Position, error) {
	var pos model.Position
	err := s.store.View(ctx, func(r storage.Reader) error {
		var err error
		_, pos, err = s.loadPosition(r, index)
		return err
	})
	return pos, err
}

// Summary returns the summary of owner.
func (s *Service) Summary(ctx context.Context, owner solana.PublicKey) (model.Summary, error) {
	var sum model.Summary
	err := s.store.View(ctx, func(r storage.Reader) error {
		var err error
		_, sum, err = s.loadSummary(r, owner)
		return err
	})
	return sum, err
}

// adminUpdate loads the pool, checks the admin signature, applies fn and
// stores the pool, all in one update.
func (s *Service) adminUpdate(ctx context.Context, op string, admin solana.PublicKey, fn func(storage.Tx, *model.Pool) error, fields ...zap.Field) error {
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		pool, err := s.loadPool(tx)
		if err != nil {
			return err
		}
		if err := requireAdmin(&pool, admin); err != nil {
			return err
		}
		if err := fn(tx, &pool); err != nil {
			return err
		}
		return s.storePool(tx, &pool)
	})
	fields = append(fields, zap.String("admin", admin.String()))
	if err != nil {
		return s.reject(op, err, fields...)
	}
	s.logger.Info(op, fields...)
	return nil
}
