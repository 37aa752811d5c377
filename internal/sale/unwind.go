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

// Refund describes a position cancelled by Withdraw or Rollback.
type Refund struct {
	Owner         solana.PublicKey `json:"owner"`
	UserPosition  solana.PublicKey `json:"user_position"`
	PositionIndex uint64           `json:"position_index"`
	UsdcAmount    uint64           `json:"usdc_amount"`
	Forfeited     uint64           `json:"forfeited_allocation"`
	SummaryClosed bool             `json:"summary_closed"`
}

// Claim delivers a position's allocation to its owner and releases the
// stable tokens it locked to the admin. Anyone may call it. When the owner has
// no sale-token account yet, the caller pays to create one and receives the
// position's rent; otherwise the rent goes back to the owner.
func (s *Service) Claim(ctx context.Context, caller solana.PublicKey, index uint64) (model.ClaimEvent, error) {
	var ev model.ClaimEvent
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		pool, err := s.loadPool(tx)
		if err != nil {
			return err
		}
		if !pool.ClaimActive {
			return errs.ErrClaimIsNotActive
		}
		if !pool.SaleMintSet() {
			return errs.ErrWalienIsNotSet
		}
		posAddr, pos, err := s.loadPosition(tx, index)
		if err != nil {
			return err
		}
		if pos.Allocation == 0 {
			return errs.ErrNothingToClaim
		}
		allocation, spent := pos.Allocation, pos.StableSpent

		dest, existed, err := s.resolveSaleAccount(tx, caller, pos.Owner, *pool.SaleMint)
		if err != nil {
			return err
		}
		if err := custody.Transfer(tx, s.addrs.SaleVault, dest, s.signer.key, allocation); err != nil {
			return err
		}
		adminATA, err := custody.AssociatedAddress(pool.Admin, pool.StableMint)
		if err != nil {
			return err
		}
		if err := custody.Transfer(tx, s.addrs.StableVault, adminATA, s.signer.key, spent); err != nil {
			return err
		}

		ev = model.ClaimEvent{
			Caller:        caller,
			User:          pos.Owner,
			UserPosition:  posAddr,
			PositionIndex: pos.Index,
			WalienAmount:  allocation,
		}

		recipient := caller
		if existed {
			recipient = pos.Owner
		}
		if _, err := s.releaseSummary(tx, pos.Owner, spent, allocation, recipient); err != nil {
			return err
		}
		return s.consumePosition(tx, posAddr, &pos, recipient)
	})
	if err != nil {
		return model.ClaimEvent{}, s.reject("claim", err,
			zap.String("caller", caller.String()),
			zap.Uint64("position_index", index),
		)
	}

	s.logger.Info("position claimed",
		zap.String("caller", caller.String()),
		zap.String("owner", ev.User.String()),
		zap.Uint64("position_index", ev.PositionIndex),
		zap.Uint64("walien_amount", ev.WalienAmount),
	)
	s.emit(ctx, ev)
	return ev, nil
}

// Withdraw cancels one of the caller's own positions and refunds the stable
// tokens it locked. The allocation is forfeited.
func (s *Service) Withdraw(ctx context.Context, owner solana.PublicKey, index uint64) (Refund, error) {
	var refund Refund
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		pool, err := s.loadPool(tx)
		if err != nil {
			return err
		}
		posAddr, pos, err := s.loadPosition(tx, index)
		if err != nil {
			return err
		}
		if !pos.Owner.Equals(owner) {
			return errorsmod.Wrapf(errs.ErrConstraintRaw, "%s does not own position %d", owner, index)
		}
		refund, err = s.unwind(tx, &pool, posAddr, &pos, owner)
		return err
	})
	if err != nil {
		return Refund{}, s.reject("withdraw", err,
			zap.String("owner", owner.String()),
			zap.Uint64("position_index", index),
		)
	}
	s.logger.Info("position withdrawn",
		zap.String("owner", owner.String()),
		zap.Uint64("position_index", refund.PositionIndex),
		zap.Uint64("usdc_amount", refund.UsdcAmount),
	)
	return refund, nil
}

// Rollback is the admin-triggered Withdraw for any owner's position. Rent is
// returned to the owner.
func (s *Service) Rollback(ctx context.Context, admin solana.PublicKey, index uint64) (Refund, error) {
	var refund Refund
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		pool, err := s.loadPool(tx)
		if err != nil {
			return err
		}
		if err := requireAdmin(&pool, admin); err != nil {
			return err
		}
		posAddr, pos, err := s.loadPosition(tx, index)
		if err != nil {
			return err
		}
		refund, err = s.unwind(tx, &pool, posAddr, &pos, pos.Owner)
		return err
	})
	if err != nil {
		return Refund{}, s.reject("rollback", err,
			zap.String("admin", admin.String()),
			zap.Uint64("position_index", index),
		)
	}
	s.logger.Info("position rolled back",
		zap.String("owner", refund.Owner.String()),
		zap.Uint64("position_index", refund.PositionIndex),
		zap.Uint64("usdc_amount", refund.UsdcAmount),
	)
	return refund, nil
}

// unwind returns a position's stable tokens to its owner and restores them to
// the sale inventory.
func (s *Service) unwind(tx storage.Tx, pool *model.Pool, posAddr solana.PublicKey, pos *model.Position, rentRecipient solana.PublicKey) (Refund, error) {
	vault, err := custody.Balance(tx, s.addrs.StableVault)
	if err != nil {
		return Refund{}, err
	}
	if vault == 0 {
		return Refund{}, errs.ErrWithdrawNotAllowed
	}
	spent, allocation := pos.StableSpent, pos.Allocation

	available, overflow := math.SafeAdd(pool.AvailableForSwap, spent)
	if overflow {
		return Refund{}, errs.ErrAmountCalcOverflow
	}
	pool.AvailableForSwap = available
	if err := s.storePool(tx, pool); err != nil {
		return Refund{}, err
	}

	closed, err := s.releaseSummary(tx, pos.Owner, spent, allocation, rentRecipient)
	if err != nil {
		return Refund{}, err
	}

	ownerATA, err := custody.AssociatedAddress(pos.Owner, pool.StableMint)
	if err != nil {
		return Refund{}, err
	}
	if err := custody.Transfer(tx, s.addrs.StableVault, ownerATA, s.signer.key, spent); err != nil {
		return Refund{}, err
	}
	if err := s.consumePosition(tx, posAddr, pos, rentRecipient); err != nil {
		return Refund{}, err
	}
	return Refund{
		Owner:         pos.Owner,
		UserPosition:  posAddr,
		PositionIndex: pos.Index,
		UsdcAmount:    spent,
		Forfeited:     allocation,
		SummaryClosed: closed,
	}, nil
}

// releaseSummary removes a position's amounts from its owner's summary and
// closes the summary once both totals are zero. It reports whether the
// summary was closed.
func (s *Service) releaseSummary(tx storage.Tx, owner solana.PublicKey, spent, allocation uint64, recipient solana.PublicKey) (bool, error) {
	addr, sum, err := s.loadSummary(tx, owner)
	if err != nil {
		return false, err
	}
	var underflow bool
	if sum.TotalStableLocked, underflow = math.SafeSub(sum.TotalStableLocked, spent); underflow {
		return false, errs.ErrUserSummaryUnderflow
	}
	if sum.TotalAllocationOwed, underflow = math.SafeSub(sum.TotalAllocationOwed, allocation); underflow {
		return false, errs.ErrUserSummaryUnderflow
	}
	if sum.Empty() {
		return true, s.closeRecord(tx, addr, recipient)
	}
	return false, s.writeRecord(tx, addr, &sum, model.SummarySpace)
}

func (s *Service) consumePosition(tx storage.Tx, addr solana.PublicKey, pos *model.Position, recipient solana.PublicKey) error {
	pos.Allocation = 0
	if err := s.writeRecord(tx, addr, pos, model.PositionSpace); err != nil {
		return err
	}
	return s.closeRecord(tx, addr, recipient)
}

// resolveSaleAccount returns the owner's associated sale-token account,
// creating it at the caller's expense when missing. existed reports whether
// it was already there.
func (s *Service) resolveSaleAccount(tx storage.Tx, caller, owner, mint solana.PublicKey) (addr solana.PublicKey, existed bool, err error) {
	addr, err = custody.AssociatedAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, false, err
	}
	acct, err := custody.GetAccount(tx, addr)
	switch {
	case errorsmod.IsOf(err, custody.ErrAccountNotFound):
	case err != nil:
		return solana.PublicKey{}, false, err
	case acct.Owner.Equals(solana.TokenProgramID) && len(acct.Data) > 0:
		existed = true
	}

	if existed {
		ta, err := custody.GetTokenAccount(tx, addr)
		if err != nil {
			return solana.PublicKey{}, false, errorsmod.Wrap(errs.ErrInvalidWalienTokenAccount, err.Error())
		}
		if !ta.Mint.Equals(mint) || !ta.Owner.Equals(owner) {
			return solana.PublicKey{}, false, errs.ErrInvalidWalienTokenAccount
		}
		return addr, true, nil
	}
	if _, err := custody.CreateAssociatedAccount(tx, caller, owner, mint); err != nil {
		return solana.PublicKey{}, false, err
	}
	return addr, false, nil
}

func requireAdmin(pool *model.Pool, signer solana.PublicKey) error {
	if !pool.Admin.Equals(signer) {
		return errorsmod.Wrapf(errs.ErrConstraintRaw, "%s is not the pool admin", signer)
	}
	return nil
}
