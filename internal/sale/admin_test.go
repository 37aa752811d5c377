package sale

import (
	"context"
	"errors"
	"testing"

	errorsmod "cosmossdk.io/errors"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"walienPool/internal/curve"
	"walienPool/internal/custody"
	"walienPool/internal/errs"
	"walienPool/internal/model"
	"walienPool/internal/storage"
)

func TestDeriveAddressesIsDeterministic(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	a, err := DeriveAddresses(programID)
	require.NoError(t, err)
	b, err := DeriveAddresses(programID)
	require.NoError(t, err)
	require.Equal(t, a, b)

	signer, err := newAuthority(programID, a.Bump)
	require.NoError(t, err)
	require.Equal(t, a.Pool, signer.key)

	p1, err := PositionAddress(programID, a.Pool, 1)
	require.NoError(t, err)
	p2, err := PositionAddress(programID, a.Pool, 2)
	require.NoError(t, err)
	require.NotEqual(t, p1, p2)
}

func TestInitializeCreatesPoolAndVault(t *testing.T) {
	h := newHarness(t)
	pool := h.pool()
	require.Equal(t, h.admin, pool.Admin)
	require.Equal(t, h.stableMint, pool.StableMint)
	require.Equal(t, uint64(1), pool.NextPositionIndex)
	require.Equal(t, h.svc.addrs.Bump, pool.Bump)
	require.True(t, pool.SaleActive)
	require.False(t, pool.ClaimActive)
	require.NotNil(t, pool.SaleMint)
	require.Equal(t, h.saleMint, *pool.SaleMint)

	h.view(func(r storage.Reader) error {
		acct, err := custody.GetAccount(r, h.svc.addrs.Pool)
		require.NoError(t, err)
		require.Len(t, acct.Data, model.PoolSpace)
		require.Equal(t, h.svc.addrs.ProgramID, acct.Owner)

		vault, err := custody.GetTokenAccount(r, h.svc.addrs.StableVault)
		require.NoError(t, err)
		require.Equal(t, h.svc.addrs.Pool, vault.Owner)
		require.Equal(t, h.stableMint, vault.Mint)
		return nil
	})

	_, err := h.svc.Initialize(h.ctx, h.admin, InitParams{
		StableMint:       h.stableMint,
		AvailableForSwap: 1,
		TickUpper:        testTickUpper,
		Liquidity:        *uint256.NewInt(testLiquidity),
		SqrtPrice:        *uint256.NewInt(testSqrtPrice),
	})
	require.True(t, errorsmod.IsOf(err, custody.ErrAccountAlreadyInUse), "got %v", err)
}

func TestInitializeValidation(t *testing.T) {
	valid := func(mint solana.PublicKey) InitParams {
		return InitParams{
			StableMint:       mint,
			AvailableForSwap: testInventory,
			TickUpper:        testTickUpper,
			Liquidity:        *uint256.NewInt(testLiquidity),
			SqrtPrice:        *uint256.NewInt(testSqrtPrice),
		}
	}

	cases := []struct {
		name   string
		mutate func(*InitParams, solana.PublicKey)
		want   *errorsmod.Error
	}{
		{"stable decimals", func(p *InitParams, other solana.PublicKey) { p.StableMint = other }, errs.ErrInvalidUsdcDecimals},
		{"missing mint", func(p *InitParams, _ solana.PublicKey) { p.StableMint = solana.NewWallet().PublicKey() }, errs.ErrInvalidUsdcMint},
		{"price below range", func(p *InitParams, _ solana.PublicKey) { p.SqrtPrice = *uint256.NewInt(1) }, errs.ErrSqrtPriceOutOfBounds},
		{"start above bound", func(p *InitParams, _ solana.PublicKey) { p.TickUpper = -200_000 }, errs.ErrInvalidTickIndex},
		{"bound out of range", func(p *InitParams, _ solana.PublicKey) { p.TickUpper = curve.MaxTick + 1 }, errs.ErrInvalidTickIndex},
		{"fee", func(p *InitParams, _ solana.PublicKey) { p.FeeBps = 601 }, errs.ErrInvalidFeeRate},
		{"cap", func(p *InitParams, _ solana.PublicKey) { p.AvailableForSwap = AbsoluteCap + 1 }, errs.ErrUsdcCapExceeded},
		{"liquidity", func(p *InitParams, _ solana.PublicKey) { p.Liquidity = uint256.Int{} }, errs.ErrLiquidityZero},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := storage.NewMemory()
			svc, err := New(store, solana.NewWallet().PublicKey())
			require.NoError(t, err)

			admin := solana.NewWallet().PublicKey()
			mint := solana.NewWallet().PublicKey()
			nineDecimals := solana.NewWallet().PublicKey()
			require.NoError(t, store.Update(context.Background(), func(tx storage.Tx) error {
				if err := custody.Airdrop(tx, admin, testLamports); err != nil {
					return err
				}
				if err := custody.CreateMint(tx, admin, mint, admin, StableDecimals); err != nil {
					return err
				}
				return custody.CreateMint(tx, admin, nineDecimals, admin, SaleDecimals)
			}))

			p := valid(mint)
			tc.mutate(&p, nineDecimals)
			before := store.Snapshot()
			_, err = svc.Initialize(context.Background(), admin, p)
			require.True(t, errorsmod.IsOf(err, tc.want), "got %v", err)
			require.Equal(t, before, store.Snapshot())
		})
	}
}

func TestAdminGates(t *testing.T) {
	h := newHarnessWith(t, harnessConfig{inventory: testInventory, skipSaleMint: true})
	stranger := h.newBuyer(0)

	require.True(t, errorsmod.IsOf(h.svc.SetSaleActive(h.ctx, stranger, false), errs.ErrConstraintRaw))
	require.True(t, errorsmod.IsOf(h.svc.TransferAdmin(h.ctx, stranger, stranger), errs.ErrConstraintRaw))

	require.True(t, errorsmod.IsOf(h.svc.SetClaimActive(h.ctx, h.admin, true), errs.ErrWalienIsNotSet))
	require.True(t, errorsmod.IsOf(h.svc.DepositSaleToken(h.ctx, h.admin, 1), errs.ErrWalienIsNotSet))

	err := h.svc.SetSaleToken(h.ctx, h.admin, h.stableMint)
	require.True(t, errorsmod.IsOf(err, errs.ErrInvalidWalienDecimals), "got %v", err)

	require.NoError(t, h.svc.SetSaleToken(h.ctx, h.admin, h.saleMint))
	require.NoError(t, h.svc.SetClaimActive(h.ctx, h.admin, true))
	require.True(t, h.pool().ClaimActive)

	require.NoError(t, h.svc.TransferAdmin(h.ctx, h.admin, stranger))
	require.Equal(t, stranger, h.pool().Admin)
	require.True(t, errorsmod.IsOf(h.svc.SetSaleActive(h.ctx, h.admin, false), errs.ErrConstraintRaw))
	require.NoError(t, h.svc.SetSaleActive(h.ctx, stranger, false))
}

func TestSaleTokenInventory(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, uint64(testSaleSupply), h.balance(h.svc.addrs.SaleVault))
	require.Equal(t, uint64(0), h.balance(h.saleAccount(h.admin)))

	moved, err := h.svc.WithdrawSaleToken(h.ctx, h.admin)
	require.NoError(t, err)
	require.Equal(t, uint64(testSaleSupply), moved)
	require.Equal(t, uint64(0), h.balance(h.svc.addrs.SaleVault))
	require.Equal(t, uint64(testSaleSupply), h.balance(h.saleAccount(h.admin)))

	require.NoError(t, h.svc.DepositSaleToken(h.ctx, h.admin, 5))
	require.Equal(t, uint64(5), h.balance(h.svc.addrs.SaleVault))

	err = h.svc.DepositSaleToken(h.ctx, h.admin, testSaleSupply)
	require.True(t, errorsmod.IsOf(err, custody.ErrInsufficientFunds))
}

func TestClaimFailsWithoutSaleInventory(t *testing.T) {
	h := newHarness(t)
	buyer := h.newBuyer(testSpent)
	ev, err := h.svc.Buy(h.ctx, buyer, testSpent, 0)
	require.NoError(t, err)
	require.NoError(t, h.svc.SetClaimActive(h.ctx, h.admin, true))
	_, err = h.svc.WithdrawSaleToken(h.ctx, h.admin)
	require.NoError(t, err)

	before := h.store.Snapshot()
	_, err = h.svc.Claim(h.ctx, buyer, ev.PositionIndex)
	require.True(t, errorsmod.IsOf(err, custody.ErrInsufficientFunds))
	require.Equal(t, before, h.store.Snapshot())
}

type failingSink struct{}

func (failingSink) Emit(context.Context, model.Event) error { return errors.New("sink closed") }

func TestSinkFailureDoesNotUndoBuy(t *testing.T) {
	h := newHarness(t)
	core, logs := observer.New(zap.WarnLevel)
	h.svc.sink = failingSink{}
	h.svc.logger = zap.New(core)

	buyer := h.newBuyer(testSpent)
	_, err := h.svc.Buy(h.ctx, buyer, testSpent, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(2), h.pool().NextPositionIndex)
	require.Equal(t, 1, logs.FilterMessage("emit event").Len())

	_, err = h.svc.Buy(h.ctx, buyer, testSpent, 0)
	require.Error(t, err)
	rejected := logs.FilterMessage("buy rejected").All()
	require.Len(t, rejected, 1)
	require.EqualValues(t, custody.ErrInsufficientFunds.ABCICode(), rejected[0].ContextMap()["code"])
}

func TestAudit(t *testing.T) {
	h := newHarness(t)
	alice := h.newBuyer(2 * testSpent)
	bob := h.newBuyer(testSpent)
	for _, b := range []solana.PublicKey{alice, alice, bob} {
		_, err := h.svc.Buy(h.ctx, b, testSpent, 0)
		require.NoError(t, err)
	}
	_, err := h.svc.Withdraw(h.ctx, bob, 3)
	require.NoError(t, err)

	report, err := h.svc.Audit(h.ctx)
	require.NoError(t, err)
	require.True(t, report.OK(), "%+v", report.Violations)
	require.Equal(t, 2, report.OpenPositions)
	require.Equal(t, 1, report.Owners)
	require.Equal(t, uint64(2*testSpent), report.StableLocked)
	require.Equal(t, report.StableLocked, report.StableVault)

	h.corruptSummary(alice, testSpent, 1)
	report, err = h.svc.Audit(h.ctx)
	require.NoError(t, err)
	require.False(t, report.OK())
	kinds := make([]string, 0, len(report.Violations))
	for _, v := range report.Violations {
		kinds = append(kinds, v.Kind)
	}
	require.ElementsMatch(t, []string{"summary_stable_mismatch", "summary_allocation_mismatch"}, kinds)
}
