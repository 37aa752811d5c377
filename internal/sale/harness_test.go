package sale

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"walienPool/internal/custody"
	"walienPool/internal/model"
	"walienPool/internal/storage"
)

const (
	testLiquidity = 106167919507750
	testSqrtPrice = 18446744073709552
	testTickUpper = -61081

	// buy(1_000_000) with no fee against the test curve.
	testSpent      = 1_000_000
	testAllocation = 999_990_581_043

	testInventory  = 10_000 * 1_000_000
	testSaleSupply = 1_000_000_000 * 1_000_000_000
	testLamports   = 10_000_000_000
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type recordingSink struct {
	mu     sync.Mutex
	events []model.Event
}

func (s *recordingSink) Emit(_ context.Context, ev model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) all() []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Event(nil), s.events...)
}

type harnessConfig struct {
	inventory    uint64
	feeBps       uint16
	skipSaleMint bool
	inactive     bool
}

type harness struct {
	t          require.TestingT
	ctx        context.Context
	store      *storage.Memory
	svc        *Service
	sink       *recordingSink
	admin      solana.PublicKey
	stableMint solana.PublicKey
	saleMint   solana.PublicKey
}

func newHarness(t require.TestingT) *harness {
	return newHarnessWith(t, harnessConfig{inventory: testInventory})
}

func newHarnessWith(t require.TestingT, cfg harnessConfig) *harness {
	h := &harness{
		t:          t,
		ctx:        context.Background(),
		store:      storage.NewMemory(),
		sink:       &recordingSink{},
		admin:      solana.NewWallet().PublicKey(),
		stableMint: solana.NewWallet().PublicKey(),
		saleMint:   solana.NewWallet().PublicKey(),
	}
	svc, err := New(h.store, solana.NewWallet().PublicKey(),
		WithEventSink(h.sink),
		WithClock(func() time.Time { return testNow }),
	)
	require.NoError(t, err)
	h.svc = svc

	h.update(func(tx storage.Tx) error {
		if err := custody.Airdrop(tx, h.admin, testLamports); err != nil {
			return err
		}
		if err := custody.CreateMint(tx, h.admin, h.stableMint, h.admin, StableDecimals); err != nil {
			return err
		}
		if err := custody.CreateMint(tx, h.admin, h.saleMint, h.admin, SaleDecimals); err != nil {
			return err
		}
		if _, err := custody.CreateAssociatedAccount(tx, h.admin, h.admin, h.stableMint); err != nil {
			return err
		}
		saleATA, err := custody.CreateAssociatedAccount(tx, h.admin, h.admin, h.saleMint)
		if err != nil {
			return err
		}
		return custody.MintTo(tx, h.saleMint, saleATA, h.admin, testSaleSupply)
	})

	_, err = svc.Initialize(h.ctx, h.admin, InitParams{
		StableMint:       h.stableMint,
		AvailableForSwap: cfg.inventory,
		TickUpper:        testTickUpper,
		FeeBps:           cfg.feeBps,
		Liquidity:        *uint256.NewInt(testLiquidity),
		SqrtPrice:        *uint256.NewInt(testSqrtPrice),
	})
	require.NoError(t, err)

	if !cfg.skipSaleMint {
		require.NoError(t, svc.SetSaleToken(h.ctx, h.admin, h.saleMint))
		require.NoError(t, svc.DepositSaleToken(h.ctx, h.admin, testSaleSupply))
	}
	if !cfg.inactive {
		require.NoError(t, svc.SetSaleActive(h.ctx, h.admin, true))
	}
	return h
}

func (h *harness) update(fn func(storage.Tx) error) {
	require.NoError(h.t, h.store.Update(h.ctx, fn))
}

func (h *harness) view(fn func(storage.Reader) error) {
	require.NoError(h.t, h.store.View(h.ctx, fn))
}

// newBuyer creates a funded wallet holding usdc stable tokens.
func (h *harness) newBuyer(usdc uint64) solana.PublicKey {
	buyer := solana.NewWallet().PublicKey()
	h.update(func(tx storage.Tx) error {
		if err := custody.Airdrop(tx, buyer, testLamports); err != nil {
			return err
		}
		ata, err := custody.CreateAssociatedAccount(tx, buyer, buyer, h.stableMint)
		if err != nil {
			return err
		}
		if usdc == 0 {
			return nil
		}
		return custody.MintTo(tx, h.stableMint, ata, h.admin, usdc)
	})
	return buyer
}

func (h *harness) pool() model.Pool {
	pool, err := h.svc.Pool(h.ctx)
	require.NoError(h.t, err)
	return pool
}

func (h *harness) balance(addr solana.PublicKey) uint64 {
	var out uint64
	h.view(func(r storage.Reader) error {
		var err error
		out, err = custody.Balance(r, addr)
		return err
	})
	return out
}

func (h *harness) stableBalance(owner solana.PublicKey) uint64 {
	ata, err := custody.AssociatedAddress(owner, h.stableMint)
	require.NoError(h.t, err)
	return h.balance(ata)
}

func (h *harness) saleAccount(owner solana.PublicKey) solana.PublicKey {
	ata, err := custody.AssociatedAddress(owner, h.saleMint)
	require.NoError(h.t, err)
	return ata
}

func (h *harness) lamports(addr solana.PublicKey) uint64 {
	var out uint64
	h.view(func(r storage.Reader) error {
		var err error
		out, err = custody.Lamports(r, addr)
		return err
	})
	return out
}

func (h *harness) exists(addr solana.PublicKey) bool {
	var ok bool
	h.view(func(r storage.Reader) error {
		var err error
		ok, err = custody.Exists(r, addr)
		return err
	})
	return ok
}

func (h *harness) positionAddress(index uint64) solana.PublicKey {
	addr, err := PositionAddress(h.svc.addrs.ProgramID, h.svc.addrs.Pool, index)
	require.NoError(h.t, err)
	return addr
}

func (h *harness) summaryAddress(owner solana.PublicKey) solana.PublicKey {
	addr, err := SummaryAddress(h.svc.addrs.ProgramID, owner)
	require.NoError(h.t, err)
	return addr
}

// corruptSummary overwrites the owner's summary totals.
func (h *harness) corruptSummary(owner solana.PublicKey, stable, allocation uint64) {
	h.update(func(tx storage.Tx) error {
		addr, sum, err := h.svc.loadSummary(tx, owner)
		if err != nil {
			return err
		}
		sum.TotalStableLocked = stable
		sum.TotalAllocationOwed = allocation
		return h.svc.writeRecord(tx, addr, &sum, model.SummarySpace)
	})
}
