package custody

import (
	"context"
	"testing"

	errorsmod "cosmossdk.io/errors"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"walienPool/internal/model"
	"walienPool/internal/storage"
)

type fixture struct {
	store  *storage.Memory
	payer  solana.PublicKey
	alice  solana.PublicKey
	bob    solana.PublicKey
	mint   solana.PublicKey
	other  solana.PublicKey
	aliceA solana.PublicKey
	bobA   solana.PublicKey
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		store: storage.NewMemory(),
		payer: solana.NewWallet().PublicKey(),
		alice: solana.NewWallet().PublicKey(),
		bob:   solana.NewWallet().PublicKey(),
		mint:  solana.NewWallet().PublicKey(),
		other: solana.NewWallet().PublicKey(),
	}
	f.update(t, func(tx storage.Tx) error {
		if err := Airdrop(tx, f.payer, 1_000_000_000); err != nil {
			return err
		}
		if err := CreateMint(tx, f.payer, f.mint, f.payer, 6); err != nil {
			return err
		}
		if err := CreateMint(tx, f.payer, f.other, f.payer, 9); err != nil {
			return err
		}
		var err error
		if f.aliceA, err = CreateAssociatedAccount(tx, f.payer, f.alice, f.mint); err != nil {
			return err
		}
		if f.bobA, err = CreateAssociatedAccount(tx, f.payer, f.bob, f.mint); err != nil {
			return err
		}
		return MintTo(tx, f.mint, f.aliceA, f.payer, 500)
	})
	return f
}

func (f fixture) update(t *testing.T, fn func(storage.Tx) error) {
	t.Helper()
	require.NoError(t, f.store.Update(context.Background(), fn))
}

func (f fixture) balance(t *testing.T, addr solana.PublicKey) uint64 {
	t.Helper()
	var out uint64
	require.NoError(t, f.store.View(context.Background(), func(r storage.Reader) error {
		var err error
		out, err = Balance(r, addr)
		return err
	}))
	return out
}

func TestRentExempt(t *testing.T) {
	require.Equal(t, uint64(2039280), RentExempt(model.TokenAccountSize))
	require.Equal(t, uint64(1461600), RentExempt(model.MintSize))
	require.Equal(t, uint64(890880), RentExempt(0))
}

func TestTransfer(t *testing.T) {
	f := newFixture(t)

	f.update(t, func(tx storage.Tx) error {
		return Transfer(tx, f.aliceA, f.bobA, f.alice, 200)
	})
	require.Equal(t, uint64(300), f.balance(t, f.aliceA))
	require.Equal(t, uint64(200), f.balance(t, f.bobA))

	err := f.store.Update(context.Background(), func(tx storage.Tx) error {
		return Transfer(tx, f.aliceA, f.bobA, f.bob, 1)
	})
	require.True(t, errorsmod.IsOf(err, ErrOwnerMismatch))

	err = f.store.Update(context.Background(), func(tx storage.Tx) error {
		return Transfer(tx, f.aliceA, f.bobA, f.alice, 301)
	})
	require.True(t, errorsmod.IsOf(err, ErrInsufficientFunds))
	require.Equal(t, uint64(300), f.balance(t, f.aliceA))
}

func TestTransferRejectsMintMismatch(t *testing.T) {
	f := newFixture(t)
	var otherA solana.PublicKey
	f.update(t, func(tx storage.Tx) error {
		var err error
		otherA, err = CreateAssociatedAccount(tx, f.payer, f.bob, f.other)
		return err
	})

	err := f.store.Update(context.Background(), func(tx storage.Tx) error {
		return Transfer(tx, f.aliceA, otherA, f.alice, 1)
	})
	require.True(t, errorsmod.IsOf(err, ErrMintMismatch))
}

func TestCreateAccountChargesRentAndRejectsReuse(t *testing.T) {
	f := newFixture(t)
	before := lamports(t, f.store, f.payer)

	addr := solana.NewWallet().PublicKey()
	f.update(t, func(tx storage.Tx) error {
		return InitTokenAccount(tx, f.payer, addr, f.mint, f.alice)
	})
	require.Equal(t, before-RentExempt(model.TokenAccountSize), lamports(t, f.store, f.payer))

	err := f.store.Update(context.Background(), func(tx storage.Tx) error {
		_, err := CreateAssociatedAccount(tx, f.payer, f.alice, f.mint)
		return err
	})
	require.True(t, errorsmod.IsOf(err, ErrAccountAlreadyInUse))

	poor := solana.NewWallet().PublicKey()
	err = f.store.Update(context.Background(), func(tx storage.Tx) error {
		_, err := CreateAssociatedAccount(tx, poor, poor, f.mint)
		return err
	})
	require.True(t, errorsmod.IsOf(err, ErrInsufficientLamports))
}

func TestCloseAccountRefundsRecipient(t *testing.T) {
	f := newFixture(t)
	recipient := solana.NewWallet().PublicKey()

	var refunded uint64
	f.update(t, func(tx storage.Tx) error {
		var err error
		refunded, err = CloseAccount(tx, f.bobA, recipient)
		return err
	})
	require.Equal(t, RentExempt(model.TokenAccountSize), refunded)
	require.Equal(t, refunded, lamports(t, f.store, recipient))

	require.NoError(t, f.store.View(context.Background(), func(r storage.Reader) error {
		ok, err := Exists(r, f.bobA)
		require.False(t, ok)
		return err
	}))
}

func TestMintToRequiresAuthority(t *testing.T) {
	f := newFixture(t)
	err := f.store.Update(context.Background(), func(tx storage.Tx) error {
		return MintTo(tx, f.mint, f.aliceA, f.alice, 1)
	})
	require.True(t, errorsmod.IsOf(err, ErrOwnerMismatch))

	require.NoError(t, f.store.View(context.Background(), func(r storage.Reader) error {
		m, err := GetMint(r, f.mint)
		require.Equal(t, uint64(500), m.Supply)
		return err
	}))
}

func TestGetTokenAccountRejectsMint(t *testing.T) {
	f := newFixture(t)
	err := f.store.View(context.Background(), func(r storage.Reader) error {
		_, err := GetTokenAccount(r, f.mint)
		return err
	})
	require.True(t, errorsmod.IsOf(err, ErrInvalidAccountData))
}

func lamports(t *testing.T, store storage.Store, addr solana.PublicKey) uint64 {
	t.Helper()
	var out uint64
	require.NoError(t, store.View(context.Background(), func(r storage.Reader) error {
		var err error
		out, err = Lamports(r, addr)
		return err
	}))
	return out
}
