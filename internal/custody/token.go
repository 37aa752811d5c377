package custody

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gagliardetto/solana-go"

	"walienPool/internal/model"
	"walienPool/internal/storage"
)

// AssociatedAddress derives the associated token account of wallet for mint.
func AssociatedAddress(wallet, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(wallet, mint)
	return addr, err
}

// GetMint loads a token mint.
func GetMint(r storage.Reader, addr solana.PublicKey) (model.Mint, error) {
	acct, err := GetAccount(r, addr)
	if err != nil {
		return model.Mint{}, err
	}
	if !acct.Owner.Equals(solana.TokenProgramID) {
		return model.Mint{}, errorsmod.Wrapf(ErrInvalidAccountData, "%s is not a mint", addr)
	}
	m, err := model.DecodeMint(acct.Data)
	if err != nil {
		return model.Mint{}, errorsmod.Wrap(ErrInvalidAccountData, err.Error())
	}
	return m, nil
}

// GetTokenAccount loads a token account.
func GetTokenAccount(r storage.Reader, addr solana.PublicKey) (model.TokenAccount, error) {
	acct, err := GetAccount(r, addr)
	if err != nil {
		return model.TokenAccount{}, err
	}
	if !acct.Owner.Equals(solana.TokenProgramID) {
		return model.TokenAccount{}, errorsmod.Wrapf(ErrInvalidAccountData, "%s is not a token account", addr)
	}
	t, err := model.DecodeTokenAccount(acct.Data)
	if err != nil {
		return model.TokenAccount{}, errorsmod.Wrap(ErrInvalidAccountData, err.Error())
	}
	return t, nil
}

func putTokenAccount(tx storage.Tx, addr solana.PublicKey, t model.TokenAccount) error {
	data, err := model.EncodeTokenAccount(t)
	if err != nil {
		return err
	}
	return WriteData(tx, addr, data)
}

// CreateMint creates a mint at addr. Test and dev setups use it to stand up
// the stable and sale tokens.
func CreateMint(tx storage.Tx, payer, addr, authority solana.PublicKey, decimals uint8) error {
	data, err := model.EncodeMint(model.Mint{Authority: &authority, Decimals: decimals})
	if err != nil {
		return err
	}
	return CreateAccount(tx, payer, addr, solana.TokenProgramID, data)
}

// InitTokenAccount creates a token account at addr for owner.
func InitTokenAccount(tx storage.Tx, payer, addr, mint, owner solana.PublicKey) error {
	if _, err := GetMint(tx, mint); err != nil {
		return err
	}
	data, err := model.EncodeTokenAccount(model.TokenAccount{
		Mint:  mint,
		Owner: owner,
		State: model.TokenAccountInitialized,
	})
	if err != nil {
		return err
	}
	return CreateAccount(tx, payer, addr, solana.TokenProgramID, data)
}

// CreateAssociatedAccount creates the associated token account of wallet for
// mint, paid by payer, and returns its address.
func CreateAssociatedAccount(tx storage.Tx, payer, wallet, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, err := AssociatedAddress(wallet, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if err := InitTokenAccount(tx, payer, addr, mint, wallet); err != nil {
		return solana.PublicKey{}, err
	}
	return addr, nil
}

// MintTo issues amount new tokens into dest. authority must be the mint authority.
func MintTo(tx storage.Tx, mintAddr, dest, authority solana.PublicKey, amount uint64) error {
	mint, err := GetMint(tx, mintAddr)
	if err != nil {
		return err
	}
	if mint.Authority == nil || !mint.Authority.Equals(authority) {
		return errorsmod.Wrap(ErrOwnerMismatch, "mint authority")
	}
	to, err := GetTokenAccount(tx, dest)
	if err != nil {
		return err
	}
	if !to.Mint.Equals(mintAddr) {
		return ErrMintMismatch
	}

	supply, overflow := math.SafeAdd(mint.Supply, amount)
	if overflow {
		return ErrOverflow
	}
	balance, overflow := math.SafeAdd(to.Amount, amount)
	if overflow {
		return ErrOverflow
	}
	mint.Supply = supply
	to.Amount = balance

	data, err := model.EncodeMint(mint)
	if err != nil {
		return err
	}
	if err := WriteData(tx, mintAddr, data); err != nil {
		return err
	}
	return putTokenAccount(tx, dest, to)
}

// Transfer moves amount from one token account to another. authority must be
// the owner of the source account.
func Transfer(tx storage.Tx, from, to, authority solana.PublicKey, amount uint64) error {
	src, err := GetTokenAccount(tx, from)
	if err != nil {
		return err
	}
	dst, err := GetTokenAccount(tx, to)
	if err != nil {
		return err
	}
	if !src.Owner.Equals(authority) {
		return errorsmod.Wrapf(ErrOwnerMismatch, "%s is not the owner of %s", authority, from)
	}
	if !src.Mint.Equals(dst.Mint) {
		return ErrMintMismatch
	}
	if src.Amount < amount {
		return errorsmod.Wrapf(ErrInsufficientFunds, "%s: need %d, have %d", from, amount, src.Amount)
	}
	if from.Equals(to) {
		return nil
	}

	balance, overflow := math.SafeAdd(dst.Amount, amount)
	if overflow {
		return ErrOverflow
	}
	src.Amount -= amount
	dst.Amount = balance

	if err := putTokenAccount(tx, from, src); err != nil {
		return err
	}
	return putTokenAccount(tx, to, dst)
}

// Balance returns the token amount held at addr.
func Balance(r storage.Reader, addr solana.PublicKey) (uint64, error) {
	t, err := GetTokenAccount(r, addr)
	if err != nil {
		return 0, err
	}
	return t.Amount, nil
}
