// Package custody moves lamports and token balances between ledger accounts.
// It models the system, token and associated-token programs closely enough for
// the sale to run against a storage.Store.
package custody

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gagliardetto/solana-go"

	"walienPool/internal/model"
	"walienPool/internal/storage"
)

const (
	accountStorageOverhead = 128
	lamportsPerByteYear    = 3480
	exemptionYears         = 2
)

// RentExempt returns the minimum balance for an account holding dataLen bytes.
func RentExempt(dataLen int) uint64 {
	return uint64(accountStorageOverhead+dataLen) * lamportsPerByteYear * exemptionYears
}

// GetAccount loads the account at addr.
func GetAccount(r storage.Reader, addr solana.PublicKey) (model.AccountInfo, error) {
	raw, err := r.Get(storage.AccountKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return model.AccountInfo{}, errorsmod.Wrap(ErrAccountNotFound, addr.String())
	}
	if err != nil {
		return model.AccountInfo{}, err
	}
	return model.DecodeAccount(raw)
}

// Exists reports whether addr holds an account.
func Exists(r storage.Reader, addr solana.PublicKey) (bool, error) {
	_, err := r.Get(storage.AccountKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// PutAccount stores info at addr.
func PutAccount(tx storage.Tx, addr solana.PublicKey, info model.AccountInfo) error {
	raw, err := model.EncodeAccount(info)
	if err != nil {
		return err
	}
	return tx.Put(storage.AccountKey(addr), raw)
}

// Lamports returns the lamport balance at addr, zero when there is no account.
func Lamports(r storage.Reader, addr solana.PublicKey) (uint64, error) {
	acct, err := GetAccount(r, addr)
	if errorsmod.IsOf(err, ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return acct.Lamports, nil
}

// Airdrop credits lamports to a wallet, creating it as a system account.
func Airdrop(tx storage.Tx, wallet solana.PublicKey, lamports uint64) error {
	return credit(tx, wallet, lamports)
}

// CreateAccount allocates a new account at addr owned by program, funded
// with the rent-exempt minimum taken from payer.
func CreateAccount(tx storage.Tx, payer, addr, program solana.PublicKey, data []byte) error {
	exists, err := Exists(tx, addr)
	if err != nil {
		return err
	}
	if exists {
		return errorsmod.Wrap(ErrAccountAlreadyInUse, addr.String())
	}
	rent := RentExempt(len(data))
	if err := debit(tx, payer, rent); err != nil {
		return err
	}
	return PutAccount(tx, addr, model.AccountInfo{Lamports: rent, Owner: program, Data: data})
}

// WriteData replaces the data of an existing account, keeping its lamports.
func WriteData(tx storage.Tx, addr solana.PublicKey, data []byte) error {
	acct, err := GetAccount(tx, addr)
	if err != nil {
		return err
	}
	acct.Data = data
	return PutAccount(tx, addr, acct)
}

// CloseAccount deletes the account at addr and refunds its lamports to
// recipient. It returns the refunded amount.
func CloseAccount(tx storage.Tx, addr, recipient solana.PublicKey) (uint64, error) {
	acct, err := GetAccount(tx, addr)
	if err != nil {
		return 0, err
	}
	if err := tx.Delete(storage.AccountKey(addr)); err != nil {
		return 0, err
	}
	if err := credit(tx, recipient, acct.Lamports); err != nil {
		return 0, err
	}
	return acct.Lamports, nil
}

func credit(tx storage.Tx, addr solana.PublicKey, lamports uint64) error {
	acct, err := GetAccount(tx, addr)
	if errorsmod.IsOf(err, ErrAccountNotFound) {
		acct = model.AccountInfo{Owner: solana.SystemProgramID}
	} else if err != nil {
		return err
	}
	total, overflow := math.SafeAdd(acct.Lamports, lamports)
	if overflow {
		return ErrOverflow
	}
	acct.Lamports = total
	return PutAccount(tx, addr, acct)
}

func debit(tx storage.Tx, addr solana.PublicKey, lamports uint64) error {
	acct, err := GetAccount(tx, addr)
	if errorsmod.IsOf(err, ErrAccountNotFound) {
		return errorsmod.Wrapf(ErrInsufficientLamports, "%s has no account", addr)
	}
	if err != nil {
		return err
	}
	rest, underflow := math.SafeSub(acct.Lamports, lamports)
	if underflow {
		return errorsmod.Wrapf(ErrInsufficientLamports, "%s: need %d, have %d", addr, lamports, acct.Lamports)
	}
	acct.Lamports = rest
	return PutAccount(tx, addr, acct)
}
