package storage

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("storage: key not found")

// Reader is a consistent read view of the ledger.
type Reader interface {
	Get(key []byte) ([]byte, error)
}

// Tx stages writes. Nothing is visible to other readers until the
// surrounding Update returns nil.
type Tx interface {
	Reader
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Store is a transactional key-value ledger. Update calls are serialized and
// applied all-or-nothing: an error from fn discards every staged write.
type Store interface {
	View(ctx context.Context, fn func(Reader) error) error
	Update(ctx context.Context, fn func(Tx) error) error
	Close() error
}

const accountPrefix = "acct/"

// AccountKey is the ledger key of an account address.
func AccountKey(addr solana.PublicKey) []byte {
	return append([]byte(accountPrefix), addr[:]...)
}
