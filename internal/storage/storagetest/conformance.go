// Package storagetest holds behaviour checks shared by every storage.Store.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"walienPool/internal/storage"
)

var errAbort = errors.New("abort")

// Run exercises the transactional contract of a store.
func Run(t *testing.T, store storage.Store) {
	t.Helper()
	ctx := context.Background()
	key := []byte("acct/a")
	other := []byte("acct/b")

	t.Run("missing key", func(t *testing.T) {
		err := store.View(ctx, func(r storage.Reader) error {
			_, err := r.Get([]byte("acct/missing"))
			return err
		})
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("commit", func(t *testing.T) {
		require.NoError(t, store.Update(ctx, func(tx storage.Tx) error {
			if err := tx.Put(key, []byte("one")); err != nil {
				return err
			}
			got, err := tx.Get(key)
			require.NoError(t, err)
			require.Equal(t, []byte("one"), got)
			return tx.Put(other, []byte("two"))
		}))
		requireValue(t, store, key, "one")
		requireValue(t, store, other, "two")
	})

	t.Run("rollback discards every write", func(t *testing.T) {
		err := store.Update(ctx, func(tx storage.Tx) error {
			require.NoError(t, tx.Put(key, []byte("changed")))
			require.NoError(t, tx.Delete(other))
			_, err := tx.Get(other)
			require.ErrorIs(t, err, storage.ErrNotFound)
			return errAbort
		})
		require.ErrorIs(t, err, errAbort)
		requireValue(t, store, key, "one")
		requireValue(t, store, other, "two")
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Update(ctx, func(tx storage.Tx) error {
			return tx.Delete(other)
		}))
		err := store.View(ctx, func(r storage.Reader) error {
			_, err := r.Get(other)
			return err
		})
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := store.Update(cctx, func(tx storage.Tx) error {
			return tx.Put(key, []byte("late"))
		})
		require.Error(t, err)
		requireValue(t, store, key, "one")
	})
}

func requireValue(t *testing.T, store storage.Store, key []byte, want string) {
	t.Helper()
	require.NoError(t, store.View(context.Background(), func(r storage.Reader) error {
		got, err := r.Get(key)
		if err != nil {
			return err
		}
		require.Equal(t, want, string(got))
		return nil
	}))
}
