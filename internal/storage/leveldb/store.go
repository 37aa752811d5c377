package leveldb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"go.uber.org/zap"

	"walienPool/internal/storage"
)

// Store is a persistent ledger backed by LevelDB. Writes from one Update are
// committed as a single batch.
type Store struct {
	db     *leveldb.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// Open creates or opens a LevelDB database at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("leveldb path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb: %w", err)
	}
	logger.Info("leveldb opened", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

type snapshotReader struct {
	snap *leveldb.Snapshot
}

func (r snapshotReader) Get(key []byte) ([]byte, error) {
	v, err := r.snap.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("leveldb get: %w", err)
	}
	return v, nil
}

func (s *Store) View(ctx context.Context, fn func(storage.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap, err := s.db.GetSnapshot()
	if err != nil {
		return fmt.Errorf("leveldb snapshot: %w", err)
	}
	defer snap.Release()
	return fn(snapshotReader{snap: snap})
}

func (s *Store) Update(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.db.GetSnapshot()
	if err != nil {
		return fmt.Errorf("leveldb snapshot: %w", err)
	}
	defer snap.Release()

	tx := storage.NewStaged(snapshotReader{snap: snap})
	if err := fn(tx); err != nil {
		return err
	}

	writes := tx.Writes()
	if len(writes) == 0 {
		return nil
	}
	batch := new(leveldb.Batch)
	for _, w := range writes {
		if w.Delete {
			batch.Delete(w.Key)
			continue
		}
		batch.Put(w.Key, w.Value)
	}
	if err := s.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("leveldb write batch: %w", err)
	}
	s.logger.Debug("leveldb batch committed", zap.Int("writes", len(writes)))
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
