package storage

import (
	"context"
	"sync"
)

// Memory is an in-process Store used by tests and the default CLI setup.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

type memoryReader struct {
	data map[string][]byte
}

func (r memoryReader) Get(key []byte) ([]byte, error) {
	v, ok := r.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(v), nil
}

func (m *Memory) View(ctx context.Context, fn func(Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(memoryReader{data: m.data})
}

func (m *Memory) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := NewStaged(memoryReader{data: m.data})
	if err := fn(tx); err != nil {
		return err
	}
	for _, w := range tx.Writes() {
		if w.Delete {
			delete(m.data, string(w.Key))
			continue
		}
		m.data[string(w.Key)] = w.Value
	}
	return nil
}

// Snapshot copies the current contents. Tests use it to assert that rejected
// operations leave the ledger untouched.
func (m *Memory) Snapshot() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(m.data))
	for k, v := range m.data {
		out[k] = cloneBytes(v)
	}
	return out
}

func (m *Memory) Close() error {
	return nil
}
