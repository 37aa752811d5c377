package storage

import (
	"sort"
)

// Write is one staged mutation.
type Write struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Staged layers pending writes over a base reader.
type Staged struct {
	base    Reader
	pending map[string][]byte
	deleted map[string]struct{}
}

func NewStaged(base Reader) *Staged {
	return &Staged{
		base:    base,
		pending: make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}
}

func (s *Staged) Get(key []byte) ([]byte, error) {
	k := string(key)
	if _, ok := s.deleted[k]; ok {
		return nil, ErrNotFound
	}
	if v, ok := s.pending[k]; ok {
		return cloneBytes(v), nil
	}
	return s.base.Get(key)
}

func (s *Staged) Put(key, value []byte) error {
	k := string(key)
	delete(s.deleted, k)
	s.pending[k] = cloneBytes(value)
	return nil
}

func (s *Staged) Delete(key []byte) error {
	k := string(key)
	delete(s.pending, k)
	s.deleted[k] = struct{}{}
	return nil
}

// Writes returns the staged mutations ordered by key.
func (s *Staged) Writes() []Write {
	out := make([]Write, 0, len(s.pending)+len(s.deleted))
	for k, v := range s.pending {
		out = append(out, Write{Key: []byte(k), Value: v})
	}
	for k := range s.deleted {
		out = append(out, Write{Key: []byte(k), Delete: true})
	}
	sort.Slice(out, func(i, j int) bool { return string(out[i].Key) < string(out[j].Key) })
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
