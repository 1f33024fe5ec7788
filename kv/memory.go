package kv

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jacentio/rescue/internal/keyspace"
)

// Memory is an in-process Namespace. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

var _ Namespace = (*Memory)(nil)

type memoryEntry struct {
	value      []byte
	expiration int64
}

// NewMemory creates an empty in-memory namespace.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns a copy of the value stored under key.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := keyspace.ValidateKey(key); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || expired(e.expiration, m.now()) {
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

// List returns one page of live keys in ascending order.
func (m *Memory) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	start, err := keyspace.DecodeCursor(opts.Cursor)
	if err != nil {
		return ListResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return ListResult{}, err
	}

	now := m.now()
	m.mu.RLock()
	keys := make([]Key, 0, len(m.entries))
	for name, e := range m.entries {
		if expired(e.expiration, now) || !strings.HasPrefix(name, opts.Prefix) {
			continue
		}
		if start != "" && name <= start {
			continue
		}
		keys = append(keys, Key{Name: name, Expiration: e.expiration})
	}
	m.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i].Name < keys[j].Name })

	limit := pageLimit(opts.Limit)
	if len(keys) <= limit {
		return ListResult{Keys: keys, ListComplete: true}, nil
	}
	page := keys[:limit]
	return ListResult{
		Keys:   page,
		Cursor: keyspace.EncodeCursor(page[len(page)-1].Name),
	}, nil
}

// Put stores a copy of value under key.
func (m *Memory) Put(ctx context.Context, key string, value []byte, opts PutOptions) error {
	if err := keyspace.ValidateKey(key); err != nil {
		return err
	}
	if len(value) > MaxValueSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrValueTooLarge, len(value), MaxValueSize)
	}
	exp, err := opts.expiresAt(m.now())
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.entries[key] = memoryEntry{value: append([]byte(nil), value...), expiration: exp}
	m.mu.Unlock()
	return nil
}

// Delete removes key. Namespaces expose no delete to the facade; this exists
// for tests and local tooling that need to simulate a vanished key.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// Len returns the number of stored keys, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
