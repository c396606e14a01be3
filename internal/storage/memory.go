package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryKV keeps values in process memory. A positive quota bounds the total
// number of bytes held, the way a browser caps local storage.
type MemoryKV struct {
	mu     sync.RWMutex
	quota  int64
	used   int64
	values map[string][]byte
}

func NewMemoryKV(quota int64) *MemoryKV {
	return &MemoryKV{quota: quota, values: make(map[string][]byte)}
}

func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryKV) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.used - int64(len(m.values[key])) + int64(len(value))
	if m.quota > 0 && next > m.quota {
		return fmt.Errorf("put %q (%d bytes, quota %d): %w", key, len(value), m.quota, ErrFull)
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.values[key] = v
	m.used = next
	return nil
}

func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.used -= int64(len(m.values[key]))
	delete(m.values, key)
	return nil
}

func (m *MemoryKV) Size(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used, nil
}
