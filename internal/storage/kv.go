// Package storage provides the key/value stores the ledger is persisted to.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrFull is returned when a write would exceed the store's capacity.
	ErrFull = errors.New("storage full")
	// ErrUnavailable is returned when the store cannot be reached or written.
	ErrUnavailable = errors.New("storage unavailable")
)

// KV is a string-keyed store of serialized values.
type KV interface {
	// Get returns the value stored under key. ok is false when nothing was
	// stored.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Sizer is implemented by stores that can report how many bytes they hold.
type Sizer interface {
	Size(ctx context.Context) (int64, error)
}
