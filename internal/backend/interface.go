package backend

import (
	"context"

	"fintrack/internal/adapters"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Pinger reports whether durable storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult holds the storage the ledger runs on and what else the
// factory opened along the way.
type BackendResult struct {
	KV          storage.KV
	Persistence *adapters.Persistence
	// Publisher is nil when change events are disabled.
	Publisher services.Publisher
	// Storage is nil for the in-memory backend.
	Storage Pinger
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath   string
	SQLiteMaxPages int

	// Memory specific
	MemoryQuotaBytes int64

	// Change events, optional for both backends
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
