package backend

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/adapters"
	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

var _ Factory = (*DefaultFactory)(nil)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
	// dial opens the change event publisher; replaced in tests.
	dial func(url, exchange, queue string) (publisher, error)
}

type publisher interface {
	PublishLedgerChanged(ctx context.Context, entity, op string, version uint64) error
	Close() error
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentStorage),
		dial: func(url, exchange, queue string) (publisher, error) {
			return amqp.NewClient(url, exchange, queue)
		},
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		res = f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	res.Persistence = adapters.NewPersistence(res.KV)
	f.attachPublisher(ctx, config, res)
	return res, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.OpenSQLiteRepository(config.SQLiteDBPath, storage.Options{MaxPages: config.SQLiteMaxPages})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"max_pages", config.SQLiteMaxPages)

	return &BackendResult{
		KV:      repo,
		Storage: repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) *BackendResult {
	f.logger.InfoContext(ctx, "Initialized in-memory backend, data is lost on exit",
		"quota_bytes", config.MemoryQuotaBytes)
	return &BackendResult{
		KV:      storage.NewMemoryKV(config.MemoryQuotaBytes),
		Cleanup: func() error { return nil },
	}
}

// attachPublisher connects the optional change event publisher. A broker
// that cannot be reached only disables events.
func (f *DefaultFactory) attachPublisher(ctx context.Context, config Config, res *BackendResult) {
	if config.AMQPURL == "" {
		return
	}
	logger := f.logger.WithComponent(log.ComponentAMQP)
	pub, err := f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change events",
			log.FieldError, err)
		return
	}
	logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	res.Publisher = pub
	closeStorage := res.Cleanup
	res.Cleanup = func() error {
		return errors.Join(pub.Close(), closeStorage())
	}
}
