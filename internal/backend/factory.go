package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"soda/internal/amqp"
	applog "soda/internal/log"
	"soda/internal/repository/memory"
	"soda/internal/repository/remote"
	"soda/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(applog.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend. A broker that cannot be
// reached leaves the backend without a publisher rather than failing.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case RemoteBackend:
		result = f.createRemoteBackend(config)
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case MemoryBackend:
		result = f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change events", applog.FieldError, err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)
			result.Publisher = client
			result.Cleanup = chainCleanup(result.Cleanup, client.Close)
		}
	}

	f.logger.InfoContext(ctx, "Initialized backend",
		applog.FieldBackend, config.Type.String(),
		"events_enabled", result.Publisher != nil)
	return result, nil
}

func (f *DefaultFactory) createRemoteBackend(config Config) *BackendResult {
	timeout := time.Duration(config.APITimeout) * time.Millisecond
	client := remote.New(config.APIBaseURL, timeout, remote.WithLogger(f.logger))
	return &BackendResult{
		Repository: client,
		Ready:      func(context.Context) error { return nil },
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	return &BackendResult{
		Repository: repo,
		Cleanup:    repo.Close,
		Ready:      repo.Ping,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() *BackendResult {
	return &BackendResult{
		Repository: memory.New(),
		Ready:      func(context.Context) error { return nil },
	}
}

func chainCleanup(first, second CleanupFunc) CleanupFunc {
	return func() error {
		var errs []error
		for _, fn := range []CleanupFunc{first, second} {
			if fn == nil {
				continue
			}
			if err := fn(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}

// Close runs the result's cleanup, if any.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}
