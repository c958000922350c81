package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/commerceops/backend/internal/domain/reconciliation"
	"github.com/commerceops/backend/internal/infrastructure/config"
)

// RunLockFactory creates run locks based on configuration
type RunLockFactory struct {
	cfg    *config.Config
	logger *zap.Logger

	allowInMemoryFallback bool
}

// RunLockFactoryOption is a functional option for configuring the factory
type RunLockFactoryOption func(*RunLockFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) RunLockFactoryOption {
	return func(f *RunLockFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory lock
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) RunLockFactoryOption {
	return func(f *RunLockFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewRunLockFactory creates a new factory
func NewRunLockFactory(cfg *config.Config, opts ...RunLockFactoryOption) *RunLockFactory {
	f := &RunLockFactory{
		cfg:                   cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create builds the run lock selected by sync.lock_backend.
// With fallback enabled, a Redis connection failure degrades to an
// in-memory lock instead of aborting startup; that is only safe for
// single-instance deployments, hence the warning.
func (f *RunLockFactory) Create() (reconciliation.RunLock, error) {
	switch f.cfg.Sync.LockBackend {
	case "redis":
		lock, err := NewRedisRunLock(f.cfg.Redis, f.cfg.Sync.LockTTL)
		if err != nil {
			if !f.allowInMemoryFallback {
				return nil, fmt.Errorf("failed to create Redis run lock: %w", err)
			}
			f.logger.Warn("redis unavailable, falling back to in-memory run lock",
				zap.String("addr", f.cfg.Redis.Addr()),
				zap.Error(err))
			return NewInMemoryRunLock(), nil
		}
		f.logger.Info("using redis run lock", zap.String("addr", f.cfg.Redis.Addr()))
		return lock, nil
	case "memory":
		return NewInMemoryRunLock(), nil
	default:
		return nil, fmt.Errorf("unknown run lock backend: %s", f.cfg.Sync.LockBackend)
	}
}
