package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/commerceops/backend/internal/domain/reconciliation"
)

// SyncRunner is the slice of engine behavior the scheduler needs
type SyncRunner interface {
	IntelligentSync(ctx context.Context, operationID string) reconciliation.SyncSummary
}

// SyncScheduler triggers a periodic intelligent sync per registered
// operation. Re-entrancy needs no handling here; the engine's run lock
// rejects overlapping runs on its own.
type SyncScheduler struct {
	runner     SyncRunner
	operations []string
	interval   time.Duration
	logger     *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSyncScheduler creates a scheduler for the given operations
func NewSyncScheduler(runner SyncRunner, operations []string, interval time.Duration, logger *zap.Logger) *SyncScheduler {
	return &SyncScheduler{
		runner:     runner,
		operations: operations,
		interval:   interval,
		logger:     logger,
	}
}

// Start begins the periodic trigger loop. Calling Start on a running
// scheduler is a no-op.
func (s *SyncScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("sync scheduler started",
		zap.Duration("interval", s.interval),
		zap.Strings("operations", s.operations))
}

// Stop halts the trigger loop and waits for an in-flight tick to finish
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("sync scheduler stopped")
}

// IsRunning reports whether the trigger loop is active
func (s *SyncScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *SyncScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *SyncScheduler) tick(ctx context.Context) {
	for _, operationID := range s.operations {
		summary := s.runner.IntelligentSync(ctx, operationID)
		if !summary.Success {
			s.logger.Warn("scheduled sync failed",
				zap.String("operation", operationID),
				zap.String("message", summary.Message))
			continue
		}
		s.logger.Debug("scheduled sync completed",
			zap.String("operation", operationID),
			zap.Int("new", summary.NewCount),
			zap.Int("updated", summary.UpdatedCount))
	}
}
