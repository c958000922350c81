package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/commerceops/backend/internal/domain/reconciliation"
)

type countingRunner struct {
	mu    sync.Mutex
	calls map[string]int
}

func (r *countingRunner) IntelligentSync(_ context.Context, operationID string) reconciliation.SyncSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = make(map[string]int)
	}
	r.calls[operationID]++
	return reconciliation.SyncSummary{Success: true, Message: "sync completed"}
}

func (r *countingRunner) count(operationID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[operationID]
}

func TestSyncScheduler_TriggersEachOperation(t *testing.T) {
	runner := &countingRunner{}
	s := NewSyncScheduler(runner, []string{"default", "eu-shop"}, 10*time.Millisecond, zap.NewNop())

	s.Start()
	assert.True(t, s.IsRunning())

	assert.Eventually(t, func() bool {
		return runner.count("default") >= 2 && runner.count("eu-shop") >= 2
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())

	after := runner.count("default")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, runner.count("default"), "no triggers after Stop")
}

func TestSyncScheduler_StartTwiceIsNoop(t *testing.T) {
	runner := &countingRunner{}
	s := NewSyncScheduler(runner, []string{"default"}, time.Hour, zap.NewNop())

	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
	assert.False(t, s.IsRunning())
}
