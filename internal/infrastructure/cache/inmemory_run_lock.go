package cache

import (
	"context"
	"sync"

	"github.com/commerceops/backend/internal/domain/reconciliation"
)

// InMemoryRunLock implements RunLock using an in-memory map.
// This is suitable for single-instance deployments and testing.
// WARNING: In-memory locks do not share state across process instances;
// multi-instance deployments must use the Redis lock.
type InMemoryRunLock struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewInMemoryRunLock creates a new in-memory run lock
func NewInMemoryRunLock() *InMemoryRunLock {
	return &InMemoryRunLock{held: make(map[string]bool)}
}

// TryAcquire takes the lock for key if it is free
func (l *InMemoryRunLock) TryAcquire(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

// Release frees the lock for key
func (l *InMemoryRunLock) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.held, key)
	return nil
}

// Ensure InMemoryRunLock implements RunLock
var _ reconciliation.RunLock = (*InMemoryRunLock)(nil)
