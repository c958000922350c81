package reconciliation

import (
	"context"
	"fmt"
)

// RunLock guards sync runs so that at most one run per (provider, operation)
// pair is in flight at a time. Implementations may be process-local or
// distributed.
type RunLock interface {
	// TryAcquire attempts to take the lock for key without blocking.
	// It returns true when the lock was taken, false when another run
	// already holds it.
	TryAcquire(ctx context.Context, key string) (bool, error)
	// Release frees the lock for key. Releasing a key that is not held
	// is a no-op.
	Release(ctx context.Context, key string) error
}

// RunLockKey builds the lock key for a provider/operation pair.
func RunLockKey(provider ProviderCode, operation string) string {
	return fmt.Sprintf("sync:run:%s:%s", provider, operation)
}

// SyncHistory records completed sync outcomes per provider and serves the
// recent window that volume classification reads.
type SyncHistory interface {
	// Record appends one completed sync outcome for a provider.
	Record(provider ProviderCode, outcome SyncOutcome)
	// Recent returns the stored outcomes for a provider, oldest first.
	Recent(provider ProviderCode) []SyncOutcome
}
