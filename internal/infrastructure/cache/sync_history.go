package cache

import (
	"sync"

	"github.com/commerceops/backend/internal/domain/reconciliation"
)

// maxOutcomesPerProvider bounds the stored history. Volume classification
// only reads a short recent window, so the store stays small.
const maxOutcomesPerProvider = 20

// InMemorySyncHistory implements SyncHistory with a bounded per-provider
// ring of recent outcomes. History resets on process restart, which is
// acceptable: classification falls back to medium volume until enough
// outcomes accumulate again.
type InMemorySyncHistory struct {
	mu       sync.RWMutex
	outcomes map[reconciliation.ProviderCode][]reconciliation.SyncOutcome
}

// NewInMemorySyncHistory creates an empty sync history store
func NewInMemorySyncHistory() *InMemorySyncHistory {
	return &InMemorySyncHistory{
		outcomes: make(map[reconciliation.ProviderCode][]reconciliation.SyncOutcome),
	}
}

// Record appends one completed sync outcome, evicting the oldest entry
// when the provider's window is full
func (h *InMemorySyncHistory) Record(provider reconciliation.ProviderCode, outcome reconciliation.SyncOutcome) {
	h.mu.Lock()
	defer h.mu.Unlock()

	window := append(h.outcomes[provider], outcome)
	if len(window) > maxOutcomesPerProvider {
		window = window[len(window)-maxOutcomesPerProvider:]
	}
	h.outcomes[provider] = window
}

// Recent returns a copy of the stored outcomes for a provider, oldest first
func (h *InMemorySyncHistory) Recent(provider reconciliation.ProviderCode) []reconciliation.SyncOutcome {
	h.mu.RLock()
	defer h.mu.RUnlock()

	window := h.outcomes[provider]
	out := make([]reconciliation.SyncOutcome, len(window))
	copy(out, window)
	return out
}

// Ensure InMemorySyncHistory implements SyncHistory
var _ reconciliation.SyncHistory = (*InMemorySyncHistory)(nil)
