package reconciliation

import (
	"sync"
	"time"
)

// ---------------------------------------------------------------------------
// Volume Classification
// ---------------------------------------------------------------------------

// VolumeLevel is the low/medium/high bucket derived from recent change
// history. It drives how deep the engine re-scans on each pass.
type VolumeLevel string

const (
	VolumeLow    VolumeLevel = "low"
	VolumeMedium VolumeLevel = "medium"
	VolumeHigh   VolumeLevel = "high"
)

// String returns the string representation of VolumeLevel
func (v VolumeLevel) String() string {
	return string(v)
}

// ScanPages returns how many pages an intelligent pass scans at this level.
func (v VolumeLevel) ScanPages() int {
	switch v {
	case VolumeLow:
		return 3
	case VolumeHigh:
		return 20
	default:
		return 8
	}
}

// PageDelay returns the inter-page pause at this level. The pause respects
// unstated carrier rate limits: shorter under high volume, longer under low.
func (v VolumeLevel) PageDelay() time.Duration {
	switch v {
	case VolumeLow:
		return 1500 * time.Millisecond
	case VolumeHigh:
		return 250 * time.Millisecond
	default:
		return 750 * time.Millisecond
	}
}

const (
	// classificationWindow is how many recent outcomes feed classification
	classificationWindow = 6
	// minOutcomesForClassification is the history size below which the
	// engine defaults to medium volume
	minOutcomesForClassification = 3

	lowVolumeThreshold    = 5.0
	mediumVolumeThreshold = 50.0
)

// SyncOutcome records the change counts of one completed sync pass. Outcomes
// are kept in a bounded in-memory window and feed the next pass's volume
// classification. They are not persisted; after a restart the first
// classification is conservatively medium.
type SyncOutcome struct {
	Timestamp    time.Time
	NewCount     int
	UpdatedCount int
}

// ClassifyVolume buckets recent change history into a VolumeLevel. The
// carriers expose no changed-since cursor, so scan depth is a guess; the
// guess self-corrects because each pass's outcome feeds the next
// classification. Boundaries: under 5 changes/hour is low, under 50 is
// medium, anything else is high.
func ClassifyVolume(outcomes []SyncOutcome, now time.Time) VolumeLevel {
	if len(outcomes) < minOutcomesForClassification {
		return VolumeMedium
	}

	recent := outcomes
	if len(recent) > classificationWindow {
		recent = recent[len(recent)-classificationWindow:]
	}

	total := 0
	oldest := recent[0].Timestamp
	for _, o := range recent {
		total += o.NewCount + o.UpdatedCount
		if o.Timestamp.Before(oldest) {
			oldest = o.Timestamp
		}
	}

	windowHours := now.Sub(oldest).Hours()
	if windowHours < 1.0/60.0 {
		windowHours = 1.0 / 60.0
	}
	changesPerHour := float64(total) / windowHours

	switch {
	case changesPerHour < lowVolumeThreshold:
		return VolumeLow
	case changesPerHour < mediumVolumeThreshold:
		return VolumeMedium
	default:
		return VolumeHigh
	}
}

// ---------------------------------------------------------------------------
// SyncSummary
// ---------------------------------------------------------------------------

// SyncSummary is the structured result every sync entry point returns.
// Failures are reported through Success and Message rather than raised, so
// operator UIs can render a recoverable state.
type SyncSummary struct {
	Success        bool   `json:"success"`
	NewCount       int    `json:"new_count"`
	UpdatedCount   int    `json:"updated_count"`
	TotalProcessed int    `json:"total_processed"`
	ErrorCount     int    `json:"error_count"`
	DurationMs     int64  `json:"duration_ms"`
	Message        string `json:"message"`
}

// ---------------------------------------------------------------------------
// SyncRunState
// ---------------------------------------------------------------------------

// SyncPhase is the coarse phase of a long-running progressive sync.
type SyncPhase string

const (
	SyncPhaseIdle       SyncPhase = "idle"
	SyncPhaseConnecting SyncPhase = "connecting"
	SyncPhaseSyncing    SyncPhase = "syncing"
	SyncPhaseRetrying   SyncPhase = "retrying"
	SyncPhaseCompleted  SyncPhase = "completed"
	SyncPhaseError      SyncPhase = "error"
)

// SyncRunState is the live progress of the currently running full sync.
// It is process-wide, reset at the start of each run, and polled by
// operator UIs.
type SyncRunState struct {
	Phase          SyncPhase `json:"phase"`
	CurrentPage    int       `json:"current_page"`
	TotalPages     int       `json:"total_pages"`
	ProcessedCount int       `json:"processed_count"`
	TotalCount     int       `json:"total_count"`
	NewCount       int       `json:"new_count"`
	UpdatedCount   int       `json:"updated_count"`
	ErrorCount     int       `json:"error_count"`
	RetryCount     int       `json:"retry_count"`
	Speed          float64   `json:"speed"`
	ETAText        string    `json:"eta_text"`
	StartedAt      time.Time `json:"started_at"`
}

// RunStateTracker holds the singleton SyncRunState behind a mutex so the
// engine can publish progress while handlers poll it.
type RunStateTracker struct {
	mu    sync.RWMutex
	state SyncRunState
}

// NewRunStateTracker creates a tracker in the idle phase
func NewRunStateTracker() *RunStateTracker {
	return &RunStateTracker{state: SyncRunState{Phase: SyncPhaseIdle}}
}

// Reset clears the state for a new run
func (t *RunStateTracker) Reset(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = SyncRunState{
		Phase:     SyncPhaseConnecting,
		StartedAt: now,
	}
}

// Update applies a mutation to the state under the lock
func (t *RunStateTracker) Update(fn func(*SyncRunState)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.state)
}

// Snapshot returns a copy of the current state
func (t *RunStateTracker) Snapshot() SyncRunState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}
