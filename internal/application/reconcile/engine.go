package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/commerceops/backend/internal/domain/reconciliation"
	"github.com/commerceops/backend/internal/infrastructure/config"
)

// Operation names used in run lock keys. One in-flight run is allowed per
// (provider, operation) pair.
const (
	OpIntelligent = "intelligent"
	OpFull        = "full"
	OpIncremental = "incremental"
	OpProgressive = "progressive"
)

const (
	// progressiveBackoffBase is the first retry delay of a progressive sync
	progressiveBackoffBase = 2 * time.Second
	// progressiveBackoffCap bounds the exponential retry delay
	progressiveBackoffCap = 30 * time.Second
)

// Engine runs reconciliation passes: decide scope, fetch, diff/upsert,
// report. All entry points return a SyncSummary and never panic across the
// boundary; failures surface as Success=false with a message.
type Engine struct {
	registry reconciliation.ClientRegistry
	orders   reconciliation.OrderRepository
	history  reconciliation.SyncHistory
	lock     reconciliation.RunLock
	notifier reconciliation.Notifier
	tracker  *reconciliation.RunStateTracker
	logger   *zap.Logger

	terminalSampleSize    int
	incrementalFreshPages int
	progressiveMaxRetries int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// EngineOption is a functional option for configuring the engine
type EngineOption func(*Engine)

// WithClock overrides the engine's time source
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithSleeper overrides the inter-page and retry pauses. Tests use it to
// avoid real delays.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) EngineOption {
	return func(e *Engine) { e.sleep = sleep }
}

// NewEngine creates a reconciliation engine
func NewEngine(
	registry reconciliation.ClientRegistry,
	orders reconciliation.OrderRepository,
	history reconciliation.SyncHistory,
	lock reconciliation.RunLock,
	notifier reconciliation.Notifier,
	cfg config.SyncConfig,
	logger *zap.Logger,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		registry:              registry,
		orders:                orders,
		history:               history,
		lock:                  lock,
		notifier:              notifier,
		tracker:               reconciliation.NewRunStateTracker(),
		logger:                logger,
		terminalSampleSize:    cfg.TerminalSampleSize,
		incrementalFreshPages: cfg.IncrementalFreshPages,
		progressiveMaxRetries: cfg.ProgressiveMaxRetries,
		now:                   time.Now,
		sleep:                 sleepWithContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunState returns a copy of the live progressive sync state
func (e *Engine) RunState() reconciliation.SyncRunState {
	return e.tracker.Snapshot()
}

// ---------------------------------------------------------------------------
// Entry points
// ---------------------------------------------------------------------------

// IntelligentSync runs the adaptive steady-state pass: scan depth and
// inter-page delay follow the volume classification of recent outcomes.
func (e *Engine) IntelligentSync(ctx context.Context, operationID string) reconciliation.SyncSummary {
	return e.runOperation(ctx, operationID, OpIntelligent, true, e.intelligentPass)
}

// FullSync walks every page until a short or empty page. Intended for
// first-time onboarding; no page cap.
func (e *Engine) FullSync(ctx context.Context, operationID string) reconciliation.SyncSummary {
	return e.runOperation(ctx, operationID, OpFull, true, func(ctx context.Context, client reconciliation.ProviderClient, st *passStats) error {
		return e.scanPages(ctx, client, st, 0, reconciliation.VolumeHigh.PageDelay(), nil)
	})
}

// IncrementalSync re-checks every non-terminal order plus a bounded sample
// of terminal ones, then pulls up to maxPages fresh pages for brand-new
// orders. maxPages <= 0 uses the configured default.
func (e *Engine) IncrementalSync(ctx context.Context, operationID string, maxPages int) reconciliation.SyncSummary {
	if maxPages <= 0 {
		maxPages = e.incrementalFreshPages
	}
	return e.runOperation(ctx, operationID, OpIncremental, true, func(ctx context.Context, client reconciliation.ProviderClient, st *passStats) error {
		return e.incrementalPass(ctx, client, st, maxPages)
	})
}

// ProgressiveSync walks every page like FullSync while publishing live
// SyncRunState, and wraps the walk in a bounded exponential-backoff retry so
// a mid-run transient failure resumes instead of aborting. maxRetries <= 0
// uses the configured default. Providers run sequentially so the singleton
// run state stays coherent.
func (e *Engine) ProgressiveSync(ctx context.Context, operationID string, maxRetries int) reconciliation.SyncSummary {
	if maxRetries <= 0 {
		maxRetries = e.progressiveMaxRetries
	}
	// Reset and the final phase stamp belong to the run that holds the run
	// lock. A rejected trigger must not touch the live run's state, so both
	// happen inside the pass, which runProvider only invokes after acquiring
	// the lock. Progressive passes run sequentially, so the plain vars are
	// safe.
	var owned bool
	var passErr error
	summary := e.runOperation(ctx, operationID, OpProgressive, false, func(ctx context.Context, client reconciliation.ProviderClient, st *passStats) error {
		if !owned {
			owned = true
			e.tracker.Reset(e.now())
		}
		if err := e.progressivePass(ctx, client, st, maxRetries); err != nil {
			passErr = err
			return err
		}
		return nil
	})
	if owned {
		e.tracker.Update(func(s *reconciliation.SyncRunState) {
			if passErr == nil {
				s.Phase = reconciliation.SyncPhaseCompleted
			} else {
				s.Phase = reconciliation.SyncPhaseError
			}
		})
	}
	return summary
}

// ---------------------------------------------------------------------------
// Operation runner
// ---------------------------------------------------------------------------

// passStats accumulates counts for one provider pass
type passStats struct {
	newCount     int
	updatedCount int
	processed    int
	errorCount   int
}

type passFn func(ctx context.Context, client reconciliation.ProviderClient, st *passStats) error

// runOperation resolves the operation's clients and runs the pass against
// each, concurrently unless the pass publishes shared run state. Summaries
// aggregate across providers; the first failure sets the message.
func (e *Engine) runOperation(ctx context.Context, operationID, operation string, concurrent bool, pass passFn) reconciliation.SyncSummary {
	start := e.now()

	clients, err := e.registry.ClientsFor(operationID)
	if err != nil {
		return reconciliation.SyncSummary{
			Message: fmt.Sprintf("operation %q: %v", operationID, err),
		}
	}
	if len(clients) == 0 {
		return reconciliation.SyncSummary{
			Success: true,
			Message: "no providers configured",
		}
	}

	summary := reconciliation.SyncSummary{Success: true}
	var mu sync.Mutex
	merge := func(provider reconciliation.ProviderCode, st passStats, runErr error) {
		mu.Lock()
		defer mu.Unlock()
		summary.NewCount += st.newCount
		summary.UpdatedCount += st.updatedCount
		summary.TotalProcessed += st.processed
		summary.ErrorCount += st.errorCount
		if runErr != nil {
			summary.Success = false
			if summary.Message == "" {
				summary.Message = fmt.Sprintf("%s: %v", provider, runErr)
			}
		}
	}

	if concurrent {
		var wg sync.WaitGroup
		for _, client := range clients {
			wg.Add(1)
			go func(client reconciliation.ProviderClient) {
				defer wg.Done()
				st, runErr := e.runProvider(ctx, client, operation, pass)
				merge(client.Provider(), st, runErr)
			}(client)
		}
		wg.Wait()
	} else {
		for _, client := range clients {
			st, runErr := e.runProvider(ctx, client, operation, pass)
			merge(client.Provider(), st, runErr)
		}
	}

	summary.DurationMs = e.now().Sub(start).Milliseconds()
	if summary.Success && summary.Message == "" {
		summary.Message = "sync completed"
	}
	return summary
}

// runProvider takes the (provider, operation) run lock, executes the pass
// and records its outcome for future volume classification. A held lock
// rejects the run with ErrSyncAlreadyRunning and zero ledger writes.
func (e *Engine) runProvider(ctx context.Context, client reconciliation.ProviderClient, operation string, pass passFn) (passStats, error) {
	provider := client.Provider()
	key := reconciliation.RunLockKey(provider, operation)

	acquired, err := e.lock.TryAcquire(ctx, key)
	if err != nil {
		return passStats{}, fmt.Errorf("run lock: %w", err)
	}
	if !acquired {
		e.logger.Warn("sync rejected, already running",
			zap.String("provider", provider.String()),
			zap.String("operation", operation))
		return passStats{}, reconciliation.ErrSyncAlreadyRunning
	}
	defer func() {
		if relErr := e.lock.Release(context.WithoutCancel(ctx), key); relErr != nil {
			e.logger.Error("failed to release run lock",
				zap.String("key", key), zap.Error(relErr))
		}
	}()

	start := e.now()
	st := passStats{}
	passErr := pass(ctx, client, &st)

	e.history.Record(provider, reconciliation.SyncOutcome{
		Timestamp:    e.now(),
		NewCount:     st.newCount,
		UpdatedCount: st.updatedCount,
	})

	fields := []zap.Field{
		zap.String("provider", provider.String()),
		zap.String("operation", operation),
		zap.Int("new", st.newCount),
		zap.Int("updated", st.updatedCount),
		zap.Int("processed", st.processed),
		zap.Int("errors", st.errorCount),
		zap.Duration("took", e.now().Sub(start)),
	}
	if passErr != nil {
		fields = append(fields, zap.Error(passErr))
		e.logger.Warn("sync pass ended with error", fields...)
	} else {
		e.logger.Info("sync pass completed", fields...)
	}

	return st, passErr
}

// ---------------------------------------------------------------------------
// Passes
// ---------------------------------------------------------------------------

func (e *Engine) intelligentPass(ctx context.Context, client reconciliation.ProviderClient, st *passStats) error {
	volume := reconciliation.ClassifyVolume(e.history.Recent(client.Provider()), e.now())
	e.logger.Info("volume classified",
		zap.String("provider", client.Provider().String()),
		zap.String("volume", volume.String()),
		zap.Int("scan_pages", volume.ScanPages()))
	return e.scanPages(ctx, client, st, volume.ScanPages(), volume.PageDelay(), nil)
}

// scanPages fetches pages sequentially starting at 1 and upserts each.
// maxPages <= 0 means unbounded; a short or empty page always ends the walk.
// A page-fetch error ends the walk with partial counts already in st.
func (e *Engine) scanPages(ctx context.Context, client reconciliation.ProviderClient, st *passStats, maxPages int, delay time.Duration, onPage func(page, pageLen int)) error {
	for page := 1; maxPages <= 0 || page <= maxPages; page++ {
		remote, err := client.ListOrders(ctx, page)
		if err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}

		e.processPage(ctx, client, remote, st)
		if onPage != nil {
			onPage(page, len(remote))
		}

		if len(remote) < client.PageSize() {
			break
		}
		if maxPages <= 0 || page < maxPages {
			if err := e.sleep(ctx, delay); err != nil {
				return err
			}
		}
	}
	return nil
}

// processPage diffs one page of remote orders against the ledger. Per-order
// errors are logged and counted, never fatal; re-running the same page is a
// no-op.
func (e *Engine) processPage(ctx context.Context, client reconciliation.ProviderClient, remote []reconciliation.RemoteOrder, st *passStats) {
	for i := range remote {
		st.processed++
		outcome, err := e.upsertOrder(ctx, client, &remote[i])
		if err != nil {
			st.errorCount++
			e.logger.Warn("order processing failed",
				zap.String("provider", client.Provider().String()),
				zap.String("external_id", remote[i].ExternalID),
				zap.Error(err))
			continue
		}
		switch outcome {
		case outcomeNew:
			st.newCount++
		case outcomeUpdated:
			st.updatedCount++
		}
	}
}

type upsertOutcome int

const (
	outcomeUnchanged upsertOutcome = iota
	outcomeNew
	outcomeUpdated
)

// upsertOrder applies the per-order reconciliation rule: insert when absent
// (with derived costs), update status when it differs, true no-op otherwise.
func (e *Engine) upsertOrder(ctx context.Context, client reconciliation.ProviderClient, remote *reconciliation.RemoteOrder) (upsertOutcome, error) {
	id := reconciliation.BuildOrderID(remote.Provider, remote.ExternalID)

	existing, err := e.orders.FindByID(ctx, id)
	switch {
	case errors.Is(err, reconciliation.ErrOrderMissing):
		order := e.newOrderFromRemote(remote)
		if err := e.orders.Insert(ctx, order); err != nil {
			return outcomeUnchanged, fmt.Errorf("insert %s: %w", id, err)
		}
		e.notify(ctx, client, reconciliation.EventOrderCreated, order)
		return outcomeNew, nil

	case err != nil:
		return outcomeUnchanged, fmt.Errorf("lookup %s: %w", id, err)

	case existing.Status != remote.Status:
		if err := e.orders.UpdateStatus(ctx, id, remote.Status); err != nil {
			return outcomeUnchanged, fmt.Errorf("update %s: %w", id, err)
		}
		existing.Status = remote.Status
		e.notify(ctx, client, reconciliation.EventOrderStatusChanged, existing)
		return outcomeUpdated, nil

	default:
		// Unchanged: zero writes.
		return outcomeUnchanged, nil
	}
}

func (e *Engine) newOrderFromRemote(remote *reconciliation.RemoteOrder) *reconciliation.Order {
	now := e.now()
	productCost, shippingCost := reconciliation.DerivedCosts(remote.Status, remote.Total)
	return &reconciliation.Order{
		ID:               reconciliation.BuildOrderID(remote.Provider, remote.ExternalID),
		Customer:         remote.Customer,
		Status:           remote.Status,
		Total:            remote.Total,
		Currency:         remote.Currency,
		ProductCost:      productCost,
		ShippingCost:     shippingCost,
		PaymentMethod:    remote.PaymentMethod,
		Provider:         remote.Provider,
		OrderDate:        remote.OrderDate,
		LastStatusUpdate: now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// notify dispatches an order event unless the source is simulated. Delivery
// failures never fail the sync.
func (e *Engine) notify(ctx context.Context, client reconciliation.ProviderClient, eventType reconciliation.EventType, order *reconciliation.Order) {
	if client.Simulated() {
		return
	}
	if err := e.notifier.NotifyOrderEvent(ctx, eventType, order); err != nil {
		e.logger.Warn("order event not delivered",
			zap.String("order_id", order.ID),
			zap.String("event", string(eventType)),
			zap.Error(err))
	}
}

// ---------------------------------------------------------------------------
// Incremental
// ---------------------------------------------------------------------------

func (e *Engine) incrementalPass(ctx context.Context, client reconciliation.ProviderClient, st *passStats, maxPages int) error {
	active, err := e.orders.FindActive(ctx, client.Provider())
	if err != nil {
		return fmt.Errorf("load active orders: %w", err)
	}
	if err := e.recheckOrders(ctx, client, active, st); err != nil {
		return err
	}

	sample, err := e.orders.FindTerminalSample(ctx, client.Provider(), e.terminalSampleSize)
	if err != nil {
		return fmt.Errorf("load terminal sample: %w", err)
	}
	if err := e.recheckOrders(ctx, client, sample, st); err != nil {
		return err
	}

	return e.scanPages(ctx, client, st, maxPages, reconciliation.VolumeMedium.PageDelay(), nil)
}

// recheckOrders asks the carrier for the current status of known orders and
// applies differences. A nil status means the carrier no longer knows the
// order; the ledger keeps its last state since the engine never deletes.
func (e *Engine) recheckOrders(ctx context.Context, client reconciliation.ProviderClient, orders []reconciliation.Order, st *passStats) error {
	provider := client.Provider()
	for i := range orders {
		order := &orders[i]
		st.processed++

		status, err := client.GetOrderStatus(ctx, reconciliation.ExternalID(provider, order.ID))
		if err != nil {
			if errors.Is(err, reconciliation.ErrProviderUnavailable) {
				return fmt.Errorf("status re-check %s: %w", order.ID, err)
			}
			st.errorCount++
			e.logger.Warn("status re-check failed",
				zap.String("order_id", order.ID),
				zap.Error(err))
			continue
		}
		if status == nil || *status == order.Status {
			continue
		}

		if err := e.orders.UpdateStatus(ctx, order.ID, *status); err != nil {
			st.errorCount++
			e.logger.Warn("status update failed",
				zap.String("order_id", order.ID),
				zap.Error(err))
			continue
		}
		st.updatedCount++
		order.Status = *status
		e.notify(ctx, client, reconciliation.EventOrderStatusChanged, order)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Progressive
// ---------------------------------------------------------------------------

// progressivePass walks all pages publishing live run state, retrying a
// failed walk from the page that failed with exponential backoff.
func (e *Engine) progressivePass(ctx context.Context, client reconciliation.ProviderClient, st *passStats, maxRetries int) error {
	startPage := 1
	retries := 0
	walkStart := e.now()

	// The ledger count seeds the totals so progress has a denominator from
	// the first page; publishProgress grows it when the provider turns out
	// to hold more orders than the ledger knew about.
	estimated, err := e.orders.CountByProvider(ctx, client.Provider())
	if err != nil {
		e.logger.Warn("ledger count unavailable, totals start at zero",
			zap.String("provider", client.Provider().String()),
			zap.Error(err))
		estimated = 0
	}
	pageSize := client.PageSize()
	e.tracker.Update(func(s *reconciliation.SyncRunState) {
		s.TotalCount = int(estimated)
		s.TotalPages = pagesFor(int(estimated), pageSize)
	})

	for {
		e.tracker.Update(func(s *reconciliation.SyncRunState) {
			s.Phase = reconciliation.SyncPhaseSyncing
		})

		failedPage, err := e.progressiveWalk(ctx, client, st, startPage, walkStart)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if retries >= maxRetries {
			return fmt.Errorf("giving up after %d retries: %w", retries, err)
		}

		retries++
		backoff := progressiveBackoff(retries)
		e.logger.Warn("progressive sync interrupted, retrying",
			zap.String("provider", client.Provider().String()),
			zap.Int("retry", retries),
			zap.Int("resume_page", failedPage),
			zap.Duration("backoff", backoff),
			zap.Error(err))
		e.tracker.Update(func(s *reconciliation.SyncRunState) {
			s.Phase = reconciliation.SyncPhaseRetrying
			s.RetryCount = retries
		})

		if err := e.sleep(ctx, backoff); err != nil {
			return err
		}
		// Earlier pages are already reconciled; resume where the walk broke.
		startPage = failedPage
	}
}

// progressiveWalk pages from startPage to the end, updating the shared run
// state after each page. On error it returns the page that failed so the
// caller can resume there.
func (e *Engine) progressiveWalk(ctx context.Context, client reconciliation.ProviderClient, st *passStats, startPage int, walkStart time.Time) (int, error) {
	pageSize := client.PageSize()
	for page := startPage; ; page++ {
		remote, err := client.ListOrders(ctx, page)
		if err != nil {
			return page, fmt.Errorf("page %d: %w", page, err)
		}

		e.processPage(ctx, client, remote, st)
		e.publishProgress(st, page, pageSize, walkStart)

		if len(remote) < pageSize {
			return 0, nil
		}
		if err := e.sleep(ctx, reconciliation.VolumeHigh.PageDelay()); err != nil {
			return page + 1, err
		}
	}
}

func (e *Engine) publishProgress(st *passStats, page, pageSize int, walkStart time.Time) {
	elapsed := e.now().Sub(walkStart).Seconds()
	speed := 0.0
	if elapsed > 0 {
		speed = float64(st.processed) / elapsed
	}
	e.tracker.Update(func(s *reconciliation.SyncRunState) {
		s.CurrentPage = page
		s.ProcessedCount = st.processed
		s.NewCount = st.newCount
		s.UpdatedCount = st.updatedCount
		s.ErrorCount = st.errorCount
		s.Speed = speed
		// The seeded totals are an estimate; the walk is the truth.
		if st.processed > s.TotalCount {
			s.TotalCount = st.processed
		}
		if minPages := pagesFor(s.TotalCount, pageSize); minPages > s.TotalPages {
			s.TotalPages = minPages
		}
		if page > s.TotalPages {
			s.TotalPages = page
		}
		s.ETAText = etaText(speed, s.TotalCount-st.processed)
	})
}

// pagesFor is the page count needed to cover count orders at pageSize per
// page
func pagesFor(count, pageSize int) int {
	if count <= 0 || pageSize <= 0 {
		return 0
	}
	return (count + pageSize - 1) / pageSize
}

// etaText renders the remaining time at the current speed for operators
// polling the run state
func etaText(speed float64, remaining int) string {
	if remaining <= 0 {
		return "finishing"
	}
	if speed <= 0 {
		return "calculating"
	}
	eta := time.Duration(float64(remaining) / speed * float64(time.Second))
	return eta.Round(time.Second).String()
}

func progressiveBackoff(retry int) time.Duration {
	backoff := progressiveBackoffBase << (retry - 1)
	if backoff > progressiveBackoffCap {
		return progressiveBackoffCap
	}
	return backoff
}
