package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nexora/backend/internal/application/billing"
	"go.uber.org/zap"
)

// ErrSchedulerNotRunning is returned when a manual trigger is requested
// on a stopped scheduler.
var ErrSchedulerNotRunning = errors.New("scheduler is not running")

// LifecycleScheduler runs the periodic background work of the
// subscription lifecycle: locking expired read-only tenants and keeping
// the Stripe catalog in sync.
type LifecycleScheduler struct {
	subscriptions *billing.SubscriptionService
	catalogSync   *billing.CatalogSyncService
	logger        *zap.Logger
	config        LifecycleSchedulerConfig
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	mu            sync.Mutex
	isRunning     bool
}

// LifecycleSchedulerConfig holds configuration for the lifecycle scheduler
type LifecycleSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// SweepInterval is how often expired read-only subscriptions are locked
	SweepInterval time.Duration

	// CatalogSyncInterval is how often the Stripe catalog is reconciled
	CatalogSyncInterval time.Duration

	// RunTimeout is the maximum time for a single sweep or sync run
	RunTimeout time.Duration
}

// DefaultLifecycleSchedulerConfig returns default configuration
func DefaultLifecycleSchedulerConfig() LifecycleSchedulerConfig {
	return LifecycleSchedulerConfig{
		Enabled:             true,
		SweepInterval:       24 * time.Hour,
		CatalogSyncInterval: 6 * time.Hour,
		RunTimeout:          10 * time.Minute,
	}
}

// NewLifecycleScheduler creates a new lifecycle scheduler
func NewLifecycleScheduler(
	subscriptions *billing.SubscriptionService,
	catalogSync *billing.CatalogSyncService,
	logger *zap.Logger,
	config LifecycleSchedulerConfig,
) *LifecycleScheduler {
	return &LifecycleScheduler{
		subscriptions: subscriptions,
		catalogSync:   catalogSync,
		logger:        logger,
		config:        config,
	}
}

// Start starts the scheduler loops
func (s *LifecycleScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Lifecycle scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runSweepLoop(ctx)

	s.wg.Add(1)
	go s.runCatalogSyncLoop(ctx)

	s.logger.Info("Lifecycle scheduler started",
		zap.Duration("sweep_interval", s.config.SweepInterval),
		zap.Duration("catalog_sync_interval", s.config.CatalogSyncInterval),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *LifecycleScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Lifecycle scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Lifecycle scheduler stop timed out")
		return ctx.Err()
	}
}

// runSweepLoop locks expired read-only subscriptions on a fixed interval
func (s *LifecycleScheduler) runSweepLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	// Sweep once at startup so a restarted service does not wait a full
	// interval to lock overdue tenants.
	s.executeSweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Sweep loop stopping")
			return
		case <-ticker.C:
			s.executeSweep(ctx)
		}
	}
}

// runCatalogSyncLoop reconciles the Stripe catalog on a fixed interval
func (s *LifecycleScheduler) runCatalogSyncLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CatalogSyncInterval)
	defer ticker.Stop()

	s.executeCatalogSync(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Catalog sync loop stopping")
			return
		case <-ticker.C:
			s.executeCatalogSync(ctx)
		}
	}
}

// executeSweep runs one read-only expiry sweep
func (s *LifecycleScheduler) executeSweep(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	startTime := time.Now()
	locked, err := s.subscriptions.SweepExpired(runCtx, startTime)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Read-only expiry sweep failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Read-only expiry sweep completed",
		zap.Int("locked", locked),
		zap.Duration("duration", duration),
	)
}

// executeCatalogSync runs one catalog reconciliation
func (s *LifecycleScheduler) executeCatalogSync(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	startTime := time.Now()
	err := s.catalogSync.SyncAll(runCtx)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Catalog sync failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	s.logger.Debug("Catalog sync completed",
		zap.Duration("duration", duration),
	)
}

// TriggerSweep runs an immediate sweep without waiting for the ticker
func (s *LifecycleScheduler) TriggerSweep(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info("Triggering immediate expiry sweep")

	go func() {
		defer s.wg.Done()
		s.executeSweep(ctx)
	}()

	return nil
}

// IsRunning returns whether the scheduler is running
func (s *LifecycleScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
