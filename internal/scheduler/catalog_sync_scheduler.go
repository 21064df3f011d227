package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/service"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// CatalogSyncer copies the admin export into the local catalog tables.
type CatalogSyncer interface {
	SyncFromExport(ctx context.Context) ([]service.SyncResult, error)
}

// CatalogSyncScheduler runs the catalog sync on a cron schedule.
type CatalogSyncScheduler struct {
	cron     *cron.Cron
	syncer   CatalogSyncer
	schedule string
	timeout  time.Duration

	mu      sync.Mutex
	running bool
}

// NewCatalogSyncScheduler builds a scheduler for schedule, a standard
// five-field cron spec. Each run is bounded by timeout.
func NewCatalogSyncScheduler(syncer CatalogSyncer, schedule string, timeout time.Duration) *CatalogSyncScheduler {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &CatalogSyncScheduler{
		cron:     cron.New(),
		syncer:   syncer,
		schedule: schedule,
		timeout:  timeout,
	}
}

// Start registers the job and starts the cron loop.
func (s *CatalogSyncScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.RunOnce); err != nil {
		logger.Error("Failed to add cron job for catalog sync", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Catalog sync scheduler started", map[string]interface{}{
		"schedule": s.schedule,
	})
	return nil
}

// RunOnce performs a single sync. A run that overlaps a previous one is
// skipped.
func (s *CatalogSyncScheduler) RunOnce() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		logger.Warn("Catalog sync still running, skipping this tick")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	logger.Info("Starting scheduled catalog sync")
	results, err := s.syncer.SyncFromExport(ctx)
	if err != nil {
		logger.Error("Catalog sync finished with errors", err, map[string]interface{}{
			"synced_types": len(results),
		})
		return
	}

	logger.Info("Catalog sync completed", map[string]interface{}{
		"synced_types": len(results),
	})
}

// Stop halts the cron loop and waits for a running sync to return.
func (s *CatalogSyncScheduler) Stop() {
	logger.Info("Stopping catalog sync scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Catalog sync scheduler stopped")
}
