package updater

import (
	"context"
	"time"

	"channel-catalog/config"
	"channel-catalog/logger"
	"channel-catalog/metrics"

	"github.com/robfig/cron/v3"
)

// Refresher rebuilds the cached catalog from upstream.
type Refresher interface {
	Refresh(ctx context.Context) error
}

type Updater struct {
	sync chan struct{}

	Cron      *cron.Cron
	refresher Refresher
	logger    logger.Logger
}

// Initialize schedules catalog refreshes according to the global config.
func Initialize(ctx context.Context, logger logger.Logger, refresher Refresher) (*Updater, error) {
	cfg := config.GetConfig()
	updateInstance := &Updater{
		sync:      make(chan struct{}, 1),
		refresher: refresher,
		logger:    logger,
	}

	if cfg.SyncCron == "" {
		logger.Log("SYNC_CRON is empty. Background catalog refresh disabled.")
	} else {
		c := cron.New()
		_, err := c.AddFunc(cfg.SyncCron, func() {
			go updateInstance.UpdateCatalog(ctx)
		})
		if err != nil {
			logger.Errorf("Error initializing background processes: %v", err)
			return nil, err
		}
		c.Start()
		updateInstance.Cron = c
		logger.Logf("Catalog refresh scheduled with SYNC_CRON %q", cfg.SyncCron)
	}

	if cfg.SyncOnBoot {
		logger.Log("SYNC_ON_BOOT enabled. Starting initial catalog load.")
		go updateInstance.UpdateCatalog(ctx)
	}

	go func() {
		<-ctx.Done()
		updateInstance.Stop()
	}()

	return updateInstance, nil
}

// UpdateCatalog refreshes the catalog once. A run that starts while another
// is in progress is skipped.
func (instance *Updater) UpdateCatalog(ctx context.Context) {
	select {
	case instance.sync <- struct{}{}:
		defer func() { <-instance.sync }()
	default:
		instance.logger.Debug("Background process: catalog refresh already running, skipping.")
		return
	}

	select {
	case <-ctx.Done():
		return
	default:
	}

	instance.logger.Log("Background process: Refreshing channel catalog...")
	started := time.Now()
	err := instance.refresher.Refresh(ctx)
	metrics.RecordRefresh(err)
	if err != nil {
		instance.logger.Errorf("Background process: Error refreshing catalog: %v", err)
		return
	}
	instance.logger.Logf("Background process: Catalog refreshed in %s", time.Since(started).Round(time.Millisecond))
}

// Stop halts the cron scheduler. Running refreshes are not interrupted.
func (instance *Updater) Stop() {
	if instance.Cron != nil {
		instance.Cron.Stop()
	}
}
