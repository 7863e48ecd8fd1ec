// Package background runs the catalog's periodic jobs.
package background

import (
	"context"
	"time"

	"catalogd/internal/repositories"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// JobScheduler owns the gocron scheduler and the jobs registered on it.
type JobScheduler struct {
	scheduler         gocron.Scheduler
	inventoryRepo     repositories.InventoryRepository
	lowStockThreshold int
	logger            *zap.Logger
}

func NewJobScheduler(inventoryRepo repositories.InventoryRepository, lowStockThreshold int, logger *zap.Logger) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler:         scheduler,
		inventoryRepo:     inventoryRepo,
		lowStockThreshold: lowStockThreshold,
		logger:            logger,
	}
	if err := js.registerJobs(); err != nil {
		return nil, err
	}
	return js, nil
}

func (js *JobScheduler) registerJobs() error {
	_, err := js.scheduler.NewJob(
		gocron.DurationJob(15*time.Minute),
		gocron.NewTask(js.scanLowStock, context.Background()),
		gocron.WithName("low-stock-scan"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

func (js *JobScheduler) Start() {
	js.logger.Info("starting background job scheduler")
	js.scheduler.Start()
}

func (js *JobScheduler) Stop() error {
	js.logger.Info("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// scanLowStock reports inventory rows at or below the configured threshold.
// Observational only; it never writes.
func (js *JobScheduler) scanLowStock(ctx context.Context) {
	inventories, err := js.inventoryRepo.ListBelow(ctx, js.lowStockThreshold)
	if err != nil {
		js.logger.Error("low-stock scan failed", zap.Error(err))
		return
	}
	for _, inventory := range inventories {
		js.logger.Warn("product running low on stock",
			zap.Int64("product_id", inventory.ProductID),
			zap.Int("quantity", inventory.Quantity))
	}
}
