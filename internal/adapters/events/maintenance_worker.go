package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/findinggems/settlement-service/internal/application"
)

// MaintenanceWorker runs the two scheduled sweeps: expiring stale pending
// orders and maturing held credits whose refund window has closed. Both
// operations are idempotent, so overlapping runs across replicas are safe.
type MaintenanceWorker struct {
	logger   *slog.Logger
	service  *application.Service
	interval time.Duration
}

func NewMaintenanceWorker(logger *slog.Logger, service *application.Service, interval time.Duration) *MaintenanceWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &MaintenanceWorker{logger: logger, service: service, interval: interval}
}

func (w *MaintenanceWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if err := w.processOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "maintenance iteration failed",
				"module", "events.maintenance_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *MaintenanceWorker) processOnce(ctx context.Context) error {
	expired, err := w.service.ExpireStalePending(ctx)
	if err != nil {
		return err
	}
	matured, err := w.service.MaturePendingCredits(ctx)
	if err != nil {
		return err
	}
	if expired > 0 || matured > 0 {
		w.logger.InfoContext(ctx, "maintenance sweep completed",
			"module", "events.maintenance_worker",
			"layer", "adapter",
			"operation", "process_once",
			"outcome", "success",
			"orders_expired", expired,
			"credits_matured", matured,
		)
	}
	return nil
}
