// Package jobs defines the background tasks and the Asynq worker running
// them: the periodic commerce sync and the overdue-invoice sweep.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/Africamobilier/erp/internal/facturation"
	"github.com/Africamobilier/erp/internal/shared"
	"github.com/Africamobilier/erp/internal/woocommerce"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskWoocommerceSyncAll runs a full customers/products/orders sync.
	TaskWoocommerceSyncAll = "wc:sync_all"
	// TaskFacturesRetard flips overdue invoices to en_retard.
	TaskFacturesRetard = "factures:retard"
)

// SyncAllPayload parametrizes a sync run. Empty today, kept for forward
// compatible task payloads.
type SyncAllPayload struct{}

// NewSyncAllTask constructs the periodic sync task.
func NewSyncAllTask() (*asynq.Task, error) {
	data, err := json.Marshal(SyncAllPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWoocommerceSyncAll, data), nil
}

// NewFacturesRetardTask constructs the overdue-invoice sweep task.
func NewFacturesRetardTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskFacturesRetard, nil), nil
}

// SyncAllJob runs the full sync on schedule.
type SyncAllJob struct {
	service *woocommerce.Service
	logger  *slog.Logger
}

func NewSyncAllJob(service *woocommerce.Service, logger *slog.Logger) *SyncAllJob {
	return &SyncAllJob{service: service, logger: logger}
}

// Handle processes TaskWoocommerceSyncAll. A run skipped because another
// instance holds the lock is not an error.
func (j *SyncAllJob) Handle(ctx context.Context, t *asynq.Task) error {
	result, err := j.service.SyncAll(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrLockHeld) {
			j.logger.Info("sync déjà en cours, passe ignorée")
			return nil
		}
		if errors.Is(err, shared.ErrNotFound) {
			j.logger.Warn("aucune configuration woocommerce active")
			return asynq.SkipRetry
		}
		return err
	}
	j.logger.Info("sync terminée",
		slog.Int("clients", result.Customers),
		slog.Int("produits", result.Products),
		slog.Int("devis", result.Orders))
	return nil
}

// FacturesRetardJob sweeps open invoices past their due date.
type FacturesRetardJob struct {
	service *facturation.Service
	logger  *slog.Logger
}

func NewFacturesRetardJob(service *facturation.Service, logger *slog.Logger) *FacturesRetardJob {
	return &FacturesRetardJob{service: service, logger: logger}
}

// Handle processes TaskFacturesRetard.
func (j *FacturesRetardJob) Handle(ctx context.Context, t *asynq.Task) error {
	n, err := j.service.MarquerEnRetard(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		j.logger.Info("factures passées en retard", slog.Int64("count", n))
	}
	return nil
}
