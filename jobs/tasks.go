package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskInvoicesMarkOverdue is the task type for the nightly overdue sweep.
	TaskInvoicesMarkOverdue = "invoices:mark_overdue"
)

// OverdueMarker flips open invoices past their due date to overdue.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context) (int64, error)
}

// NewMarkOverdueTask constructs the overdue sweep task. The sweep takes no
// payload; the database decides which invoices qualify.
func NewMarkOverdueTask() *asynq.Task {
	return asynq.NewTask(TaskInvoicesMarkOverdue, nil)
}

// NewMarkOverdueHandler adapts the invoice service into an Asynq handler.
func NewMarkOverdueHandler(marker OverdueMarker, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		n, err := marker.MarkOverdue(ctx)
		if err != nil {
			if logger != nil {
				logger.Error("overdue sweep", slog.Any("error", err))
			}
			return err
		}
		if logger != nil {
			logger.Info("overdue sweep complete", slog.Int64("marked", n))
		}
		return nil
	}
}
