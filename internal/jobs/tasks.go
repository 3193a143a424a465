package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue every billing background task runs on.
	QueueDefault = "default"
	// TaskInvoicePrerender renders a bill invoice to PDF ahead of download.
	TaskInvoicePrerender = "invoice:prerender"
	// TaskStatsWarmup precomputes the analytics caches.
	TaskStatsWarmup = "stats:warmup"
)

// InvoicePrerenderPayload identifies the bill to render.
type InvoicePrerenderPayload struct {
	BillID uuid.UUID `json:"billId"`
}

// NewInvoicePrerenderTask constructs an invoice prerender task.
func NewInvoicePrerenderTask(billID uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(InvoicePrerenderPayload{BillID: billID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoicePrerender, data), nil
}

// NewStatsWarmupTask constructs a stats warmup task. The payload is empty; the
// task recomputes every cached statistic.
func NewStatsWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskStatsWarmup, nil)
}
