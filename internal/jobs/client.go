package jobs

import (
	"context"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Client submits billing background tasks to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an asynq-backed task client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueuePDFPrerender queues an invoice prerender for the given bill.
func (c *Client) EnqueuePDFPrerender(ctx context.Context, billID uuid.UUID) error {
	task, err := NewInvoicePrerenderTask(billID)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// EnqueueStatsWarmup queues an analytics warmup run.
func (c *Client) EnqueueStatsWarmup(ctx context.Context) error {
	_, err := c.client.EnqueueContext(ctx, NewStatsWarmupTask(), asynq.Queue(QueueDefault))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
