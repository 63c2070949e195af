// Package jobs defines background tasks and the Asynq worker wiring.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSummaryRefresh recomputes and warms the reconciliation summaries.
	TaskSummaryRefresh = "summary:refresh"
)

// refreshDebounce collapses refresh tasks enqueued in quick succession,
// e.g. while a batch of vouchers is being entered.
const refreshDebounce = 10 * time.Second

// NewSummaryRefreshTask constructs the summary refresh task.
func NewSummaryRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskSummaryRefresh, nil)
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueSummaryRefresh schedules a debounced summary recomputation.
// Satisfies ledger.TaskEnqueuer.
func (c *Client) EnqueueSummaryRefresh(ctx context.Context) error {
	_, err := c.client.EnqueueContext(ctx, NewSummaryRefreshTask(),
		asynq.Queue(QueueDefault),
		asynq.Unique(refreshDebounce),
	)
	if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		return err
	}
	return nil
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
