package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/radio-t/webradio/podcast"
)

// Client enqueues background renders
type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	timeout   time.Duration
	maxRetry  int
}

// ClientParams contains settings of the client
type ClientParams struct {
	Redis    RedisConfig
	Timeout  time.Duration // per task, 10 minutes by default
	MaxRetry int           // 3 by default
}

// NewClient creates a new queue client
func NewClient(params ClientParams) *Client {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	maxRetry := params.MaxRetry
	if maxRetry <= 0 {
		maxRetry = 3
	}
	return &Client{
		client:    asynq.NewClient(params.Redis.clientOpt()),
		inspector: asynq.NewInspector(params.Redis.clientOpt()),
		timeout:   timeout,
		maxRetry:  maxRetry,
	}
}

// Close closes the redis connections
func (c *Client) Close() error {
	return errors.Join(c.client.Close(), c.inspector.Close())
}

// EnqueueRender schedules a render of the request under its cache key and returns the task id.
// A render still queued or running for the same key is not queued twice, a finished
// or archived task of the key is replaced by a new one.
func (c *Client) EnqueueRender(ctx context.Context, key string, req podcast.RenderRequest) (string, error) {
	if key == "" {
		return "", errors.New("empty render key")
	}
	data, err := json.Marshal(RenderPayload{Key: key, URL: req.URL, Style: req.Style, Language: req.Language})
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeRender, data)
	opts := []asynq.Option{asynq.TaskID(key), asynq.MaxRetry(c.maxRetry), asynq.Timeout(c.timeout)}
	info, err := c.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		replaced, rerr := c.dropFinished(key)
		if rerr != nil {
			return "", rerr
		}
		if !replaced {
			return key, nil
		}
		info, err = c.client.EnqueueContext(ctx, task, opts...)
	}
	if err != nil {
		return "", fmt.Errorf("failed to enqueue %s: %w", TypeRender, err)
	}
	return info.ID, nil
}

// dropFinished deletes the task of the key if it is archived or completed
func (c *Client) dropFinished(key string) (bool, error) {
	info, err := c.inspector.GetTaskInfo(queueName, key)
	if errors.Is(err, asynq.ErrTaskNotFound) {
		return true, nil // gone between enqueue and lookup
	}
	if err != nil {
		return false, fmt.Errorf("failed to inspect task %s: %w", key, err)
	}
	if info.State != asynq.TaskStateArchived && info.State != asynq.TaskStateCompleted {
		return false, nil
	}
	if err := c.inspector.DeleteTask(queueName, key); err != nil && !errors.Is(err, asynq.ErrTaskNotFound) {
		return false, fmt.Errorf("failed to delete %s task %s: %w", info.State, key, err)
	}
	return true, nil
}
