package queue

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rotzhost/rotzcoder/internal/config"
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) EnqueueSessionsPurge() error {
	return c.enqueue(NewSessionsPurgeTask(),
		asynq.Queue("low"), asynq.MaxRetry(2), asynq.Timeout(time.Minute))
}

func (c *Client) EnqueueRollup(p RollupPayload) error {
	task, err := NewRollupTask(p)
	if err != nil {
		return err
	}
	return c.enqueue(task,
		asynq.Queue("default"), asynq.MaxRetry(3), asynq.Timeout(5*time.Minute))
}

func (c *Client) EnqueuePrune() error {
	return c.enqueue(NewPruneTask(),
		asynq.Queue("low"), asynq.MaxRetry(2), asynq.Timeout(10*time.Minute))
}

func (c *Client) enqueue(task *asynq.Task, opts ...asynq.Option) error {
	if _, err := c.client.Enqueue(task, opts...); err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	return nil
}
