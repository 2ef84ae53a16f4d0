package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"avfall_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	importMaxRetry = 3
	importTimeout  = 15 * time.Minute
)

type Client struct {
	client *asynq.Client
	queue  string
}

// ImportScheduler hands archived workbooks to the worker.
type ImportScheduler interface {
	EnqueueAddressImport(ctx context.Context, payload AddressImportPayload) error
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueAddressImport queues one import. The import id doubles as the task
// id so a retried request cannot queue the same run twice. Upserts are
// idempotent, which makes the task safe to retry.
func (c *Client) EnqueueAddressImport(ctx context.Context, payload AddressImportPayload) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("scheduler not configured")
	}

	task, err := NewAddressImportTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.TaskID(payload.ImportID),
		asynq.MaxRetry(importMaxRetry),
		asynq.Timeout(importTimeout),
	)
	return err
}

func queueName(cfg config.SchedulerConfig) string {
	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	return queue
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}

var _ ImportScheduler = (*Client)(nil)
