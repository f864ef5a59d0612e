// Package scheduler runs background delivery and follow-up tasks on an
// asynq queue backed by Redis.
package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"orderdesk_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	client *asynq.Client
	queue  string
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

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueOutboxDispatch queues immediate delivery of an outbox row.
func (c *Client) EnqueueOutboxDispatch(ctx context.Context, outboxID, orgID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewOutboxDispatchTask(OutboxDispatchPayload{
		OutboxID:       outboxID.String(),
		OrganizationID: orgID.String(),
	})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

// EnqueueInquiryFollowUp schedules a reminder that fires if a customer
// inquiry is still unresolved after the delay.
func (c *Client) EnqueueInquiryFollowUp(ctx context.Context, orgID uuid.UUID, phone string, delay time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewInquiryFollowUpTask(InquiryFollowUpPayload{
		OrganizationID: orgID.String(),
		CustomerPhone:  phone,
	})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.ProcessIn(delay), asynq.Queue(c.queue))
	return err
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
