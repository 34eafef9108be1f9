package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOutbox keeps a device's queued jobs in a Redis list so they survive
// restarts and can be replayed after connectivity returns.
type RedisOutbox struct {
	client *redis.Client
	key    string
}

// NewRedisOutbox connects to redisURL and uses one list per device.
// rediss:// URLs enable TLS.
func NewRedisOutbox(redisURL, prefix, deviceID string) (*RedisOutbox, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisOutboxWithClient(client, prefix, deviceID), nil
}

func NewRedisOutboxWithClient(client *redis.Client, prefix, deviceID string) *RedisOutbox {
	return &RedisOutbox{
		client: client,
		key:    prefix + deviceID,
	}
}

func (o *RedisOutbox) Key() string {
	return o.key
}

func (o *RedisOutbox) Push(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := o.client.RPush(ctx, o.key, data).Err(); err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Peek returns the head job. A head entry that cannot be decoded is moved to
// DeadLetterKey so it never blocks the jobs queued behind it.
func (o *RedisOutbox) Peek(ctx context.Context) (*Job, error) {
	for {
		data, err := o.client.LIndex(ctx, o.key, 0).Bytes()
		if err == redis.Nil {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("peek job: %w", err)
		}

		var job Job
		decodeErr := json.Unmarshal(data, &job)
		if decodeErr == nil {
			return &job, nil
		}
		log.Printf("[Outbox] moving undecodable job to %s: %v", o.DeadLetterKey(), decodeErr)

		if err := o.client.LMove(ctx, o.key, o.DeadLetterKey(), "LEFT", "RIGHT").Err(); err != nil && err != redis.Nil {
			return nil, fmt.Errorf("dead-letter job: %w", err)
		}
	}
}

// DeadLetterKey holds entries of the device's outbox that could not be decoded.
func (o *RedisOutbox) DeadLetterKey() string {
	return o.key + ":dead"
}

func (o *RedisOutbox) Ack(ctx context.Context, jobID string) error {
	head, err := o.Peek(ctx)
	if err != nil {
		return err
	}
	if head == nil || head.ID != jobID {
		return fmt.Errorf("job %s is not at the head of the outbox", jobID)
	}
	if err := o.client.LPop(ctx, o.key).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("ack job: %w", err)
	}
	return nil
}

func (o *RedisOutbox) Len(ctx context.Context) (int, error) {
	n, err := o.client.LLen(ctx, o.key).Result()
	if err != nil {
		return 0, fmt.Errorf("outbox length: %w", err)
	}
	return int(n), nil
}

func (o *RedisOutbox) Pending(ctx context.Context) ([]*Job, error) {
	items, err := o.client.LRange(ctx, o.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	jobs := make([]*Job, 0, len(items))
	for _, item := range items {
		var job Job
		if err := json.Unmarshal([]byte(item), &job); err != nil {
			log.Printf("[Outbox] skipping undecodable job in %s: %v", o.key, err)
			continue
		}
		jobs = append(jobs, &job)
	}
	return jobs, nil
}

func (o *RedisOutbox) Close() error {
	return o.client.Close()
}

func (o *RedisOutbox) Ping(ctx context.Context) error {
	return o.client.Ping(ctx).Err()
}
