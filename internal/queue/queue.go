// Package queue hands article IDs to background scoring workers through Redis.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ppiankov/finsent/internal/model"
)

// DefaultKey is the Redis list holding article IDs awaiting scores
const DefaultKey = "finsent:score"

// ErrEmpty is returned by Pop when nothing arrived before the timeout
var ErrEmpty = errors.New("queue empty")

// Queue is a FIFO of article IDs
type Queue interface {
	Publish(ctx context.Context, ids ...string) error
	Pop(ctx context.Context, timeout time.Duration) (string, error)
	Close() error
}

// RedisQueue pushes on the left and pops from the right of one list
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue connects to Redis and verifies the connection
func NewRedisQueue(ctx context.Context, cfg model.QueueConfig) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	return newRedisQueue(client, cfg.Key), nil
}

func newRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultKey
	}
	return &RedisQueue{client: client, key: key}
}

// Key returns the list name
func (q *RedisQueue) Key() string {
	return q.key
}

// Publish enqueues ids in order
func (q *RedisQueue) Publish(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	values := make([]interface{}, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	if err := q.client.LPush(ctx, q.key, values...).Err(); err != nil {
		return fmt.Errorf("publish %d ids: %w", len(ids), err)
	}
	return nil
}

// Pop blocks up to timeout for the oldest id
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrEmpty
	}
	if err != nil {
		return "", fmt.Errorf("pop: %w", err)
	}
	if len(res) < 2 {
		return "", ErrEmpty
	}
	return res[1], nil
}

// Close closes the Redis client
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
