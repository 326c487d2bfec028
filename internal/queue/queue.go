// Package queue implements the durable FIFO described in spec.md §4.1 (C2):
// a Redis list rendezvous between ingress and the worker pool, blocking pop
// with a bounded timeout, and an in-memory fake for tests — per spec.md §9
// ("Polymorphism over collaborators").
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/kaylee-dev/payment-intermediary/internal/apperr"
	"github.com/kaylee-dev/payment-intermediary/internal/model"
)

// listKey is the logical storage layout from spec.md §6.
const listKey = "payments_queue"

// Queue is the behavioral contract for the pending-payment FIFO.
type Queue interface {
	// Push appends msg to the tail. Returns apperr.ErrStoreUnavailable if
	// the backing store is unreachable.
	Push(ctx context.Context, msg model.QueueMessage) error

	// Pop blocks up to timeout for a message at the head. Returns
	// (nil, nil) on timeout, apperr.ErrStoreUnavailable on store failure,
	// apperr.ErrMalformed if the head entry could not be decoded (the
	// caller may retry; the entry is already removed).
	Pop(ctx context.Context, timeout time.Duration) (*model.QueueMessage, error)
}

// RedisQueue is the Queue implementation backed by a single Redis list.
type RedisQueue struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewRedisQueue wraps an already-constructed Redis client, following the
// teacher's cache.NewRedisStore constructor shape.
func NewRedisQueue(client *redis.Client, log zerolog.Logger) *RedisQueue {
	return &RedisQueue{client: client, log: log.With().Str("component", "queue").Logger()}
}

func (q *RedisQueue) Push(ctx context.Context, msg model.QueueMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("queue: marshal message: %w", err)
	}
	if err := q.client.LPush(ctx, listKey, payload).Err(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	return nil
}

func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (*model.QueueMessage, error) {
	result, err := q.client.BRPop(ctx, timeout, listKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	// BRPop returns [key, value].
	if len(result) != 2 {
		return nil, fmt.Errorf("%w: unexpected BRPOP reply shape", apperr.ErrMalformed)
	}

	var msg model.QueueMessage
	if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
		q.log.Warn().Err(err).Msg("discarding undecodable queue entry")
		return nil, apperr.ErrMalformed
	}
	return &msg, nil
}

// InMemoryQueue is a Queue fake for unit tests, matching spec.md §9's
// requirement that Queue be injectable.
type InMemoryQueue struct {
	mu       sync.Mutex
	notEmpty chan struct{}
	items    []model.QueueMessage
}

// NewInMemoryQueue builds an empty in-memory queue.
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{notEmpty: make(chan struct{}, 1)}
}

func (q *InMemoryQueue) Push(_ context.Context, msg model.QueueMessage) error {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()
	select {
	case q.notEmpty <- struct{}{}:
	default:
	}
	return nil
}

func (q *InMemoryQueue) Pop(ctx context.Context, timeout time.Duration) (*model.QueueMessage, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			msg := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return &msg, nil
		}
		q.mu.Unlock()

		select {
		case <-q.notEmpty:
			continue
		case <-deadline.C:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len reports the current number of queued messages (test helper).
func (q *InMemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
