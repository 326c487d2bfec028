// Package worker implements the worker pool from spec.md §4.7 (C7): N
// identical goroutines, each looping pop -> dedupe -> route -> attempt ->
// re-enqueue. Grounded on
// original_source/src/workers/payment_processor_worker.rs's loop shape,
// generalized from one hardcoded task to N, since the teacher has no pool
// of its own and no pool library appears anywhere in the pack.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kaylee-dev/payment-intermediary/internal/apperr"
	"github.com/kaylee-dev/payment-intermediary/internal/ledger"
	"github.com/kaylee-dev/payment-intermediary/internal/model"
	"github.com/kaylee-dev/payment-intermediary/internal/processor"
	"github.com/kaylee-dev/payment-intermediary/internal/queue"
	"github.com/kaylee-dev/payment-intermediary/internal/router"
)

// popTimeout bounds a single Queue.Pop call, per spec.md §4.7 step 1.
const popTimeout = 1 * time.Second

// storeBackoff is how long a worker waits after a transient store error
// before retrying its pop, per spec.md §7.
const storeBackoff = 1 * time.Second

// Pool runs N worker goroutines sharing one Queue, Ledger, Router, and
// Processor.
type Pool struct {
	size      int
	queue     queue.Queue
	ledger    ledger.Ledger
	router    *router.Router
	processor *processor.Processor
	log       zerolog.Logger
}

// New builds a Pool of size workers (size must be >= 1 per spec.md §4.7).
func New(size int, q queue.Queue, l ledger.Ledger, r *router.Router, p *processor.Processor, log zerolog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		size:      size,
		queue:     q,
		ledger:    l,
		router:    r,
		processor: p,
		log:       log.With().Str("component", "worker-pool").Logger(),
	}
}

// Run starts the pool and blocks until ctx is canceled and every worker
// has exited.
func (pool *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < pool.size; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			pool.loop(ctx, id)
		}(i)
	}
	wg.Wait()
}

func (pool *Pool) loop(ctx context.Context, id int) {
	log := pool.log.With().Int("worker_id", id).Logger()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := pool.queue.Pop(ctx, popTimeout)
		if err != nil {
			if errors.Is(err, apperr.ErrMalformed) {
				// Poisoned message already discarded by the queue; keep
				// looping (spec.md §4.7's final line).
				continue
			}
			log.Warn().Err(err).Msg("queue pop failed, backing off")
			sleep(ctx, storeBackoff)
			continue
		}
		if msg == nil {
			continue
		}

		pool.handle(ctx, log, *msg)
	}
}

func (pool *Pool) handle(ctx context.Context, log zerolog.Logger, msg model.QueueMessage) {
	processed, err := pool.ledger.IsProcessed(ctx, msg.Payment.CorrelationID)
	if err != nil {
		log.Warn().Err(err).Msg("is_processed check failed, re-enqueueing")
		pool.requeue(ctx, log, msg)
		return
	}
	if processed {
		log.Debug().Err(apperr.ErrDuplicate).Str("correlation_id", msg.Payment.CorrelationID.String()).Msg("dropping duplicate payment")
		return
	}

	choice, ok := pool.router.Select()
	if !ok {
		defaultHealth, fallbackHealth := pool.router.Health()
		log.Warn().
			Str("default_status", string(defaultHealth.DisplayStatus())).
			Str("default_breaker", pool.router.BreakerState(model.GroupDefault)).
			Str("fallback_status", string(fallbackHealth.DisplayStatus())).
			Str("fallback_breaker", pool.router.BreakerState(model.GroupFallback)).
			Msg("no processor eligible, re-enqueueing")
		pool.requeue(ctx, log, msg)
		return
	}

	outcome, err := pool.processor.Attempt(ctx, msg.Payment, choice)
	switch outcome {
	case processor.Processed, processor.Rejected:
		return
	case processor.TransientFailure, processor.Skipped:
		if err != nil {
			log.Debug().Err(err).Str("processor", string(choice.Group)).Msg("attempt did not complete, re-enqueueing")
		}
		pool.requeue(ctx, log, msg)
	}
}

// requeue places a fresh envelope (spec.md §3: envelope ids are new per
// enqueue) at the tail, for an unbounded retry per spec.md §4.7's design
// note.
func (pool *Pool) requeue(ctx context.Context, log zerolog.Logger, msg model.QueueMessage) {
	fresh := model.NewQueueMessage(msg.Payment)
	if err := pool.queue.Push(ctx, fresh); err != nil {
		log.Error().Err(err).Str("correlation_id", msg.Payment.CorrelationID.String()).Msg("failed to re-enqueue payment")
	}
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
