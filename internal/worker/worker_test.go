package worker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaylee-dev/payment-intermediary/internal/ledger"
	"github.com/kaylee-dev/payment-intermediary/internal/model"
	"github.com/kaylee-dev/payment-intermediary/internal/processor"
	"github.com/kaylee-dev/payment-intermediary/internal/queue"
	"github.com/kaylee-dev/payment-intermediary/internal/router"
)

func TestPool_Handle_DuplicateIsDropped(t *testing.T) {
	q := queue.NewInMemoryQueue()
	l := ledger.NewInMemoryLedger()
	rt := router.New("http://default", "http://fallback")
	proc := processor.New(l, zerolog.Nop())
	pool := New(1, q, l, rt, proc, zerolog.Nop())

	requestedAt := time.Now().UTC()
	payment := model.Payment{CorrelationID: uuid.New(), Amount: 1, ProcessedBy: model.GroupDefault, RequestedAt: &requestedAt}
	require.NoError(t, l.Save(context.Background(), payment))

	msg := model.NewQueueMessage(payment)
	pool.handle(context.Background(), zerolog.Nop(), msg)

	assert.Equal(t, 0, q.Len())
}

func TestPool_Handle_RequeuesWhenNoProcessorEligible(t *testing.T) {
	q := queue.NewInMemoryQueue()
	l := ledger.NewInMemoryLedger()
	rt := router.New("http://default", "http://fallback")
	// Neither processor has been marked healthy: Select returns false.
	proc := processor.New(l, zerolog.Nop())
	pool := New(1, q, l, rt, proc, zerolog.Nop())

	msg := model.NewQueueMessage(model.Payment{CorrelationID: uuid.New(), Amount: 1})
	pool.handle(context.Background(), zerolog.Nop(), msg)

	assert.Equal(t, 1, q.Len())
}

func TestPool_Handle_SuccessfulAttemptIsNotRequeued(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	q := queue.NewInMemoryQueue()
	l := ledger.NewInMemoryLedger()
	rt := router.New(server.URL, "http://fallback")
	rt.UpdateHealth(model.GroupDefault, model.StateHealthy, 10)
	proc := processor.New(l, zerolog.Nop())
	pool := New(1, q, l, rt, proc, zerolog.Nop())

	payment := model.Payment{CorrelationID: uuid.New(), Amount: 1}
	msg := model.NewQueueMessage(payment)
	pool.handle(context.Background(), zerolog.Nop(), msg)

	assert.Equal(t, 0, q.Len())
	processed, err := l.IsProcessed(context.Background(), payment.CorrelationID)
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestPool_Run_DrainsQueueUntilCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	q := queue.NewInMemoryQueue()
	l := ledger.NewInMemoryLedger()
	rt := router.New(server.URL, "http://fallback")
	rt.UpdateHealth(model.GroupDefault, model.StateHealthy, 10)
	proc := processor.New(l, zerolog.Nop())
	pool := New(2, q, l, rt, proc, zerolog.Nop())

	payment := model.Payment{CorrelationID: uuid.New(), Amount: 42}
	require.NoError(t, q.Push(context.Background(), model.NewQueueMessage(payment)))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	pool.Run(ctx)

	processed, err := l.IsProcessed(context.Background(), payment.CorrelationID)
	require.NoError(t, err)
	assert.True(t, processed)
}
