package queue

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaylee-dev/payment-intermediary/internal/model"
)

func TestInMemoryQueue_PushPopFIFO(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	first := model.NewQueueMessage(model.Payment{CorrelationID: uuid.New(), Amount: 1})
	second := model.NewQueueMessage(model.Payment{CorrelationID: uuid.New(), Amount: 2})

	require.NoError(t, q.Push(ctx, first))
	require.NoError(t, q.Push(ctx, second))

	got, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.Payment.CorrelationID, got.Payment.CorrelationID)

	got, err = q.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.Payment.CorrelationID, got.Payment.CorrelationID)
}

func TestInMemoryQueue_PopTimesOutWhenEmpty(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	start := time.Now()
	got, err := q.Pop(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestInMemoryQueue_PopUnblocksOnPush(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()
	msg := model.NewQueueMessage(model.Payment{CorrelationID: uuid.New(), Amount: 1})

	done := make(chan *model.QueueMessage, 1)
	go func() {
		got, _ := q.Pop(ctx, time.Second)
		done <- got
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, q.Push(ctx, msg))

	select {
	case got := <-done:
		require.NotNil(t, got)
		assert.Equal(t, msg.Payment.CorrelationID, got.Payment.CorrelationID)
	case <-time.After(time.Second):
		t.Fatal("pop did not unblock after push")
	}
}
