package summary

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaylee-dev/payment-intermediary/internal/ledger"
	"github.com/kaylee-dev/payment-intermediary/internal/model"
)

func TestSummarize_AggregatesBothGroups(t *testing.T) {
	l := ledger.NewInMemoryLedger()
	now := time.Now().UTC()

	save := func(amount float64, group model.Group) {
		requestedAt := now
		processedAt := now
		require.NoError(t, l.Save(context.Background(), model.Payment{
			CorrelationID: uuid.New(),
			Amount:        amount,
			RequestedAt:   &requestedAt,
			ProcessedAt:   &processedAt,
			ProcessedBy:   group,
		}))
	}
	save(10.00, model.GroupDefault)
	save(20.00, model.GroupDefault)
	save(5.00, model.GroupFallback)

	svc := New(l)
	result, err := svc.Summarize(context.Background(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.Default.TotalRequests)
	assert.InDelta(t, 30.00, result.Default.TotalAmount, 0.005)
	assert.Equal(t, int64(1), result.Fallback.TotalRequests)
	assert.InDelta(t, 5.00, result.Fallback.TotalAmount, 0.005)
}

func TestSummarize_ExcludesPaymentsOutsideExplicitRange(t *testing.T) {
	l := ledger.NewInMemoryLedger()
	now := time.Now().UTC()
	old := now.Add(-48 * time.Hour)

	mk := func(amount float64, at time.Time) model.Payment {
		return model.Payment{CorrelationID: uuid.New(), Amount: amount, RequestedAt: &at, ProcessedAt: &at, ProcessedBy: model.GroupDefault}
	}
	require.NoError(t, l.Save(context.Background(), mk(10.00, now)))
	require.NoError(t, l.Save(context.Background(), mk(99.00, old)))

	from := now.Add(-1 * time.Hour)
	to := now.Add(1 * time.Hour)
	svc := New(l)
	result, err := svc.Summarize(context.Background(), &from, &to)
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.Default.TotalRequests)
	assert.InDelta(t, 10.00, result.Default.TotalAmount, 0.005)
}
