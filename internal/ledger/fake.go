package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kaylee-dev/payment-intermediary/internal/apperr"
	"github.com/kaylee-dev/payment-intermediary/internal/model"
)

// InMemoryLedger is a Ledger fake for unit tests, per spec.md §9.
type InMemoryLedger struct {
	mu      sync.Mutex
	entries map[model.Group]map[uuid.UUID]model.Payment
	index   map[uuid.UUID]int64 // correlationID -> score (requested_at nanos)
}

// NewInMemoryLedger builds an empty in-memory ledger.
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{
		entries: map[model.Group]map[uuid.UUID]model.Payment{
			model.GroupDefault:  {},
			model.GroupFallback: {},
		},
		index: map[uuid.UUID]int64{},
	}
}

func (l *InMemoryLedger) Save(_ context.Context, payment model.Payment) error {
	if payment.RequestedAt == nil {
		return fmt.Errorf("ledger: save requires RequestedAt to be set")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.index[payment.CorrelationID]; exists {
		return apperr.ErrAlreadyPresent
	}
	if l.entries[payment.ProcessedBy] == nil {
		l.entries[payment.ProcessedBy] = map[uuid.UUID]model.Payment{}
	}
	l.entries[payment.ProcessedBy][payment.CorrelationID] = payment
	l.index[payment.CorrelationID] = payment.RequestedAt.UnixNano()
	return nil
}

func (l *InMemoryLedger) IsProcessed(_ context.Context, correlationID uuid.UUID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.index[correlationID]
	return ok, nil
}

// get loads a single per-payment record, scoped to group: a payment
// processed by the other group is invisible here even though its id is
// present in the time index.
func (l *InMemoryLedger) get(_ context.Context, group model.Group, correlationID uuid.UUID) (model.Payment, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	payment, ok := l.entries[group][correlationID]
	return payment, ok, nil
}

func (l *InMemoryLedger) RangeSummary(ctx context.Context, group model.Group, from, to time.Time) (int64, float64, error) {
	l.mu.Lock()
	fromNS, toNS := from.UnixNano(), to.UnixNano()
	ids := make([]uuid.UUID, 0, len(l.index))
	for id, score := range l.index {
		if score < fromNS || score > toNS {
			continue
		}
		ids = append(ids, id)
	}
	l.mu.Unlock()

	var count int64
	var total float64
	for _, id := range ids {
		payment, ok, _ := l.get(ctx, group, id)
		if !ok {
			continue
		}
		count++
		total += payment.Amount
	}
	return count, total, nil
}

func (l *InMemoryLedger) Clear(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = map[model.Group]map[uuid.UUID]model.Payment{
		model.GroupDefault:  {},
		model.GroupFallback: {},
	}
	l.index = map[uuid.UUID]int64{}
	return nil
}
