// Package summary implements the range aggregation from spec.md §4.8 (C8),
// delegating to the Ledger per group. Grounded on
// original_source/src/use_cases/get_payment_summary.rs's ±30-day default
// window and inclusive bounds.
package summary

import (
	"context"
	"time"

	"github.com/kaylee-dev/payment-intermediary/internal/ledger"
	"github.com/kaylee-dev/payment-intermediary/internal/model"
)

// defaultWindow is spec.md §4.8's default lookback/lookahead when from/to
// are omitted.
const defaultWindow = 30 * 24 * time.Hour

// Service computes the /payments-summary response.
type Service struct {
	ledger ledger.Ledger
}

// New builds a Service over the given Ledger.
func New(l ledger.Ledger) *Service {
	return &Service{ledger: l}
}

// Summarize returns the totals for both groups over [from, to], inclusive.
// A nil from/to defaults to (now-30d)/(now+30d) respectively.
func (s *Service) Summarize(ctx context.Context, from, to *time.Time) (model.Summary, error) {
	now := time.Now().UTC()
	resolvedFrom := now.Add(-defaultWindow)
	if from != nil {
		resolvedFrom = *from
	}
	resolvedTo := now.Add(defaultWindow)
	if to != nil {
		resolvedTo = *to
	}

	defaultCount, defaultAmount, err := s.ledger.RangeSummary(ctx, model.GroupDefault, resolvedFrom, resolvedTo)
	if err != nil {
		return model.Summary{}, err
	}
	fallbackCount, fallbackAmount, err := s.ledger.RangeSummary(ctx, model.GroupFallback, resolvedFrom, resolvedTo)
	if err != nil {
		return model.Summary{}, err
	}

	return model.Summary{
		Default:  model.SummaryBucket{TotalRequests: defaultCount, TotalAmount: defaultAmount},
		Fallback: model.SummaryBucket{TotalRequests: fallbackCount, TotalAmount: fallbackAmount},
	}, nil
}
