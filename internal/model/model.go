// Package model holds the wire and domain types shared across the
// intermediary, generalized from the teacher's providers.PaymentRequest/
// PaymentResponse pair into the richer lifecycle entity spec.md §3
// describes.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Group identifies which processor succeeded for a payment.
type Group string

const (
	GroupDefault  Group = "default"
	GroupFallback Group = "fallback"
)

// Payment is the lifecycle entity from spec.md §3. RequestedAt is stamped
// by this system when it first dispatches to a processor, not by the
// client; ProcessedAt/ProcessedBy are set once a processor accepts it.
type Payment struct {
	CorrelationID uuid.UUID  `json:"correlationId"`
	Amount        float64    `json:"amount"`
	RequestedAt   *time.Time `json:"requestedAt,omitempty"`
	ProcessedAt   *time.Time `json:"processedAt,omitempty"`
	ProcessedBy   Group      `json:"processedBy,omitempty"`
}

// QueueMessage is the envelope placed on the queue. EnvelopeID is fresh on
// every push, including re-enqueues; the ledger keys on Payment's
// CorrelationID instead, so re-enqueues stay idempotent (spec.md §3).
type QueueMessage struct {
	EnvelopeID uuid.UUID `json:"envelopeId"`
	Payment    Payment   `json:"payment"`
}

// NewQueueMessage wraps a payment in a fresh envelope.
func NewQueueMessage(p Payment) QueueMessage {
	return QueueMessage{EnvelopeID: uuid.New(), Payment: p}
}

// HealthState is the three-way health status from spec.md §3 /
// original_source/src/domain/health_status.rs.
type HealthState string

const (
	StateHealthy HealthState = "healthy"
	StateFailing HealthState = "failing"
	StateSlow    HealthState = "slow"
)

// ProcessorHealth is mutated only by the health probe (C3) and read by the
// router (C4).
type ProcessorHealth struct {
	Name             Group
	URL              string
	Status           HealthState
	MinResponseTimeMS int64
}

// IsHealthy reports whether this snapshot permits routing to the
// processor, irrespective of latency (spec.md §4.4 checks latency
// separately).
func (h ProcessorHealth) IsHealthy() bool {
	return h.Status == StateHealthy
}

// DisplayStatus folds the latency threshold into the reported status for
// diagnostics: a probe-reported Healthy processor running at or above the
// router's 100ms threshold displays as Slow, filling in the third member
// of spec.md §3's {Healthy, Failing, Slow} enum that the probe itself
// never assigns (spec.md §4.3 step 2 only ever sets Healthy or Failing).
func (h ProcessorHealth) DisplayStatus() HealthState {
	if h.Status == StateHealthy && h.MinResponseTimeMS >= 100 {
		return StateSlow
	}
	return h.Status
}

// ProcessorRequest is the egress body posted to a processor (spec.md §6).
type ProcessorRequest struct {
	CorrelationID uuid.UUID `json:"correlationId"`
	Amount        float64   `json:"amount"`
	RequestedAt   string    `json:"requestedAt"`
}

// HealthCheckResponse is the egress health-probe response body.
type HealthCheckResponse struct {
	Failing         bool  `json:"failing"`
	MinResponseTime int64 `json:"minResponseTime"`
}

// SummaryBucket is one group's totals in the /payments-summary response.
type SummaryBucket struct {
	TotalRequests int64   `json:"totalRequests"`
	TotalAmount   float64 `json:"totalAmount"`
}

// Summary is the full /payments-summary response body.
type Summary struct {
	Default  SummaryBucket `json:"default"`
	Fallback SummaryBucket `json:"fallback"`
}
