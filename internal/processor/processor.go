// Package processor implements the one-shot payment attempt from spec.md
// §4.6 (C6): an egress HTTP POST through the chosen processor's circuit
// breaker, followed by a ledger save on success. Grounded on the teacher's
// providers.PaymentProvider interface (adapted from simulated providers to
// a real HTTP client) and original_source/src/use_cases/process_payment.rs
// for the breaker-wrapped call / 4xx-vs-5xx split / save-only-on-success
// sequencing.
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kaylee-dev/payment-intermediary/internal/apperr"
	"github.com/kaylee-dev/payment-intermediary/internal/breaker"
	"github.com/kaylee-dev/payment-intermediary/internal/ledger"
	"github.com/kaylee-dev/payment-intermediary/internal/model"
	"github.com/kaylee-dev/payment-intermediary/internal/router"
)

// egressTimeout bounds the outbound HTTP call so a slow processor cannot
// block a worker indefinitely, per spec.md §4.6.
const egressTimeout = 2 * time.Second

// Outcome is the one-shot attempt's result, per spec.md §4.6 steps 3-6.
type Outcome int

const (
	Processed Outcome = iota
	Rejected
	TransientFailure
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Processed:
		return "processed"
	case Rejected:
		return "rejected"
	case TransientFailure:
		return "transient_failure"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Processor runs attempts against whichever processor the Router chooses.
type Processor struct {
	client *http.Client
	ledger ledger.Ledger
	log    zerolog.Logger
}

// New builds a Processor sharing one HTTP client across every attempt, the
// way the teacher's providers kept no per-call state.
func New(ledger ledger.Ledger, log zerolog.Logger) *Processor {
	return &Processor{
		client: &http.Client{Timeout: egressTimeout},
		ledger: ledger,
		log:    log.With().Str("component", "processor").Logger(),
	}
}

// Attempt runs spec.md §4.6's procedure: stamp requested_at, call the
// chosen processor through its breaker, save to the ledger on success.
func (p *Processor) Attempt(ctx context.Context, payment model.Payment, choice router.Choice) (Outcome, error) {
	now := time.Now().UTC()
	payment.RequestedAt = &now

	egressCtx, cancel := context.WithTimeout(ctx, egressTimeout)
	defer cancel()

	var httpStatus int
	breakerOutcome, err := choice.Breaker.Call(ctx, func() (breaker.Outcome, error) {
		status, postErr := p.post(egressCtx, choice.URL, payment)
		httpStatus = status
		if postErr != nil {
			return breaker.OutcomeTransient, postErr
		}
		switch {
		case status >= 200 && status < 300:
			return breaker.OutcomeSuccess, nil
		case status >= 400 && status < 500:
			return breaker.OutcomeReject, nil
		default:
			return breaker.OutcomeTransient, fmt.Errorf("processor returned status %d", status)
		}
	})

	if err == apperr.ErrBreakerOpen {
		return Skipped, nil
	}
	if err != nil {
		return TransientFailure, err
	}
	if breakerOutcome == breaker.OutcomeReject {
		p.log.Warn().Str("correlation_id", payment.CorrelationID.String()).Int("status", httpStatus).Msg("processor rejected payment")
		return Rejected, nil
	}

	processedAt := time.Now().UTC()
	payment.ProcessedAt = &processedAt
	payment.ProcessedBy = choice.Group

	if err := p.ledger.Save(ctx, payment); err != nil {
		p.log.Error().Err(err).Str("correlation_id", payment.CorrelationID.String()).Msg("failed to save processed payment")
		return TransientFailure, err
	}
	return Processed, nil
}

func (p *Processor) post(ctx context.Context, url string, payment model.Payment) (int, error) {
	body := model.ProcessorRequest{
		CorrelationID: payment.CorrelationID,
		Amount:        payment.Amount,
		RequestedAt:   payment.RequestedAt.Format(time.RFC3339),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("processor: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/payments", bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("processor: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", apperr.ErrProcessorTransient, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	return resp.StatusCode, nil
}
