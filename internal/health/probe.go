// Package health implements the processor health probe from spec.md §4.3
// (C3): one long-lived loop, a 5s cadence per processor that is a contract
// of the external processors' rate limit, and a strict classification of
// any non-2xx/unparseable/timeout outcome as Failing. Grounded on
// original_source/src/workers/health_check_worker.rs, adapted from a
// Redis-hash side effect into direct calls on the Router's UpdateHealth and
// MarkFailing single-writer paths (spec.md §9).
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kaylee-dev/payment-intermediary/internal/model"
)

const (
	probeInterval = 5 * time.Second
	probeTimeout  = 2 * time.Second
)

// Updater is the narrow collaborator the probe mutates — satisfied by
// *router.Router. Kept as an interface so the probe can be tested without
// constructing a full Router.
type Updater interface {
	UpdateHealth(group model.Group, status model.HealthState, minResponseTimeMS int64)
	MarkFailing(group model.Group)
}

// target is one processor the probe samples.
type target struct {
	group model.Group
	url   string
}

// Probe is the C3 health sampler. One instance runs for the lifetime of
// the process.
type Probe struct {
	targets []target
	updater Updater
	client  *http.Client
	log     zerolog.Logger
}

// New builds a Probe for the default and fallback processor URLs.
func New(defaultURL, fallbackURL string, updater Updater, log zerolog.Logger) *Probe {
	return &Probe{
		targets: []target{
			{group: model.GroupDefault, url: defaultURL},
			{group: model.GroupFallback, url: fallbackURL},
		},
		updater: updater,
		client:  &http.Client{Timeout: probeTimeout},
		log:     log.With().Str("component", "health-probe").Logger(),
	}
}

// Run loops until ctx is canceled, sampling every target once per cycle
// and sleeping probeInterval between cycles. Store/network faults never
// stop the loop — each target's failure is isolated to that target.
func (p *Probe) Run(ctx context.Context) {
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()

	p.sampleAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sampleAll(ctx)
		}
	}
}

func (p *Probe) sampleAll(ctx context.Context) {
	for _, t := range p.targets {
		p.sampleOne(ctx, t)
	}
}

func (p *Probe) sampleOne(ctx context.Context, t target) {
	reqCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, t.url+"/payments/service-health", nil)
	if err != nil {
		p.log.Error().Err(err).Str("processor", string(t.group)).Msg("failed to build health request")
		p.updater.MarkFailing(t.group)
		return
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Warn().Err(err).Str("processor", string(t.group)).Msg("health probe network error")
		p.updater.MarkFailing(t.group)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.log.Warn().Int("status", resp.StatusCode).Str("processor", string(t.group)).Msg("health probe non-2xx response")
		p.updater.MarkFailing(t.group)
		return
	}

	var body model.HealthCheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		p.log.Warn().Err(err).Str("processor", string(t.group)).Msg("health probe unparseable body")
		p.updater.MarkFailing(t.group)
		return
	}

	// spec.md §4.3 step 2: the probe only distinguishes Healthy/Failing;
	// Slow (part of the ProcessorHealth enum in spec.md §3) is the
	// Router's own latency judgment at selection time (spec.md §4.4), not
	// something the probe assigns.
	status := model.StateHealthy
	if body.Failing {
		status = model.StateFailing
	}
	p.updater.UpdateHealth(t.group, status, body.MinResponseTime)
}
