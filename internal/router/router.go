// Package router implements the pure processor-selection function from
// spec.md §4.4 (C4) and owns the in-memory health + breaker state spec.md
// §3/§9 assigns to it exclusively: a single writer (the health probe) and
// many concurrent readers (the worker pool), each processor's
// (status, min_response_time) read as one atomic snapshot so a torn read
// (new url + old status) cannot happen.
package router

import (
	"sync/atomic"

	"github.com/kaylee-dev/payment-intermediary/internal/breaker"
	"github.com/kaylee-dev/payment-intermediary/internal/model"
)

// latencyThresholdMS is the external processors' slow-mode signal, per
// spec.md §4.4.
const latencyThresholdMS = 100

// processorSlot pairs one processor's atomically-swapped health snapshot
// with its (separately synchronized) breaker.
type processorSlot struct {
	group   model.Group
	url     string
	health  atomic.Pointer[model.ProcessorHealth]
	breaker *breaker.Breaker
}

// Choice is what Select returns: enough for the caller to run
// ProcessPayment through the chosen processor's breaker.
type Choice struct {
	Group   model.Group
	URL     string
	Breaker *breaker.Breaker
}

// Router is the single owner of health + breaker state. It is constructed
// once at startup and its pointer shared (never copied) between the probe
// and every worker, per spec.md §9's "Re-architect as three collaborators
// held by a supervisor" note.
type Router struct {
	defaultSlot  *processorSlot
	fallbackSlot *processorSlot
}

// New builds a Router for the given processor URLs, with a fresh breaker
// per processor from breaker.DefaultSettings.
func New(defaultURL, fallbackURL string) *Router {
	r := &Router{
		defaultSlot: &processorSlot{
			group:   model.GroupDefault,
			url:     defaultURL,
			breaker: breaker.New(breaker.DefaultSettings(string(model.GroupDefault))),
		},
		fallbackSlot: &processorSlot{
			group:   model.GroupFallback,
			url:     fallbackURL,
			breaker: breaker.New(breaker.DefaultSettings(string(model.GroupFallback))),
		},
	}
	r.defaultSlot.health.Store(&model.ProcessorHealth{Name: model.GroupDefault, URL: defaultURL, Status: model.StateFailing})
	r.fallbackSlot.health.Store(&model.ProcessorHealth{Name: model.GroupFallback, URL: fallbackURL, Status: model.StateFailing})
	return r
}

// UpdateHealth is the health probe's full-snapshot write path (C3 -> C4 in
// spec.md §2's data flow); MarkFailing is its other, status-only write
// path. The new snapshot replaces the old one atomically so readers never
// observe a torn combination of fields.
func (r *Router) UpdateHealth(group model.Group, status model.HealthState, minResponseTimeMS int64) {
	slot := r.slotFor(group)
	if slot == nil {
		return
	}
	slot.health.Store(&model.ProcessorHealth{
		Name:              group,
		URL:               slot.url,
		Status:            status,
		MinResponseTimeMS: minResponseTimeMS,
	})
}

// MarkFailing is the probe's write path for spec.md §4.3 step 3's "any
// other outcome" branch: only Status flips to Failing, the last-observed
// MinResponseTimeMS is carried forward untouched rather than zeroed.
func (r *Router) MarkFailing(group model.Group) {
	slot := r.slotFor(group)
	if slot == nil {
		return
	}
	prev := slot.health.Load()
	minResponseTimeMS := int64(0)
	if prev != nil {
		minResponseTimeMS = prev.MinResponseTimeMS
	}
	slot.health.Store(&model.ProcessorHealth{
		Name:              group,
		URL:               slot.url,
		Status:            model.StateFailing,
		MinResponseTimeMS: minResponseTimeMS,
	})
}

func (r *Router) slotFor(group model.Group) *processorSlot {
	switch group {
	case model.GroupDefault:
		return r.defaultSlot
	case model.GroupFallback:
		return r.fallbackSlot
	default:
		return nil
	}
}

// eligible reports whether a processor's current snapshot permits routing
// to it, per spec.md §4.4's three conditions.
func eligible(slot *processorSlot) bool {
	health := slot.health.Load()
	if health == nil || !health.IsHealthy() {
		return false
	}
	if health.MinResponseTimeMS >= latencyThresholdMS {
		return false
	}
	return !slot.breaker.IsOpen()
}

// Select implements spec.md §4.4's three-step preference: default first
// (cheaper), then fallback, then none. Safe for concurrent calls from
// multiple workers.
func (r *Router) Select() (Choice, bool) {
	if eligible(r.defaultSlot) {
		return Choice{Group: model.GroupDefault, URL: r.defaultSlot.url, Breaker: r.defaultSlot.breaker}, true
	}
	if eligible(r.fallbackSlot) {
		return Choice{Group: model.GroupFallback, URL: r.fallbackSlot.url, Breaker: r.fallbackSlot.breaker}, true
	}
	return Choice{}, false
}

// Health returns a snapshot of both processors' current health, for
// diagnostics.
func (r *Router) Health() (model.ProcessorHealth, model.ProcessorHealth) {
	return *r.defaultSlot.health.Load(), *r.fallbackSlot.health.Load()
}

// BreakerState exposes a processor's breaker state as a string, for
// diagnostics and tests.
func (r *Router) BreakerState(group model.Group) string {
	slot := r.slotFor(group)
	if slot == nil {
		return ""
	}
	return slot.breaker.State()
}
