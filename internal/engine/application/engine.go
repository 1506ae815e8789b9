// Package application coordinates the refresh cycle: pulling events from
// all sources, swapping them into the aggregator, and running alert checks.
package application

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	alerts "risk-radar/internal/alerts/application"
	"risk-radar/internal/observability/metrics"
	"risk-radar/internal/radar/aggregation"
	radar "risk-radar/internal/radar/domain"
	"risk-radar/internal/sources"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Engine drives the event refresh and alert check cycle.
type Engine struct {
	sources    []sources.Source
	newsSource sources.Source
	aggregator *aggregation.Aggregator
	manager    *alerts.Manager
	logger     *log.Logger
	clock      Clock

	// refreshMu serializes refreshes. The news merge reads the current
	// event set before writing it back, so a concurrent full refresh
	// must not interleave between the two.
	refreshMu sync.Mutex
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the engine clock.
func WithClock(clock Clock) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithNewsSource marks one source as the fast-poll news feed. It must
// also be present in the source list.
func WithNewsSource(src sources.Source) Option {
	return func(e *Engine) {
		e.newsSource = src
	}
}

// NewEngine builds the refresh engine.
func NewEngine(srcs []sources.Source, aggregator *aggregation.Aggregator, manager *alerts.Manager, logger *log.Logger, opts ...Option) (*Engine, error) {
	if aggregator == nil {
		return nil, fmt.Errorf("engine: nil aggregator")
	}
	if manager == nil {
		return nil, fmt.Errorf("engine: nil alert manager")
	}
	if logger == nil {
		return nil, fmt.Errorf("engine: nil logger")
	}
	e := &Engine{
		sources:    srcs,
		aggregator: aggregator,
		manager:    manager,
		logger:     logger,
		clock:      systemClock{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// RefreshAll pulls every source and swaps the full event set into the
// aggregator. A failed source contributes zero events and is logged; the
// refresh itself only fails if the context is cancelled.
func (e *Engine) RefreshAll(ctx context.Context) error {
	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()

	var all []radar.Event
	for _, src := range e.sources {
		events, err := e.fetchSource(ctx, src)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.Printf("engine: source %s failed: %v", src.Name(), err)
			continue
		}
		all = append(all, events...)
	}
	e.aggregator.SetEvents(all)
	metrics.ObserveRefresh(nil, len(all))
	return nil
}

// RefreshNews pulls only the news source and merges unseen events into
// the current set. Scheduled calendar events keep their existing ids.
func (e *Engine) RefreshNews(ctx context.Context) error {
	if e.newsSource == nil {
		return nil
	}
	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()

	fresh, err := e.fetchSource(ctx, e.newsSource)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.logger.Printf("engine: source %s failed: %v", e.newsSource.Name(), err)
		return nil
	}

	current := e.aggregator.Events()
	known := make(map[string]bool, len(current))
	for _, event := range current {
		known[event.ID] = true
	}
	merged := current
	for _, event := range fresh {
		if !known[event.ID] {
			merged = append(merged, event)
		}
	}
	e.aggregator.SetEvents(merged)
	metrics.ObserveRefresh(nil, len(merged))
	return nil
}

// RunChecks evaluates alert conditions against the current event set.
func (e *Engine) RunChecks(ctx context.Context) ([]radar.Alert, error) {
	start := e.clock.Now()
	alerts, err := e.manager.CheckThresholds(ctx, start)
	metrics.ObserveCheck(e.clock.Now().Sub(start))
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

// HasImminentEvent reports whether any tracked event is scheduled within
// the proximity threshold of now.
func (e *Engine) HasImminentEvent(threshold time.Duration) bool {
	now := e.clock.Now()
	for _, event := range e.aggregator.Events() {
		until := event.ScheduledTime.Sub(now)
		if until >= 0 && until <= threshold {
			return true
		}
	}
	return false
}

func (e *Engine) fetchSource(ctx context.Context, src sources.Source) ([]radar.Event, error) {
	start := e.clock.Now()
	events, err := src.FetchEvents(ctx)
	metrics.ObserveSourceFetch(src.Name(), err, e.clock.Now().Sub(start))
	if err != nil {
		return nil, err
	}
	valid := events[:0]
	for _, event := range events {
		if verr := event.Validate(); verr != nil {
			e.logger.Printf("engine: source %s: dropping event %s: %v", src.Name(), event.ID, verr)
			continue
		}
		valid = append(valid, event)
	}
	return valid, nil
}
