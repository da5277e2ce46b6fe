// Package search implements the debounced catalog search
// behind the search modal.
package search

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/niksmo/storefront/internal/core/catalog"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/debounce"
	"github.com/niksmo/storefront/pkg/observer"
)

const DefaultDelay = 300 * time.Millisecond

// A Status tells the presentation layer what to render.
type Status string

const (
	StatusNoQuery   Status = "no-query"
	StatusResults   Status = "results"
	StatusNoResults Status = "no-results"
)

// A Result pairs the raw query with the products found
// for the last settled query.
type Result struct {
	Query    string
	Settled  string
	Products []domain.Product
}

func (r Result) Status() Status {
	switch {
	case r.Query == "":
		return StatusNoQuery
	case len(r.Products) == 0:
		return StatusNoResults
	}
	return StatusResults
}

// A ProductLister returns the unfiltered catalog.
type ProductLister interface {
	Products() []domain.Product
}

// Evaluate returns the products matching the query in catalog order.
// An empty query finds nothing.
func Evaluate(products []domain.Product, query string) []domain.Product {
	if len(query) == 0 {
		return nil
	}
	var found []domain.Product
	for _, p := range products {
		if catalog.Matches(p, query) {
			found = append(found, p)
		}
	}
	return found
}

// An Engine evaluates the query once it stops changing for the delay.
//
// Evaluations run one at a time and only for the last query of a burst.
type Engine struct {
	source    ProductLister
	debouncer *debounce.Debouncer

	evalMu sync.Mutex

	mu     sync.RWMutex
	result Result

	subs observer.Subscribers[Result]
}

type Opt func(*engineOpts)

type engineOpts struct {
	delay time.Duration
}

func DelayOpt(d time.Duration) Opt {
	return func(o *engineOpts) {
		if d > 0 {
			o.delay = d
		}
	}
}

func NewEngine(source ProductLister, opts ...Opt) *Engine {
	options := engineOpts{delay: DefaultDelay}
	for _, opt := range opts {
		opt(&options)
	}
	return &Engine{
		source:    source,
		debouncer: debounce.New(options.delay),
	}
}

// SetQuery records the raw query and restarts the quiet period.
func (e *Engine) SetQuery(query string) {
	e.mu.Lock()
	e.result.Query = query
	e.mu.Unlock()

	e.debouncer.Do(func() { e.evaluate(query) })
}

// Reset clears the query and discards the pending evaluation.
func (e *Engine) Reset() {
	e.debouncer.Cancel()

	e.mu.Lock()
	e.result = Result{}
	e.mu.Unlock()

	e.subs.Notify(Result{})
}

func (e *Engine) Result() Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r := e.result
	r.Products = slices.Clone(r.Products)
	return r
}

// Pending reports whether an evaluation waits for the quiet period.
func (e *Engine) Pending() bool {
	return e.debouncer.Pending()
}

// Subscribe registers fn to be called after each evaluation and reset.
func (e *Engine) Subscribe(fn func(Result)) (unsubscribe func()) {
	return e.subs.Add(fn)
}

// Close stops the engine; a pending evaluation never runs.
func (e *Engine) Close() {
	e.debouncer.Stop()
	e.subs.Clear()
}

func (e *Engine) evaluate(query string) {
	const op = "Engine.evaluate"

	e.evalMu.Lock()
	defer e.evalMu.Unlock()

	found := Evaluate(e.source.Products(), query)

	e.mu.Lock()
	if e.result.Query != query {
		// a newer query arrived while evaluating
		e.mu.Unlock()
		return
	}
	e.result.Settled = query
	e.result.Products = found
	r := e.result
	r.Products = slices.Clone(found)
	e.mu.Unlock()

	slog.Debug("search evaluated", "op", op, "query", query, "nFound", len(found))
	e.subs.Notify(r)
}
