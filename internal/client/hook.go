// Package client orchestrates graph fetching for a rendering consumer:
// parameter changes are debounced, superseded requests are cancelled and
// their results discarded, and computed layouts are reused through the
// layout cache.
package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/atlasops/blastradius/internal/cache"
	"github.com/atlasops/blastradius/internal/graph"
	"github.com/atlasops/blastradius/internal/layout"
	"github.com/atlasops/blastradius/internal/resolve"
)

// DefaultDebounce is the trailing-edge debounce applied to parameter
// changes before a request fires.
const DefaultDebounce = 300 * time.Millisecond

// User-facing error strings. Non-cancellation failures collapse into one of
// these; the underlying error never reaches the rendering layer.
const (
	msgNotFound = "graph focus not found — pick another entity"
	msgGeneric  = "could not load the graph — try again"
)

// ---------------------------------------------------------------------------
// Fetcher
// ---------------------------------------------------------------------------

// Params is the query tuple a Hook watches.
type Params struct {
	OrganizationID string
	FocusKind      string
	FocusID        string
	Hops           int
}

// Fetcher retrieves a graph response for a parameter tuple. Implementations
// must honor ctx cancellation.
type Fetcher interface {
	Fetch(ctx context.Context, p Params) (*graph.Response, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, p Params) (*graph.Response, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, p Params) (*graph.Response, error) {
	return f(ctx, p)
}

// ---------------------------------------------------------------------------
// State
// ---------------------------------------------------------------------------

// State is an immutable snapshot of the hook's observable state. On failure
// the previous Response/Layout are kept so consumers never render a
// partially stale graph.
type State struct {
	Loading   bool
	Err       string
	Truncated bool
	Response  *graph.Response
	Layout    *graph.Layout
}

// ---------------------------------------------------------------------------
// Hook
// ---------------------------------------------------------------------------

// Hook debounces parameter changes, keeps at most one fetch in flight, and
// coordinates the layout cache. Safe for concurrent use.
type Hook struct {
	fetcher  Fetcher
	layouts  *cache.LayoutCache
	engine   *layout.Engine
	debounce time.Duration
	onUpdate func(State)

	mu      sync.Mutex
	timer   *time.Timer
	cancel  context.CancelFunc
	gen     uint64 // incremented per fired request; stale results are discarded
	state   State
	closed  bool
}

// Option configures a Hook.
type Option func(*Hook)

// WithDebounce overrides the debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(h *Hook) { h.debounce = d }
}

// WithOnUpdate registers a callback invoked (outside the hook's lock) after
// every state transition.
func WithOnUpdate(fn func(State)) Option {
	return func(h *Hook) { h.onUpdate = fn }
}

// NewHook creates a Hook. The layout cache and engine may be shared across
// hooks; the fetcher must not be nil.
func NewHook(fetcher Fetcher, layouts *cache.LayoutCache, engine *layout.Engine, opts ...Option) *Hook {
	h := &Hook{
		fetcher:  fetcher,
		layouts:  layouts,
		engine:   engine,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetParams registers a parameter change. The trailing-edge debounce timer
// restarts on every call; only the request issued after the timer elapses
// actually fires.
func (h *Hook) SetParams(p Params) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	if h.timer != nil {
		h.timer.Stop()
	}
	h.timer = time.AfterFunc(h.debounce, func() { h.fire(p) })
}

// fire starts a fetch for p, cancelling any in-flight request first.
func (h *Hook) fire(p Params) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	if h.cancel != nil {
		h.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.gen++
	gen := h.gen

	h.state.Loading = true
	h.state.Err = ""
	snapshot := h.state
	h.mu.Unlock()

	h.notify(snapshot)

	go h.fetch(ctx, p, gen)
}

// fetch runs one request to completion and applies its result unless it has
// been superseded. A cancelled request's result is discarded, never
// surfaced as an error or a state update.
func (h *Hook) fetch(ctx context.Context, p Params, gen uint64) {
	resp, err := h.fetcher.Fetch(ctx, p)

	h.mu.Lock()
	if h.closed || gen != h.gen || ctx.Err() != nil {
		h.mu.Unlock()
		return
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			h.mu.Unlock()
			return
		}
		h.state.Loading = false
		h.state.Err = humanize(err)
		snapshot := h.state
		h.mu.Unlock()
		h.notify(snapshot)
		return
	}

	l := h.layoutFor(resp)

	h.state = State{
		Loading:   false,
		Err:       "",
		Truncated: resp.Truncated,
		Response:  resp,
		Layout:    l,
	}
	snapshot := h.state
	h.mu.Unlock()
	h.notify(snapshot)
}

// layoutFor returns the cached layout for resp, computing and caching it on
// a miss. Layout is pure, so an entry is never recomputed for inputs
// already seen.
func (h *Hook) layoutFor(resp *graph.Response) *graph.Layout {
	if h.layouts != nil {
		if l, ok := h.layouts.Get(resp.QueryHash); ok {
			return l
		}
	}
	l := h.engine.Compute(resp.Nodes, resp.QueryHash)
	if h.layouts != nil {
		h.layouts.Set(resp.QueryHash, l)
	}
	return l
}

// State returns the current state snapshot.
func (h *Hook) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Close stops the debounce timer and cancels any in-flight request. The
// hook ignores further SetParams calls.
func (h *Hook) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

func (h *Hook) notify(s State) {
	if h.onUpdate != nil {
		h.onUpdate(s)
	}
}

// humanize collapses a resolver error into a single user-facing string.
func humanize(err error) string {
	var nf *resolve.NotFoundError
	if errors.As(err, &nf) {
		return msgNotFound
	}
	return msgGeneric
}
