package router

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/vango-dev/wayfinder/internal/errors"
	"github.com/vango-dev/wayfinder/pkg/browser"
	"github.com/vango-dev/wayfinder/pkg/routepath"
)

// Router owns the route table, resolves paths, runs guarded navigations one
// at a time, and keeps the browser URL in sync.
type Router struct {
	mode     Mode
	basePath string
	browser  browser.Browser
	binding  urlBinding
	logger   *slog.Logger
	events   *Bus

	mu         sync.Mutex
	table      routeTable
	notFound   *Route
	before     []Guard
	after      []AfterHook
	middleware []Middleware

	// Navigation state.
	navigating bool
	queue      []navRequest
	current    *ResolvedRoute
	generation uint64
	destroyed  bool

	started bool
	baseCtx context.Context
	unbind  []func()
}

// Option configures a Router.
type Option func(*Router)

// WithMode selects history or hash mode. The default is ModeHistory.
func WithMode(mode Mode) Option {
	return func(r *Router) {
		r.mode = mode
	}
}

// WithBasePath sets the prefix prepended to URLs in history mode and
// stripped from the location when reading the current path.
func WithBasePath(basePath string) Option {
	return func(r *Router) {
		r.basePath = strings.TrimSuffix(basePath, "/")
	}
}

// WithLogger sets the router's logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// New creates a router bound to b. Register routes, then call Start.
func New(b browser.Browser, opts ...Option) *Router {
	r := &Router{
		mode:    ModeHistory,
		browser: b,
	}
	for _, opt := range opts {
		opt(r)
	}
	if !r.mode.Valid() {
		r.mode = ModeHistory
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r.logger = r.logger.With("component", "router", "mode", string(r.mode))
	r.events = newBus(r.logger)

	if r.mode == ModeHash {
		r.binding = &hashBinding{browser: b}
	} else {
		r.binding = &historyBinding{browser: b, basePath: r.basePath}
	}
	return r
}

// Mode returns the router's mode.
func (r *Router) Mode() Mode {
	return r.mode
}

// Route registers handler for path and returns the router for chaining.
// A later registration of the same literal path replaces the earlier one
// and keeps its position in match order.
func (r *Router) Route(path string, handler Handler, opts ...RouteOption) *Router {
	rt := newRoute(path, handler, opts)

	r.mu.Lock()
	r.table.add(rt)
	r.mu.Unlock()
	return r
}

// NotFound registers the fallback route used when nothing matches.
// The last call wins.
func (r *Router) NotFound(handler Handler, opts ...RouteOption) *Router {
	rt := newRoute("*", handler, opts)

	r.mu.Lock()
	r.notFound = rt
	r.mu.Unlock()
	return r
}

// BeforeEach appends a guard. Guards run in registration order.
func (r *Router) BeforeEach(guard Guard) {
	r.mu.Lock()
	r.before = append(r.before, guard)
	r.mu.Unlock()
}

// AfterEach appends an after-hook. Hooks run in registration order.
func (r *Router) AfterEach(hook AfterHook) {
	r.mu.Lock()
	r.after = append(r.after, hook)
	r.mu.Unlock()
}

// Use appends navigation middleware.
func (r *Router) Use(mw ...Middleware) {
	r.mu.Lock()
	r.middleware = append(r.middleware, mw...)
	r.mu.Unlock()
}

// Routes returns the registered routes in match order.
func (r *Router) Routes() []*Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.table.snapshot()
}

// ResolveRoute matches path against the route table without navigating.
func (r *Router) ResolveRoute(path string) (*ResolvedRoute, error) {
	r.mu.Lock()
	routes := r.table.snapshot()
	notFound := r.notFound
	r.mu.Unlock()

	return resolve(routes, notFound, path)
}

// Events returns the router's event bus.
func (r *Router) Events() *Bus {
	return r.events
}

// OnChange subscribes to EventRouteChanged.
func (r *Router) OnChange(fn func(*ChangeEvent)) (off func()) {
	return r.events.On(EventRouteChanged, func(payload any) {
		if ev, ok := payload.(*ChangeEvent); ok {
			fn(ev)
		}
	})
}

// OnError subscribes to EventRouteError.
func (r *Router) OnError(fn func(*ErrorEvent)) (off func()) {
	return r.events.On(EventRouteError, func(payload any) {
		if ev, ok := payload.(*ErrorEvent); ok {
			fn(ev)
		}
	})
}

// Start binds the browser listeners and performs the initial navigation to
// the current browser path, replacing the current history entry. It returns
// once that navigation has settled.
//
// ctx is also the context of navigations started by browser events.
func (r *Router) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return errors.New("R004").Wrap(ErrDestroyed)
	}
	if r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = true
	r.baseCtx = ctx
	r.mu.Unlock()

	stop := r.browser.Listen(r.handleBrowserEvent)

	r.mu.Lock()
	r.unbind = append(r.unbind, stop)
	r.mu.Unlock()

	path := r.CurrentPath()
	r.logger.Debug("router started", "path", path)
	r.Navigate(ctx, path, WithReplace())
	return nil
}

// Back moves one entry back in the browser history.
func (r *Router) Back() {
	r.browser.Back()
}

// Forward moves one entry forward in the browser history.
func (r *Router) Forward() {
	r.browser.Forward()
}

// Go moves delta entries through the browser history.
func (r *Router) Go(delta int) {
	r.browser.Go(delta)
}

// CurrentPath returns the route path the browser is currently showing.
func (r *Router) CurrentPath() string {
	return r.binding.currentPath()
}

// CurrentRoute returns the last committed route, or nil.
func (r *Router) CurrentRoute() *ResolvedRoute {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// BuildPath substitutes ":name" tokens in pattern and appends query.
// Tokens without a value are left in place.
func (r *Router) BuildPath(pattern string, params, query map[string]string) string {
	return routepath.BuildPath(pattern, params, query)
}

// IsActive reports whether the current route was registered under pattern
// and, for every entry of params, has the same parameter value.
func (r *Router) IsActive(pattern string, params map[string]string) bool {
	cur := r.CurrentRoute()
	if cur == nil {
		return false
	}
	if routepath.Normalize(cur.Path) != routepath.Normalize(pattern) {
		return false
	}
	for k, v := range params {
		if got, ok := cur.Params[k]; !ok || got != v {
			return false
		}
	}
	return true
}

// QueueLen returns the number of navigations waiting their turn.
func (r *Router) QueueLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Navigating reports whether a navigation pipeline is running.
func (r *Router) Navigating() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.navigating
}

// Destroy unbinds the browser listeners and clears routes, hooks,
// middleware, queued navigations and event listeners. A navigation still in
// flight finishes its current step but will not commit, run after-hooks or
// emit events. Destroy is idempotent.
func (r *Router) Destroy() {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return
	}
	r.destroyed = true
	r.generation++
	r.table.reset()
	r.notFound = nil
	r.before = nil
	r.after = nil
	r.middleware = nil
	r.queue = nil
	r.navigating = false
	unbind := r.unbind
	r.unbind = nil
	r.mu.Unlock()

	for _, stop := range unbind {
		stop()
	}
	r.events.clear()
	r.logger.Debug("router destroyed")
}
