package router

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/vango-dev/wayfinder/internal/errors"
	"github.com/vango-dev/wayfinder/pkg/routepath"
)

// NavigateOptions configures a navigation.
type NavigateOptions struct {
	// Replace replaces the current history entry instead of pushing.
	Replace bool

	// State is handed to guards, the handler and hooks.
	State any

	// Query is merged into the path's query string.
	Query map[string]string
}

// NavigateOption is a functional option for Navigate.
type NavigateOption func(*NavigateOptions)

// WithReplace replaces the current history entry instead of pushing.
func WithReplace() NavigateOption {
	return func(o *NavigateOptions) {
		o.Replace = true
	}
}

// WithState attaches navigation state.
func WithState(state any) NavigateOption {
	return func(o *NavigateOptions) {
		o.State = state
	}
}

// WithQuery merges query parameters into the target path. Keys already in
// the path's query string are overwritten.
func WithQuery(query map[string]string) NavigateOption {
	return func(o *NavigateOptions) {
		o.Query = query
	}
}

// navRequest is a pending navigation.
type navRequest struct {
	ctx  context.Context
	path string
	opts NavigateOptions
}

// target returns the path with Query merged in.
func (req navRequest) target() string {
	if len(req.opts.Query) == 0 {
		return req.path
	}
	path, raw := routepath.SplitPathAndQuery(req.path)
	merged := routepath.ParseQuery(raw)
	for k, v := range req.opts.Query {
		merged[k] = v
	}
	return path + "?" + routepath.EncodeQuery(merged)
}

// Navigate resolves path and runs the navigation pipeline: before-guards,
// URL update, handler, commit, after-hooks, and the route:changed event.
//
// Only one pipeline runs at a time. When one is already running the request
// is queued and Navigate returns immediately; queued requests run in FIFO
// order once the running pipeline finishes, on the goroutine that started it.
// Navigate therefore returns after its own pipeline and everything queued
// behind it have settled.
//
// Failures are never returned. They are emitted as route:error events.
func (r *Router) Navigate(ctx context.Context, path string, opts ...NavigateOption) {
	req := navRequest{ctx: ctx, path: path}
	for _, opt := range opts {
		opt(&req.opts)
	}

	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		r.logger.Warn("navigation on destroyed router dropped", "path", path)
		return
	}
	if r.navigating {
		r.queue = append(r.queue, req)
		depth := len(r.queue)
		r.mu.Unlock()
		r.logger.Debug("navigation queued", "path", path, "queue_depth", depth)
		return
	}
	r.navigating = true
	gen := r.generation
	r.mu.Unlock()

	for {
		r.run(gen, req)

		r.mu.Lock()
		if r.generation != gen || len(r.queue) == 0 {
			if r.generation == gen {
				r.navigating = false
			}
			r.mu.Unlock()
			return
		}
		req = r.queue[0]
		r.queue[0] = navRequest{}
		r.queue = r.queue[1:]
		r.mu.Unlock()
	}
}

// run executes one navigation through the middleware chain and converts
// failures into route:error events.
func (r *Router) run(gen uint64, req navRequest) {
	nav := &Navigation{
		Path:    req.target(),
		State:   req.opts.State,
		Replace: req.opts.Replace,
		Mode:    r.mode,
	}

	r.mu.Lock()
	mw := append([]Middleware(nil), r.middleware...)
	r.mu.Unlock()

	ctx := req.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	err := r.recoverNavigation(func() error {
		return ComposeMiddleware(ctx, nav, mw, func(ctx context.Context) error {
			err := r.recoverNavigation(func() error {
				return r.pipeline(ctx, gen, nav)
			})
			if err != nil {
				nav.Outcome = OutcomeFailed
			}
			return err
		})
	})
	if err == nil {
		r.logger.Debug("navigation settled",
			"path", nav.Path,
			"route", nav.RouteLabel(),
			"outcome", nav.Outcome.String())
		return
	}

	nav.Outcome = OutcomeFailed
	if !r.live(gen) {
		r.logger.Debug("navigation failed after destroy", "path", nav.Path, "error", err)
		return
	}
	r.logger.Error("navigation failed", "path", nav.Path, "error", err)
	r.events.Emit(EventRouteError, &ErrorEvent{
		Err:   err,
		Path:  nav.Path,
		State: nav.State,
	})
}

// pipeline is the navigation state machine body.
func (r *Router) pipeline(ctx context.Context, gen uint64, nav *Navigation) error {
	to, err := r.ResolveRoute(nav.Path)
	if err != nil {
		return err
	}
	nav.To = to

	r.mu.Lock()
	nav.From = r.current
	before := append([]Guard(nil), r.before...)
	after := append([]AfterHook(nil), r.after...)
	r.mu.Unlock()

	t := &Transition{To: to, From: nav.From, State: nav.State}

	for _, guard := range before {
		ok, err := guard(ctx, t)
		if err != nil {
			return err
		}
		if !ok {
			nav.Outcome = OutcomeCancelled
			return nil
		}
	}

	if !r.live(gen) {
		nav.Outcome = OutcomeStale
		return nil
	}
	r.binding.update(to.Href, nav.Replace)

	if to.Handler != nil {
		req := &Request{
			Params: to.Params,
			Query:  to.Query,
			State:  nav.State,
			Route:  to,
		}
		if err := to.Handler(ctx, req); err != nil {
			return err
		}
	}

	r.mu.Lock()
	if r.generation != gen {
		r.mu.Unlock()
		nav.Outcome = OutcomeStale
		return nil
	}
	r.current = to
	r.mu.Unlock()

	for _, hook := range after {
		if err := hook(ctx, t); err != nil {
			return err
		}
	}

	if !r.live(gen) {
		nav.Outcome = OutcomeStale
		return nil
	}
	r.events.Emit(EventRouteChanged, &ChangeEvent{
		To:    to,
		From:  nav.From,
		State: nav.State,
	})
	nav.Outcome = OutcomeCompleted
	return nil
}

// live reports whether gen is still the router's generation.
func (r *Router) live(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation == gen
}

// recoverNavigation runs fn, turning a panic into an R003 error.
func (r *Router) recoverNavigation(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("navigation panic",
				"panic", p,
				"stack", string(debug.Stack()))
			err = errors.New("R003").
				WithDetail(fmt.Sprint(p)).
				Wrap(ErrNavigationPanic)
		}
	}()
	return fn()
}
