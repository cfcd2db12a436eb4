package router

import "context"

// Outcome is how a navigation pipeline ended.
type Outcome int

const (
	// OutcomePending: the pipeline has not finished.
	OutcomePending Outcome = iota

	// OutcomeCompleted: the handler ran and the route was committed.
	OutcomeCompleted

	// OutcomeCancelled: a guard returned false.
	OutcomeCancelled

	// OutcomeFailed: resolution, a guard, the handler or a hook failed.
	OutcomeFailed

	// OutcomeStale: the router was destroyed while the navigation ran.
	OutcomeStale
)

// String returns a lowercase label, suitable for metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "error"
	case OutcomeStale:
		return "stale"
	default:
		return "pending"
	}
}

// Navigation describes one run of the navigation pipeline. Middleware sees it
// before the pipeline starts (only Path, State, Replace and Mode are set)
// and after next returns (To, From and Outcome are filled in).
type Navigation struct {
	Path    string
	State   any
	Replace bool
	Mode    Mode

	To   *ResolvedRoute
	From *ResolvedRoute

	Outcome Outcome
}

// RouteLabel returns the matched pattern, or "unmatched" when resolution
// did not produce a route.
func (n *Navigation) RouteLabel() string {
	if n.To == nil {
		return "unmatched"
	}
	return n.To.Path
}

// Middleware wraps the navigation pipeline.
type Middleware interface {
	// Handle processes the navigation and optionally calls next.
	// The context passed to next flows into guards, the handler and hooks.
	// Return an error to fail the navigation; return nil without calling
	// next to drop it silently.
	Handle(ctx context.Context, nav *Navigation, next func(context.Context) error) error
}

// MiddlewareFunc is a function adapter for Middleware.
type MiddlewareFunc func(ctx context.Context, nav *Navigation, next func(context.Context) error) error

// Handle implements Middleware.
func (f MiddlewareFunc) Handle(ctx context.Context, nav *Navigation, next func(context.Context) error) error {
	return f(ctx, nav, next)
}

// ComposeMiddleware builds a chain from middleware and a final pipeline.
// Middleware runs in order (first to last), with the pipeline at the end.
func ComposeMiddleware(ctx context.Context, nav *Navigation, mw []Middleware, pipeline func(context.Context) error) error {
	if len(mw) == 0 {
		return pipeline(ctx)
	}

	chain := pipeline
	for i := len(mw) - 1; i >= 0; i-- {
		m := mw[i]
		next := chain
		chain = func(ctx context.Context) error {
			return m.Handle(ctx, nav, next)
		}
	}
	return chain(ctx)
}

// Chain combines multiple middleware into one, in order.
func Chain(middleware ...Middleware) Middleware {
	return MiddlewareFunc(func(ctx context.Context, nav *Navigation, next func(context.Context) error) error {
		return ComposeMiddleware(ctx, nav, middleware, next)
	})
}

// Skip bypasses mw when condition is true.
func Skip(condition func(nav *Navigation) bool, mw Middleware) Middleware {
	return MiddlewareFunc(func(ctx context.Context, nav *Navigation, next func(context.Context) error) error {
		if condition(nav) {
			return next(ctx)
		}
		return mw.Handle(ctx, nav, next)
	})
}

// Only runs mw only when condition is true.
func Only(condition func(nav *Navigation) bool, mw Middleware) Middleware {
	return MiddlewareFunc(func(ctx context.Context, nav *Navigation, next func(context.Context) error) error {
		if !condition(nav) {
			return next(ctx)
		}
		return mw.Handle(ctx, nav, next)
	})
}
