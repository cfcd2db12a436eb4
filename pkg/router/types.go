package router

import (
	"context"

	"github.com/vango-dev/wayfinder/pkg/routepath"
)

// Mode selects how the current route is represented in the address bar.
type Mode string

const (
	// ModeHistory uses pushState/replaceState URLs ("/app/users/7").
	ModeHistory Mode = "history"

	// ModeHash keeps the route in the fragment ("/#/users/7").
	ModeHash Mode = "hash"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeHistory || m == ModeHash
}

// Request is what a route handler receives.
type Request struct {
	// Params are the decoded path parameters.
	Params map[string]string

	// Query is the decoded query string, last value per key.
	Query map[string]string

	// State is the caller-supplied navigation state (WithState).
	State any

	// Route is the resolution this request was built from.
	Route *ResolvedRoute
}

// Bind fills target, a pointer to a struct, from Params (`param:"name"` tags)
// and Query (`query:"name"` tags).
func (r *Request) Bind(target any) error {
	return NewParamParser().Bind(r.Params, r.Query, target)
}

// Handler renders a resolved route.
type Handler func(ctx context.Context, req *Request) error

// Route is a registered navigable unit.
type Route struct {
	// Path is the pattern. Segments starting with ":" are parameters and a
	// "*" segment is a wildcard.
	Path string

	// Handler runs when the route is navigated to.
	Handler Handler

	// Options is free-form metadata passed through to ResolvedRoute.
	Options map[string]any

	// ParamNames are the parameter names in Path, in order.
	ParamNames []string

	// segments and wildcard are precomputed for matching.
	segments []string
	wildcard bool
}

// newRoute builds a Route and precomputes its matching data.
func newRoute(path string, handler Handler, opts []RouteOption) *Route {
	rt := &Route{
		Path:       path,
		Handler:    handler,
		ParamNames: routepath.ParamNames(path),
		segments:   routepath.Segments(path),
		wildcard:   routepath.HasWildcard(path),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// RouteOption configures route registration.
type RouteOption func(*Route)

// WithOptions attaches metadata to the route.
func WithOptions(options map[string]any) RouteOption {
	return func(rt *Route) {
		if rt.Options == nil {
			rt.Options = make(map[string]any, len(options))
		}
		for k, v := range options {
			rt.Options[k] = v
		}
	}
}

// WithOption attaches a single metadata entry to the route.
//
// Example:
//
//	r.Route("/astronomy/:body", astronomy.Show, router.WithOption("title", "Solar System"))
func WithOption(key string, value any) RouteOption {
	return WithOptions(map[string]any{key: value})
}

// ResolvedRoute is the result of matching a concrete path against the route
// table. It lives for one navigation.
type ResolvedRoute struct {
	// Path is the matched pattern ("*" for the not-found route).
	Path string

	// URL is the normalized concrete path, without query.
	URL string

	// Href is URL plus the original query string, if any.
	Href string

	// Handler and Options are copied from the matched route.
	Handler Handler
	Options map[string]any

	// Params are the decoded path parameters.
	Params map[string]string

	// Query is the decoded query string.
	Query map[string]string
}

// Transition is passed to guards and after-hooks.
type Transition struct {
	// To is the route being navigated to.
	To *ResolvedRoute

	// From is the route being left; nil on the first navigation.
	From *ResolvedRoute

	// State is the navigation state.
	State any
}

// Guard runs before a navigation commits. Returning false cancels the
// navigation silently; returning an error fails it.
type Guard func(ctx context.Context, t *Transition) (bool, error)

// AfterHook runs after a navigation committed.
type AfterHook func(ctx context.Context, t *Transition) error
