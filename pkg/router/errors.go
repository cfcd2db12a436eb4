package router

import "errors"

// Sentinel errors. Navigation failures wrap these inside coded errors, so
// match them with errors.Is.
var (
	// ErrRouteNotFound: no route matched and no not-found route is registered.
	ErrRouteNotFound = errors.New("route not found")

	// ErrDestroyed: the router was destroyed.
	ErrDestroyed = errors.New("router destroyed")

	// ErrNavigationPanic: a guard, handler or hook panicked.
	ErrNavigationPanic = errors.New("navigation panicked")
)
