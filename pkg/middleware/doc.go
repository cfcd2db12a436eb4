// Package middleware provides observability middleware for Wayfinder routers.
//
// This package includes:
//   - OpenTelemetry tracing of navigations
//   - Prometheus metrics for navigations, bridge connections and queue depth
//
// Both are router.Middleware and are installed with Router.Use.
//
// # OpenTelemetry Middleware
//
// Every navigation pipeline gets a span named after the matched pattern. The
// span context is passed to guards, the handler and after-hooks, so work they
// start joins the trace:
//
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("learning-assistant"),
//	    middleware.WithNavigationFilter(func(nav *router.Navigation) bool {
//	        return nav.Path != "/healthz"
//	    }),
//	))
//
// # Prometheus Metrics
//
//   - wayfinder_navigations_total: navigations by route and outcome
//   - wayfinder_navigation_duration_seconds: pipeline duration by route
//   - wayfinder_navigation_errors_total: failed navigations by route and error type
//   - wayfinder_bridge_connections: open bridge connections
//   - wayfinder_navigation_queue_depth: queued navigations across tracked routers
//
//	r.Use(middleware.Prometheus())
//	http.Handle("/metrics", promhttp.Handler())
package middleware
