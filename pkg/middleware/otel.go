package middleware

import (
	"context"

	"github.com/vango-dev/wayfinder/pkg/router"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for Wayfinder applications.
const defaultTracerName = "wayfinder"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "wayfinder").
	TracerName string

	// TracerProvider supplies the tracer.
	// Default: the global provider (otel.GetTracerProvider()).
	TracerProvider trace.TracerProvider

	// IncludeState records the navigation state as a span attribute.
	// State may hold user data, so this is disabled by default.
	IncludeState bool

	// Filter determines which navigations to trace.
	// Return true to trace, false to skip. Nil traces everything.
	Filter func(nav *router.Navigation) bool

	// AttributeExtractor adds custom attributes when the span ends.
	AttributeExtractor func(nav *router.Navigation) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeState enables recording the navigation state.
func WithIncludeState(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeState = include
	}
}

// WithNavigationFilter sets a filter function for navigations.
func WithNavigationFilter(filter func(nav *router.Navigation) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(nav *router.Navigation) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// defaultOTelConfig returns the default OpenTelemetry configuration.
func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// OpenTelemetry creates middleware that traces every navigation.
//
// The middleware:
//   - Starts a span per navigation with the requested path, mode and replace flag
//   - Renames the span after the matched pattern once it is known
//   - Passes the span context to guards, the handler and after-hooks
//   - Records the outcome, errors and span status
//
// Example:
//
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("learning-assistant"),
//	))
//
// Without WithTracerProvider the global provider is used. Configure it in
// main() before starting the router:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) router.Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(config.TracerName)

	return router.MiddlewareFunc(func(ctx context.Context, nav *router.Navigation, next func(context.Context) error) error {
		if config.Filter != nil && !config.Filter(nav) {
			return next(ctx)
		}

		attrs := []attribute.KeyValue{
			attribute.String("wayfinder.path", nav.Path),
			attribute.String("wayfinder.mode", string(nav.Mode)),
			attribute.Bool("wayfinder.replace", nav.Replace),
		}
		if config.IncludeState && nav.State != nil {
			attrs = append(attrs, attribute.String("wayfinder.state", formatState(nav.State)))
		}

		spanCtx, span := tracer.Start(ctx, "wayfinder.navigate",
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		err := next(spanCtx)

		route := nav.RouteLabel()
		span.SetName("wayfinder.navigate " + route)

		outcome := nav.Outcome.String()
		if err != nil {
			outcome = router.OutcomeFailed.String()
		}
		span.SetAttributes(
			attribute.String("wayfinder.route", route),
			attribute.String("wayfinder.outcome", outcome),
		)
		if config.AttributeExtractor != nil {
			span.SetAttributes(config.AttributeExtractor(nav)...)
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return err
	})
}

// SpanFromContext returns the navigation span carried by ctx. Guards,
// handlers and hooks receive that context.
//
// Example:
//
//	func Show(ctx context.Context, req *router.Request) error {
//	    middleware.SpanFromContext(ctx).SetAttributes(attribute.String("body", req.Params["body"]))
//	    return nil
//	}
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}
