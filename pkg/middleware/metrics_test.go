package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/vango-dev/wayfinder/pkg/browser"
	"github.com/vango-dev/wayfinder/pkg/router"
)

func resetGlobalMetricsForTest() {
	globalMetricsMu.Lock()
	globalMetrics = nil
	globalMetricsMu.Unlock()
}

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	if m.Gauge == nil {
		t.Fatal("expected gauge metric to have Gauge field")
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func noop(context.Context, *router.Request) error { return nil }

// newInstrumentedRouter returns a started router at "/" with mw installed
// after the initial navigation.
func newInstrumentedRouter(t *testing.T, mw router.Middleware) *router.Router {
	t.Helper()
	r := router.New(browser.NewMemory("/"))
	r.Route("/", noop).
		Route("/users/:id", noop).
		Route("/admin", noop).
		Route("/broken", func(context.Context, *router.Request) error {
			return errors.New("database timeout")
		})
	r.BeforeEach(func(_ context.Context, tr *router.Transition) (bool, error) {
		return tr.To.Path != "/admin", nil
	})
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	r.Use(mw)
	t.Cleanup(r.Destroy)
	return r
}

func TestPrometheusMiddleware(t *testing.T) {
	resetGlobalMetricsForTest()
	t.Cleanup(resetGlobalMetricsForTest)
	reg := prometheus.NewRegistry()

	r := newInstrumentedRouter(t, Prometheus(WithRegistry(reg)))
	ctx := context.Background()
	r.Navigate(ctx, "/users/1")
	r.Navigate(ctx, "/users/2")
	r.Navigate(ctx, "/admin")
	r.Navigate(ctx, "/broken")
	r.Navigate(ctx, "/missing")

	m := globalMetrics
	tests := []struct {
		route   string
		outcome string
		want    float64
	}{
		{"/users/:id", "completed", 2},
		{"/admin", "cancelled", 1},
		{"/broken", "error", 1},
		{"unmatched", "error", 1},
		{"/users/:id", "error", 0},
	}
	for _, tt := range tests {
		got := metricCounterValue(t, m.navigationsTotal.WithLabelValues(tt.route, tt.outcome))
		if got != tt.want {
			t.Errorf("navigations_total{%s,%s} = %v, want %v", tt.route, tt.outcome, got, tt.want)
		}
	}

	if got := metricHistogramCount(t, m.navigationDuration.WithLabelValues("/users/:id")); got != 2 {
		t.Errorf("navigation_duration_seconds{/users/:id} count = %d, want 2", got)
	}
	if got := metricCounterValue(t, m.navigationErrors.WithLabelValues("/broken", "timeout")); got != 1 {
		t.Errorf("navigation_errors_total{/broken,timeout} = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.navigationErrors.WithLabelValues("unmatched", "R001")); got != 1 {
		t.Errorf("navigation_errors_total{unmatched,R001} = %v, want 1", got)
	}
}

func TestPrometheusSharesMetrics(t *testing.T) {
	resetGlobalMetricsForTest()
	t.Cleanup(resetGlobalMetricsForTest)
	reg := prometheus.NewRegistry()

	Prometheus(WithRegistry(reg), WithNamespace("test"))
	first := globalMetrics
	// A second call must not register again (promauto would panic).
	Prometheus(WithRegistry(reg), WithNamespace("test"))
	if globalMetrics != first {
		t.Error("second Prometheus() call replaced the metrics")
	}

	n, err := testutil.GatherAndCount(reg)
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	// Only the unlabeled gauge exists before any navigation.
	if n != 1 {
		t.Errorf("gathered series = %d, want 1", n)
	}
}

func TestRecordConnections(t *testing.T) {
	resetGlobalMetricsForTest()
	t.Cleanup(resetGlobalMetricsForTest)

	// No-ops before initialization.
	RecordConnectionOpen()
	RecordConnectionClose()

	Prometheus(WithRegistry(prometheus.NewRegistry()))
	RecordConnectionOpen()
	RecordConnectionOpen()
	RecordConnectionClose()

	if got := metricGaugeValue(t, globalMetrics.activeConnections); got != 1 {
		t.Errorf("bridge_connections = %v, want 1", got)
	}
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, "timeout"},
		{context.Canceled, "canceled"},
		{errors.New("user not found"), "not_found"},
		{errors.New("Forbidden"), "unauthorized"},
		{errors.New("invalid body"), "validation"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		if got := categorizeError(tt.err); got != tt.want {
			t.Errorf("categorizeError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestQueueDepthCollector(t *testing.T) {
	r := router.New(browser.NewMemory("/"))
	t.Cleanup(r.Destroy)

	qd := NewQueueDepthCollector("wayfinder", r)
	reg := prometheus.NewRegistry()
	reg.MustRegister(qd)

	var depth float64
	r.Route("/", func(ctx context.Context, _ *router.Request) error {
		r.Navigate(ctx, "/a")
		r.Navigate(ctx, "/b")
		depth = testutil.ToFloat64(qd)
		return nil
	}).Route("/a", noop).Route("/b", noop)

	r.Navigate(context.Background(), "/")

	if depth != 2 {
		t.Errorf("queue depth during navigation = %v, want 2", depth)
	}
	if got := testutil.ToFloat64(qd); got != 0 {
		t.Errorf("queue depth after settling = %v, want 0", got)
	}

	untrack := qd.Track(router.New(browser.NewMemory("/")))
	untrack()
	qd.mu.Lock()
	n := len(qd.routers)
	qd.mu.Unlock()
	if n != 1 {
		t.Errorf("tracked routers = %d, want 1", n)
	}
}
