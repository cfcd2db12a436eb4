package middleware

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vango-dev/wayfinder/pkg/router"
)

// QueueDepthCollector reports the number of queued navigations summed over
// a set of routers. Routers join with Track and leave with the returned func.
type QueueDepthCollector struct {
	desc *prometheus.Desc

	mu      sync.Mutex
	routers map[*router.Router]struct{}
}

// NewQueueDepthCollector creates a collector for the
// <namespace>_navigation_queue_depth gauge, tracking routers.
//
//	qd := middleware.NewQueueDepthCollector("wayfinder")
//	prometheus.MustRegister(qd)
//	untrack := qd.Track(r)
//	defer untrack()
func NewQueueDepthCollector(namespace string, routers ...*router.Router) *QueueDepthCollector {
	c := &QueueDepthCollector{
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "navigation_queue_depth"),
			"Navigations waiting for the running navigation to settle",
			nil, nil,
		),
		routers: make(map[*router.Router]struct{}),
	}
	for _, r := range routers {
		c.Track(r)
	}
	return c
}

// Track adds r to the collector.
func (c *QueueDepthCollector) Track(r *router.Router) (untrack func()) {
	c.mu.Lock()
	c.routers[r] = struct{}{}
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.routers, r)
		c.mu.Unlock()
	}
}

// Describe implements prometheus.Collector.
func (c *QueueDepthCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *QueueDepthCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	routers := make([]*router.Router, 0, len(c.routers))
	for r := range c.routers {
		routers = append(routers, r)
	}
	c.mu.Unlock()

	var depth int
	for _, r := range routers {
		depth += r.QueueLen()
	}
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(depth))
}
