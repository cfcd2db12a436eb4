package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	clientdist "github.com/vango-dev/wayfinder/client/dist"
	"github.com/vango-dev/wayfinder/internal/config"
	"github.com/vango-dev/wayfinder/internal/demo"
	"github.com/vango-dev/wayfinder/internal/manifest"
	"github.com/vango-dev/wayfinder/pkg/bridge"
	"github.com/vango-dev/wayfinder/pkg/middleware"
	"github.com/vango-dev/wayfinder/pkg/router"
	"golang.org/x/sync/errgroup"
)

// app is a running `wayfinder serve`: one router per connected tab, all
// sharing the same page source and middleware.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	// pages is the current manifest; nil serves the demo routes.
	pages atomic.Pointer[manifest.Manifest]

	registry   *prometheus.Registry
	queueDepth *middleware.QueueDepthCollector
	mw         []router.Middleware

	bridge *bridge.Handler
}

// newApp wires the HTTP surface for cfg. m may be nil.
func newApp(cfg *config.Config, m *manifest.Manifest, logger *slog.Logger) *app {
	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	a.pages.Store(m)

	if cfg.Metrics.Enabled {
		a.mw = append(a.mw, middleware.Prometheus(
			middleware.WithNamespace(cfg.Metrics.Namespace),
			middleware.WithRegistry(a.registry),
		))
		a.queueDepth = middleware.NewQueueDepthCollector(cfg.Metrics.Namespace)
		a.registry.MustRegister(a.queueDepth)
	}
	if cfg.Tracing.Enabled {
		a.mw = append(a.mw, middleware.OpenTelemetry(
			middleware.WithTracerName(cfg.Tracing.TracerName),
		))
	}

	opts := bridge.DefaultOptions()
	opts.Logger = logger
	if origins := cfg.Server.AllowedOrigins; len(origins) > 0 {
		opts.CheckOrigin = func(r *http.Request) bool {
			return slices.Contains(origins, r.Header.Get("Origin"))
		}
	}
	a.bridge = bridge.NewHandler(a.session, opts)
	return a
}

// session runs one tab's router until the connection closes.
func (a *app) session(ctx context.Context, c *bridge.Conn) error {
	r := router.New(c,
		router.WithMode(router.Mode(a.cfg.Router.Mode)),
		router.WithBasePath(a.cfg.Router.BasePath),
		router.WithLogger(c.Logger()),
	)

	render := func(_ context.Context, html string) error { return c.Render(html) }
	if m := a.pages.Load(); m != nil {
		manifest.Register(r, m, func(ctx context.Context, _ *manifest.Page, body string, _ *router.Request) error {
			return render(ctx, body)
		})
	} else {
		demo.Register(r, render)
	}

	r.OnError(func(ev *router.ErrorEvent) {
		c.Send(bridge.Frame{Type: bridge.FrameError, Message: ev.Err.Error()})
	})
	r.Use(a.mw...)

	middleware.RecordConnectionOpen()
	c.OnClose(middleware.RecordConnectionClose)
	if a.queueDepth != nil {
		c.OnClose(a.queueDepth.Track(r))
	}
	c.OnClose(r.Destroy)

	return r.Start(ctx)
}

// reload swaps the page source. Tabs connected earlier keep their routes.
func (a *app) reload(m *manifest.Manifest) {
	a.pages.Store(m)
}

var shell = template.Must(template.New("shell").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<div data-wayfinder-root></div>
<script src="{{.Client}}" data-ws="{{.WS}}"></script>
</body>
</html>
`))

// handler returns the HTTP routes: the thin client, the bridge endpoint,
// metrics, and the page shell for every other path.
func (a *app) handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get(a.cfg.Server.ClientPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Write(clientdist.WayfinderJS)
	})
	r.Handle(a.cfg.Server.WSPath, a.bridge)
	if a.cfg.Metrics.Enabled {
		r.Handle(a.cfg.Server.MetricsPath, promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	}
	r.Get("/*", func(w http.ResponseWriter, _ *http.Request) {
		title := a.cfg.Name
		if title == "" {
			title = "Wayfinder"
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := shell.Execute(w, map[string]string{
			"Title":  title,
			"Client": a.cfg.Server.ClientPath,
			"WS":     a.cfg.Server.WSPath,
		}); err != nil {
			a.logger.Error("render shell", "error", err)
		}
	})
	return r
}

// run serves until ctx is cancelled, reloading a local manifest on change.
func (a *app) run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           a.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("listening", "addr", srv.Addr, "mode", a.cfg.Router.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if src := a.cfg.Manifest; src != "" && !strings.HasPrefix(src, "s3://") {
		g.Go(func() error {
			return manifest.Watch(gctx, src, a.reload, manifest.WatchOptions{Logger: a.logger})
		})
	}
	return g.Wait()
}
