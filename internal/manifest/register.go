package manifest

import (
	"context"

	"github.com/vango-dev/wayfinder/pkg/router"
)

// RenderFunc receives the page a navigation landed on and its body with the
// route parameters filled in.
type RenderFunc func(ctx context.Context, page *Page, body string, req *router.Request) error

// Register adds one route per page, in manifest order, and the not-found
// page when the manifest has one.
func Register(r *router.Router, m *Manifest, render RenderFunc) {
	for i := range m.Pages {
		page := &m.Pages[i]
		r.Route(page.Path, pageHandler(page, render), router.WithOptions(pageOptions(page)))
	}
	if m.NotFound != nil {
		page := m.NotFound
		r.NotFound(pageHandler(page, render), router.WithOptions(pageOptions(page)))
	}
}

func pageHandler(page *Page, render RenderFunc) router.Handler {
	return func(ctx context.Context, req *router.Request) error {
		return render(ctx, page, Expand(page.Body, req.Params), req)
	}
}

func pageOptions(page *Page) map[string]any {
	opts := make(map[string]any, len(page.Options)+1)
	for k, v := range page.Options {
		opts[k] = v
	}
	if page.Title != "" {
		opts["title"] = page.Title
	}
	return opts
}
