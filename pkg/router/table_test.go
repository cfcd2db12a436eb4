package router

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	werrors "github.com/vango-dev/wayfinder/internal/errors"
	"github.com/vango-dev/wayfinder/pkg/browser"
)

func newTableRouter() *Router {
	r := New(browser.NewMemory("/"))
	r.Route("/", nil).
		Route("/users/new", nil).
		Route("/users/:id", nil).
		Route("/users/:id/posts/:post", nil).
		Route("/files/*", nil)
	return r
}

func TestResolveRoute(t *testing.T) {
	r := newTableRouter()

	tests := []struct {
		name       string
		path       string
		wantRoute  string
		wantParams map[string]string
	}{
		{name: "root", path: "/", wantRoute: "/", wantParams: map[string]string{}},
		{name: "param", path: "/users/42", wantRoute: "/users/:id", wantParams: map[string]string{"id": "42"}},
		{name: "first match wins", path: "/users/new", wantRoute: "/users/new", wantParams: map[string]string{}},
		{name: "trailing slash", path: "/users/42/", wantRoute: "/users/:id", wantParams: map[string]string{"id": "42"}},
		{name: "decoded param", path: "/users/a%20b", wantRoute: "/users/:id", wantParams: map[string]string{"id": "a b"}},
		{name: "two params", path: "/users/1/posts/2", wantRoute: "/users/:id/posts/:post", wantParams: map[string]string{"id": "1", "post": "2"}},
		{name: "wildcard tail", path: "/files/a/b/c", wantRoute: "/files/*", wantParams: map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveRoute(tt.path)
			if err != nil {
				t.Fatalf("ResolveRoute(%q) error = %v", tt.path, err)
			}
			if got.Path != tt.wantRoute {
				t.Errorf("Path = %q, want %q", got.Path, tt.wantRoute)
			}
			if diff := cmp.Diff(tt.wantParams, got.Params); diff != "" {
				t.Errorf("Params mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// A "*" anywhere in a pattern matches any path with a different segment
// count, whatever the other segments say.
func TestResolveRouteLooseWildcard(t *testing.T) {
	r := newTableRouter()

	for _, path := range []string{"/docs/x/y", "/nope", "/a/b/c/d/e"} {
		got, err := r.ResolveRoute(path)
		if err != nil {
			t.Fatalf("ResolveRoute(%q) error = %v", path, err)
		}
		if got.Path != "/files/*" {
			t.Errorf("ResolveRoute(%q).Path = %q, want %q", path, got.Path, "/files/*")
		}
		if len(got.Params) != 0 {
			t.Errorf("ResolveRoute(%q).Params = %v, want empty", path, got.Params)
		}
	}

	// Same segment count: "*" is compared literally.
	if _, err := r.ResolveRoute("/files/x"); !errors.Is(err, ErrRouteNotFound) {
		t.Errorf("ResolveRoute(/files/x) error = %v, want ErrRouteNotFound", err)
	}
	got, err := r.ResolveRoute("/files/*")
	if err != nil || got.Path != "/files/*" {
		t.Errorf("ResolveRoute(/files/*) = %v, %v; want literal match", got, err)
	}
}

func TestResolveRouteQuery(t *testing.T) {
	r := newTableRouter()

	got, err := r.ResolveRoute("/users/42?x=1&x=2&tab=posts")
	if err != nil {
		t.Fatalf("ResolveRoute error = %v", err)
	}
	if got.URL != "/users/42" {
		t.Errorf("URL = %q, want %q", got.URL, "/users/42")
	}
	if got.Href != "/users/42?x=1&x=2&tab=posts" {
		t.Errorf("Href = %q, want %q", got.Href, "/users/42?x=1&x=2&tab=posts")
	}
	want := map[string]string{"x": "2", "tab": "posts"}
	if diff := cmp.Diff(want, got.Query); diff != "" {
		t.Errorf("Query mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveRouteNotFound(t *testing.T) {
	r := New(browser.NewMemory("/"))
	r.Route("/about", nil).NotFound(nil, WithOption("title", "Lost"))

	got, err := r.ResolveRoute("/nope/?a=1")
	if err != nil {
		t.Fatalf("ResolveRoute error = %v", err)
	}
	if got.Path != "*" {
		t.Errorf("Path = %q, want %q", got.Path, "*")
	}
	if diff := cmp.Diff(map[string]string{"path": "/nope"}, got.Params); diff != "" {
		t.Errorf("Params mismatch (-want +got):\n%s", diff)
	}
	if len(got.Query) != 0 {
		t.Errorf("Query = %v, want empty", got.Query)
	}
	if got.Options["title"] != "Lost" {
		t.Errorf("Options[title] = %v, want %q", got.Options["title"], "Lost")
	}
}

func TestResolveRouteNoMatch(t *testing.T) {
	r := New(browser.NewMemory("/"))
	r.Route("/about", nil)

	_, err := r.ResolveRoute("/missing")
	if !errors.Is(err, ErrRouteNotFound) {
		t.Fatalf("error = %v, want ErrRouteNotFound", err)
	}
	if code := werrors.Code(err); code != "R001" {
		t.Errorf("Code = %q, want %q", code, "R001")
	}
}

func TestResolveRouteMalformedParam(t *testing.T) {
	r := newTableRouter()

	_, err := r.ResolveRoute("/users/%zz")
	if code := werrors.Code(err); code != "R002" {
		t.Errorf("Code = %q, want %q (err = %v)", code, "R002", err)
	}
}

func TestRouteReplacesInPlace(t *testing.T) {
	r := New(browser.NewMemory("/"))
	r.Route("/a", nil, WithOption("v", 1)).
		Route("/b", nil).
		Route("/a", nil, WithOption("v", 3))

	routes := r.Routes()
	if len(routes) != 2 {
		t.Fatalf("len(Routes()) = %d, want 2", len(routes))
	}
	if routes[0].Path != "/a" || routes[1].Path != "/b" {
		t.Errorf("order = [%s %s], want [/a /b]", routes[0].Path, routes[1].Path)
	}
	if routes[0].Options["v"] != 3 {
		t.Errorf("Options[v] = %v, want 3", routes[0].Options["v"])
	}
}

func TestRouteParamNames(t *testing.T) {
	r := New(browser.NewMemory("/"))
	r.Route("/sessions/:sessionID/*", nil)

	got := r.Routes()[0].ParamNames
	if diff := cmp.Diff([]string{"sessionID"}, got); diff != "" {
		t.Errorf("ParamNames mismatch (-want +got):\n%s", diff)
	}
}

func TestRouterBuildPath(t *testing.T) {
	r := New(browser.NewMemory("/"))
	got := r.BuildPath("/users/:id", map[string]string{"id": "7"}, map[string]string{"tab": "posts"})
	if got != "/users/7?tab=posts" {
		t.Errorf("BuildPath() = %q, want %q", got, "/users/7?tab=posts")
	}
}
