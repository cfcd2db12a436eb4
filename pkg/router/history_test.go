package router

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	werrors "github.com/vango-dev/wayfinder/internal/errors"
	"github.com/vango-dev/wayfinder/pkg/browser"
)

func countingHandler(counts map[string]int) Handler {
	return func(_ context.Context, req *Request) error {
		counts[req.Route.URL]++
		return nil
	}
}

func TestHistoryBackForward(t *testing.T) {
	b := browser.NewMemory("/")
	counts := map[string]int{}
	r := startRouter(t, b, func(r *Router) {
		h := countingHandler(counts)
		r.Route("/", h).Route("/a", h).Route("/b", h)
	})

	ctx := context.Background()
	r.Navigate(ctx, "/a")
	r.Navigate(ctx, "/b")

	r.Back()
	if cur := r.CurrentRoute(); cur.URL != "/a" {
		t.Fatalf("after Back: CurrentRoute().URL = %q, want %q", cur.URL, "/a")
	}
	entries, index := b.Entries()
	if len(entries) != 3 || index != 1 {
		t.Errorf("after Back: %d entries at index %d, want 3 at index 1", len(entries), index)
	}

	r.Forward()
	if cur := r.CurrentRoute(); cur.URL != "/b" {
		t.Errorf("after Forward: CurrentRoute().URL = %q, want %q", cur.URL, "/b")
	}

	r.Go(-2)
	if cur := r.CurrentRoute(); cur.URL != "/" {
		t.Errorf("after Go(-2): CurrentRoute().URL = %q, want %q", cur.URL, "/")
	}

	want := map[string]int{"/": 2, "/a": 2, "/b": 2}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("handler calls mismatch (-want +got):\n%s", diff)
	}
	// popstate navigations replace, they never add entries.
	if entries, _ := b.Entries(); len(entries) != 3 {
		t.Errorf("len(entries) = %d, want 3", len(entries))
	}
}

func TestHistoryPopStateWithoutState(t *testing.T) {
	b := browser.NewMemory("/")
	r := startRouter(t, b, func(r *Router) {
		r.Route("/", noop).Route("/users/:id", noop)
	})

	// An entry the router did not create carries no state; the location
	// is used instead.
	b.PushState(nil, "/users/5")
	b.Back()
	b.Forward()

	cur := r.CurrentRoute()
	if cur.Path != "/users/:id" || cur.Params["id"] != "5" {
		t.Errorf("CurrentRoute() = %+v, want /users/:id with id=5", cur)
	}
}

func TestHistoryBasePath(t *testing.T) {
	b := browser.NewMemory("/app/users/3")
	r := startRouter(t, b, func(r *Router) {
		r.Route("/users/:id", noop).Route("/about", noop)
	}, WithBasePath("/app/"))

	if got := r.CurrentPath(); got != "/users/3" {
		t.Errorf("CurrentPath() = %q, want %q", got, "/users/3")
	}
	if cur := r.CurrentRoute(); cur.Params["id"] != "3" {
		t.Errorf("Params[id] = %q, want %q", cur.Params["id"], "3")
	}

	r.Navigate(context.Background(), "/about")
	if got := b.Location().Pathname; got != "/app/about" {
		t.Errorf("Pathname = %q, want %q", got, "/app/about")
	}
	if diff := cmp.Diff(browser.HistoryState{Path: "/about"}, b.State()); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestHistoryBasePathSegmentBoundary(t *testing.T) {
	tests := []struct {
		location     string
		wantPath     string
		wantNotFound string
	}{
		{"/app", "/", ""},
		{"/app/users/3", "/users/3", ""},
		{"/application", "/application", "/application"},
		{"/apple/users/3", "/apple/users/3", "/apple/users/3"},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			var notFound string
			r := startRouter(t, browser.NewMemory(tt.location), func(r *Router) {
				r.Route("/", noop).Route("/users/:id", noop)
				r.NotFound(func(_ context.Context, req *Request) error {
					notFound = req.Params["path"]
					return nil
				})
			}, WithBasePath("/app"))

			if got := r.CurrentPath(); got != tt.wantPath {
				t.Errorf("CurrentPath() = %q, want %q", got, tt.wantPath)
			}
			if notFound != tt.wantNotFound {
				t.Errorf("not-found path = %q, want %q", notFound, tt.wantNotFound)
			}
		})
	}
}

func TestHashModeInitialNavigation(t *testing.T) {
	b := browser.NewMemory("/")
	counts := map[string]int{}
	startRouter(t, b, func(r *Router) {
		r.Route("/", countingHandler(counts))
	}, WithMode(ModeHash))

	if got := b.Location().Hash; got != "#/" {
		t.Errorf("Hash = %q, want %q", got, "#/")
	}
	entries, _ := b.Entries()
	if len(entries) != 1 {
		t.Errorf("len(entries) = %d, want 1", len(entries))
	}
	// The router's own hash assignment must not trigger a second run.
	if counts["/"] != 1 {
		t.Errorf("handler calls = %d, want 1", counts["/"])
	}
}

func TestHashMode(t *testing.T) {
	b := browser.NewMemory("/index.html#/users/9")
	counts := map[string]int{}
	r := startRouter(t, b, func(r *Router) {
		h := countingHandler(counts)
		r.Route("/users/:id", h).Route("/about", h)
	}, WithMode(ModeHash))

	if r.Mode() != ModeHash {
		t.Fatalf("Mode() = %q, want %q", r.Mode(), ModeHash)
	}
	if got := r.CurrentPath(); got != "/users/9" {
		t.Errorf("CurrentPath() = %q, want %q", got, "/users/9")
	}

	r.Navigate(context.Background(), "/about")
	loc := b.Location()
	if loc.Pathname != "/index.html" || loc.Hash != "#/about" {
		t.Errorf("location = %q, want /index.html#/about", loc.String())
	}
	if entries, _ := b.Entries(); len(entries) != 2 {
		t.Errorf("len(entries) = %d, want 2", len(entries))
	}

	r.Back()
	if cur := r.CurrentRoute(); cur.URL != "/users/9" {
		t.Errorf("after Back: CurrentRoute().URL = %q, want %q", cur.URL, "/users/9")
	}

	// A fragment edited outside the router navigates too.
	b.SetHash("#/users/4")
	if cur := r.CurrentRoute(); cur.Params["id"] != "4" {
		t.Errorf("after SetHash: Params[id] = %q, want %q", cur.Params["id"], "4")
	}

	want := map[string]int{"/users/9": 2, "/about": 1, "/users/4": 1}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("handler calls mismatch (-want +got):\n%s", diff)
	}
}

func TestClickInterception(t *testing.T) {
	b := browser.NewMemory("/")
	r := startRouter(t, b, func(r *Router) {
		r.Route("/", noop).Route("/about", noop)
	})

	if !b.Click("/about") {
		t.Error("in-app click was not prevented")
	}
	if cur := r.CurrentRoute(); cur.URL != "/about" {
		t.Errorf("CurrentRoute().URL = %q, want %q", cur.URL, "/about")
	}

	for _, href := range []string{"https://example.com", "http://example.com/x", "//cdn.example.com/lib.js", ""} {
		if b.Click(href) {
			t.Errorf("Click(%q) prevented, want browser default", href)
		}
	}
	want := []string{"https://example.com", "http://example.com/x", "//cdn.example.com/lib.js", ""}
	if diff := cmp.Diff(want, b.Loads()); diff != "" {
		t.Errorf("Loads mismatch (-want +got):\n%s", diff)
	}
}

func TestClickFragmentHrefIsLiteralPath(t *testing.T) {
	b := browser.NewMemory("/")
	r := startRouter(t, b, func(r *Router) {
		r.Route("/", noop).Route("/about", noop)
	}, WithMode(ModeHash))
	rec := record(r)

	// Hrefs are navigated as written; "#/about" is the path "/#/about".
	if !b.Click("#/about") {
		t.Error("fragment click was not prevented")
	}
	if cur := r.CurrentRoute(); cur.URL != "/" {
		t.Errorf("CurrentRoute().URL = %q, want %q", cur.URL, "/")
	}
	if got := b.Location().Hash; got != "#/" {
		t.Errorf("Hash = %q, want %q", got, "#/")
	}
	ev := rec.lastError()
	if ev == nil {
		t.Fatal("no route:error emitted")
	}
	if ev.Path != "#/about" {
		t.Errorf("ErrorEvent.Path = %q, want %q", ev.Path, "#/about")
	}
	if code := werrors.Code(ev.Err); code != "R001" {
		t.Errorf("error code = %q, want R001", code)
	}

	b.Click("/about")
	if got := b.Location().Hash; got != "#/about" {
		t.Errorf("Hash after path click = %q, want %q", got, "#/about")
	}
}

func TestIsExternalHref(t *testing.T) {
	tests := []struct {
		href string
		want bool
	}{
		{"/about", false},
		{"about", false},
		{"#top", false},
		{"http://example.com", true},
		{"https://example.com", true},
		{"//example.com", true},
		// Prefix match only, as browsers see it.
		{"httpbin", true},
	}
	for _, tt := range tests {
		if got := IsExternalHref(tt.href); got != tt.want {
			t.Errorf("IsExternalHref(%q) = %v, want %v", tt.href, got, tt.want)
		}
	}
}

func TestStatePath(t *testing.T) {
	tests := []struct {
		state  any
		want   string
		wantOK bool
	}{
		{browser.HistoryState{Path: "/a"}, "/a", true},
		{&browser.HistoryState{Path: "/b"}, "/b", true},
		{map[string]any{"path": "/c"}, "/c", true},
		{map[string]any{"path": 1}, "", false},
		{nil, "", false},
		{browser.HistoryState{}, "", false},
	}
	for _, tt := range tests {
		got, ok := statePath(tt.state)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("statePath(%v) = (%q, %v), want (%q, %v)", tt.state, got, ok, tt.want, tt.wantOK)
		}
	}
}
