package router

import (
	"context"
	"strings"
	"sync"

	"github.com/vango-dev/wayfinder/pkg/browser"
)

// urlBinding keeps the address bar and the router in sync for one mode.
type urlBinding interface {
	// currentPath reads the route path from the browser location.
	currentPath() string

	// update writes href to the address bar.
	update(href string, replace bool)

	// accept reports whether a popstate/hashchange event should trigger a
	// navigation, and to which path.
	accept(ev *browser.Event) (path string, ok bool)
}

// historyBinding represents routes as pushState URLs under basePath.
type historyBinding struct {
	browser  browser.Browser
	basePath string
}

func (h *historyBinding) currentPath() string {
	loc := h.browser.Location()
	path := loc.Pathname
	if h.basePath != "" && (path == h.basePath || strings.HasPrefix(path, h.basePath+"/")) {
		path = strings.TrimPrefix(path, h.basePath)
	}
	if path == "" {
		path = "/"
	}
	return path + loc.Search
}

func (h *historyBinding) update(href string, replace bool) {
	state := browser.HistoryState{Path: href}
	url := h.basePath + href
	if replace {
		h.browser.ReplaceState(state, url)
		return
	}
	h.browser.PushState(state, url)
}

func (h *historyBinding) accept(ev *browser.Event) (string, bool) {
	if ev.Type != browser.EventPopState {
		return "", false
	}
	if path, ok := statePath(ev.State); ok {
		return path, true
	}
	return h.currentPath(), true
}

// statePath extracts the route path from a popstate state object.
func statePath(state any) (string, bool) {
	switch s := state.(type) {
	case browser.HistoryState:
		return s.Path, s.Path != ""
	case *browser.HistoryState:
		if s != nil && s.Path != "" {
			return s.Path, true
		}
	case map[string]any:
		if p, ok := s["path"].(string); ok && p != "" {
			return p, true
		}
	}
	return "", false
}

// hashBinding represents routes in the URL fragment.
type hashBinding struct {
	browser browser.Browser

	mu sync.Mutex
	// expected is the fragment the router assigned last; the hashchange it
	// produces is not a user navigation and is ignored once.
	expected string
}

func (h *hashBinding) currentPath() string {
	path := strings.TrimPrefix(h.browser.Location().Hash, "#")
	if path == "" {
		return "/"
	}
	return path
}

func (h *hashBinding) update(href string, replace bool) {
	hash := "#" + href
	if h.browser.Location().Hash == hash {
		return
	}

	h.mu.Lock()
	h.expected = hash
	h.mu.Unlock()

	if replace {
		h.browser.ReplaceHash(hash)
		return
	}
	h.browser.SetHash(hash)
}

func (h *hashBinding) accept(ev *browser.Event) (string, bool) {
	if ev.Type != browser.EventHashChange {
		return "", false
	}

	hash := h.browser.Location().Hash
	h.mu.Lock()
	self := h.expected != "" && h.expected == hash
	h.expected = ""
	h.mu.Unlock()
	if self {
		return "", false
	}
	return h.currentPath(), true
}

// handleBrowserEvent is the single listener the router binds on Start.
func (r *Router) handleBrowserEvent(ev *browser.Event) {
	if ev.Type == browser.EventClick {
		r.interceptClick(ev)
		return
	}

	path, ok := r.binding.accept(ev)
	if !ok {
		return
	}
	r.logger.Debug("browser navigation", "event", ev.Type.String(), "path", path)
	r.Navigate(r.eventContext(), path, WithReplace())
}

func (r *Router) eventContext() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.baseCtx == nil {
		return context.Background()
	}
	return r.baseCtx
}
