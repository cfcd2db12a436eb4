// Package browser abstracts the parts of a web browser a client-side router
// talks to: the location, the session history stack, and the popstate,
// hashchange and anchor-click events.
//
// Two implementations ship with Wayfinder: Memory, an in-process browser used
// by tests and the CLI, and bridge.Conn, which mirrors a real browser tab over
// a websocket.
package browser

import "strings"

// Location is the URL of the current history entry, split the way
// window.location splits it.
type Location struct {
	// Pathname is the path component, always starting with "/".
	Pathname string `json:"pathname"`

	// Search is the query string including the leading "?", or "".
	Search string `json:"search,omitempty"`

	// Hash is the fragment including the leading "#", or "".
	Hash string `json:"hash,omitempty"`
}

// String reassembles the location as pathname + search + hash.
func (l Location) String() string {
	return l.Pathname + l.Search + l.Hash
}

// ParseLocation splits an in-app URL ("/path?query#hash") into a Location.
// A missing path becomes "/".
func ParseLocation(url string) Location {
	var loc Location
	if i := strings.IndexByte(url, '#'); i >= 0 {
		loc.Hash = url[i:]
		url = url[:i]
	}
	if i := strings.IndexByte(url, '?'); i >= 0 {
		loc.Search = url[i:]
		url = url[:i]
	}
	if url == "" {
		url = "/"
	}
	loc.Pathname = url
	return loc
}

// HistoryState is the state object the router attaches to history entries
// it creates. It is handed back in PopState events.
type HistoryState struct {
	Path string `json:"path"`
}

// EventType identifies a browser event.
type EventType int

const (
	// EventPopState fires when the active history entry changes through
	// Back, Forward or Go.
	EventPopState EventType = iota + 1

	// EventHashChange fires when the fragment changes.
	EventHashChange

	// EventClick fires when an anchor element is clicked.
	EventClick
)

// String returns the DOM event name.
func (t EventType) String() string {
	switch t {
	case EventPopState:
		return "popstate"
	case EventHashChange:
		return "hashchange"
	case EventClick:
		return "click"
	default:
		return "unknown"
	}
}

// Event is a browser event delivered to listeners.
type Event struct {
	Type EventType

	// State is the history state of the entry that became active (popstate).
	// Entries created by the router carry a HistoryState; others carry nil.
	State any

	// Href is the raw href attribute of the clicked anchor (click).
	Href string

	prevented bool
}

// PreventDefault stops the browser's default action for a click.
func (e *Event) PreventDefault() {
	e.prevented = true
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool {
	return e.prevented
}

// Listener receives browser events. Listeners are called synchronously on the
// goroutine that produced the event and must not block for long.
type Listener func(*Event)

// Browser is the router's view of a browser window.
type Browser interface {
	// Location returns the current URL.
	Location() Location

	// PushState adds a history entry for url without firing popstate.
	PushState(state any, url string)

	// ReplaceState replaces the current history entry without firing popstate.
	ReplaceState(state any, url string)

	// SetHash assigns location.hash, creating a history entry and firing
	// hashchange when the fragment actually changes.
	SetHash(hash string)

	// ReplaceHash changes the fragment in place (location.replace), firing
	// hashchange when it actually changes.
	ReplaceHash(hash string)

	// Back, Forward and Go move through the history stack. Moving to another
	// entry fires popstate, plus hashchange when the fragment differs.
	Back()
	Forward()
	Go(delta int)

	// Listen registers fn for every event and returns a function that
	// removes it.
	Listen(fn Listener) (stop func())
}
