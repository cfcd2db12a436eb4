package browser

import (
	"strings"
	"sync"
)

type entry struct {
	loc   Location
	state any
}

type listener struct {
	id int
	fn Listener
}

// Memory is an in-process Browser backed by a history stack.
//
// It follows the browser rules the router depends on: PushState and
// ReplaceState never fire popstate, fragment changes fire hashchange, and
// moving through the stack fires popstate with the target entry's state.
// Events are dispatched synchronously after the internal lock is released,
// so listeners may call back into the browser.
type Memory struct {
	mu        sync.Mutex
	entries   []entry
	index     int
	listeners []listener
	nextID    int
	loads     []string
}

// NewMemory creates a browser whose only history entry is url.
func NewMemory(url string) *Memory {
	return &Memory{
		entries: []entry{{loc: ParseLocation(url)}},
	}
}

// Location implements Browser.
func (m *Memory) Location() Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[m.index].loc
}

// State returns the history state of the current entry.
func (m *Memory) State() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[m.index].state
}

// PushState implements Browser.
func (m *Memory) PushState(state any, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.push(entry{loc: ParseLocation(url), state: state})
}

// ReplaceState implements Browser.
func (m *Memory) ReplaceState(state any, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.index] = entry{loc: ParseLocation(url), state: state}
}

// SetHash implements Browser.
func (m *Memory) SetHash(hash string) {
	hash = normalizeHash(hash)

	m.mu.Lock()
	cur := m.entries[m.index].loc
	if cur.Hash == hash {
		m.mu.Unlock()
		return
	}
	next := cur
	next.Hash = hash
	m.push(entry{loc: next})
	m.mu.Unlock()

	m.dispatch(&Event{Type: EventHashChange})
}

// ReplaceHash implements Browser.
func (m *Memory) ReplaceHash(hash string) {
	hash = normalizeHash(hash)

	m.mu.Lock()
	cur := &m.entries[m.index]
	if cur.loc.Hash == hash {
		m.mu.Unlock()
		return
	}
	cur.loc.Hash = hash
	cur.state = nil
	m.mu.Unlock()

	m.dispatch(&Event{Type: EventHashChange})
}

// Back implements Browser.
func (m *Memory) Back() { m.Go(-1) }

// Forward implements Browser.
func (m *Memory) Forward() { m.Go(1) }

// Go implements Browser. Moving outside the stack, or by zero, does nothing.
func (m *Memory) Go(delta int) {
	m.mu.Lock()
	target := m.index + delta
	if delta == 0 || target < 0 || target >= len(m.entries) {
		m.mu.Unlock()
		return
	}
	prev := m.entries[m.index]
	m.index = target
	next := m.entries[target]
	m.mu.Unlock()

	m.dispatch(&Event{Type: EventPopState, State: next.state})
	if prev.loc.Hash != next.loc.Hash {
		m.dispatch(&Event{Type: EventHashChange})
	}
}

// Listen implements Browser.
func (m *Memory) Listen(fn Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, listener{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// Click simulates a click on an anchor with the given href. When no listener
// prevents the default action the click is recorded as a full page load and
// returned as false.
func (m *Memory) Click(href string) (prevented bool) {
	ev := &Event{Type: EventClick, Href: href}
	m.dispatch(ev)
	if ev.DefaultPrevented() {
		return true
	}
	m.mu.Lock()
	m.loads = append(m.loads, href)
	m.mu.Unlock()
	return false
}

// Loads returns the hrefs of clicks that fell through to the browser.
func (m *Memory) Loads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loads...)
}

// Entries returns a copy of the history stack and the active index.
func (m *Memory) Entries() ([]Location, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	locs := make([]Location, len(m.entries))
	for i, e := range m.entries {
		locs[i] = e.loc
	}
	return locs, m.index
}

// ListenerCount returns the number of registered listeners.
func (m *Memory) ListenerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

// push truncates forward entries and appends e. Callers hold m.mu.
func (m *Memory) push(e entry) {
	m.entries = append(m.entries[:m.index+1], e)
	m.index = len(m.entries) - 1
}

func (m *Memory) dispatch(ev *Event) {
	m.mu.Lock()
	ls := append([]listener(nil), m.listeners...)
	m.mu.Unlock()

	for _, l := range ls {
		l.fn(ev)
	}
}

func normalizeHash(hash string) string {
	if hash == "" || hash == "#" {
		return ""
	}
	if !strings.HasPrefix(hash, "#") {
		return "#" + hash
	}
	return hash
}

var _ Browser = (*Memory)(nil)
