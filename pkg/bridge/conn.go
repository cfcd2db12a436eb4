package bridge

import (
	"errors"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/wayfinder/pkg/browser"
	"github.com/vango-dev/wayfinder/pkg/routepath"
	"github.com/vango-dev/wayfinder/pkg/router"
)

// ErrClosed is returned when sending on a closed connection.
var ErrClosed = errors.New("bridge: connection closed")

type listener struct {
	id int
	fn browser.Listener
}

// Conn is the server side of one browser tab. It implements browser.Browser:
// history and fragment changes are sent to the tab as frames, and frames
// reported by the tab are dispatched as browser events.
//
// Conn mirrors the tab's location. Changes the server makes are applied to
// the mirror immediately; changes made in the tab arrive with the frame that
// reports them.
type Conn struct {
	id     string
	ws     *websocket.Conn
	opts   Options
	logger *slog.Logger

	mu        sync.Mutex
	loc       browser.Location
	listeners []listener
	nextID    int
	closers   []func()

	send      chan Frame
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(id string, ws *websocket.Conn, loc browser.Location, opts Options) *Conn {
	return &Conn{
		id:     id,
		ws:     ws,
		opts:   opts,
		logger: opts.Logger.With("conn_id", id),
		loc:    loc,
		send:   make(chan Frame, opts.SendQueue),
		done:   make(chan struct{}),
	}
}

// ID returns the connection's unique id.
func (c *Conn) ID() string {
	return c.id
}

// Logger returns the connection-scoped logger.
func (c *Conn) Logger() *slog.Logger {
	return c.logger
}

// Location implements browser.Browser.
func (c *Conn) Location() browser.Location {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loc
}

// PushState implements browser.Browser.
func (c *Conn) PushState(state any, url string) {
	c.setLocation(browser.ParseLocation(url))
	c.trySend(Frame{Type: FramePush, URL: url, State: state})
}

// ReplaceState implements browser.Browser.
func (c *Conn) ReplaceState(state any, url string) {
	c.setLocation(browser.ParseLocation(url))
	c.trySend(Frame{Type: FrameReplace, URL: url, State: state})
}

// SetHash implements browser.Browser. The tab answers with a hashchange frame.
func (c *Conn) SetHash(hash string) {
	c.assignHash(FrameHash, hash)
}

// ReplaceHash implements browser.Browser.
func (c *Conn) ReplaceHash(hash string) {
	c.assignHash(FrameHashReplace, hash)
}

func (c *Conn) assignHash(t FrameType, hash string) {
	hash = normalizeHash(hash)

	c.mu.Lock()
	if c.loc.Hash == hash {
		c.mu.Unlock()
		return
	}
	c.loc.Hash = hash
	c.mu.Unlock()

	c.trySend(Frame{Type: t, Hash: hash})
}

// Back implements browser.Browser.
func (c *Conn) Back() { c.trySend(Frame{Type: FrameBack}) }

// Forward implements browser.Browser.
func (c *Conn) Forward() { c.trySend(Frame{Type: FrameForward}) }

// Go implements browser.Browser.
func (c *Conn) Go(delta int) {
	if delta == 0 {
		return
	}
	c.trySend(Frame{Type: FrameGo, Delta: delta})
}

// Listen implements browser.Browser.
func (c *Conn) Listen(fn browser.Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listener{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// Render sends an HTML fragment for the tab to display.
func (c *Conn) Render(html string) error {
	return c.Send(Frame{Type: FrameRender, HTML: html})
}

// Send queues a frame. It blocks while the send queue is full.
func (c *Conn) Send(f Frame) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- f:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

func (c *Conn) trySend(f Frame) {
	if err := c.Send(f); err != nil {
		c.logger.Debug("frame dropped", "type", string(f.Type), "error", err)
	}
}

func (c *Conn) sendError(err error) {
	c.trySend(Frame{Type: FrameError, Message: err.Error()})
}

// OnClose registers fn to run once when the connection closes.
func (c *Conn) OnClose(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closers = append(c.closers, fn)
}

// Done is closed when the connection closes.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close closes the connection. Queued frames are flushed before the socket
// is closed. Close is idempotent.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		closers := c.closers
		c.closers = nil
		c.mu.Unlock()

		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		c.logger.Debug("connection closed")
	})
	return nil
}

func (c *Conn) setLocation(loc browser.Location) {
	c.mu.Lock()
	c.loc = loc
	c.mu.Unlock()
}

// readLoop reads frames until the socket fails or the tab disconnects.
func (c *Conn) readLoop() {
	defer c.Close()

	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
	})

	for {
		c.ws.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))

		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.logger.Error("read error", "error", err)
			}
			return
		}

		f, err := Decode(msg)
		if err != nil {
			c.logger.Warn("frame decode error", "error", err)
			c.sendError(err)
			continue
		}
		c.handleFrame(f)
	}
}

// handleFrame applies a client frame to the mirror and dispatches the event.
func (c *Conn) handleFrame(f Frame) {
	switch f.Type {
	case FramePopState, FrameHashChange:
		loc, err := sanitizeLocation(f.Location())
		if err != nil {
			c.logger.Warn("rejected location", "type", string(f.Type), "error", err)
			c.sendError(err)
			return
		}
		c.setLocation(loc)

		ev := &browser.Event{Type: browser.EventHashChange}
		if f.Type == FramePopState {
			ev = &browser.Event{Type: browser.EventPopState, State: f.State}
		}
		c.dispatch(ev)

	case FrameClick:
		href, err := sanitizeHref(f.Href)
		if err != nil {
			c.logger.Warn("rejected click", "href", f.Href, "error", err)
			c.sendError(err)
			return
		}
		c.dispatch(&browser.Event{Type: browser.EventClick, Href: href})

	case FrameHello:
		c.logger.Warn("duplicate hello ignored")

	default:
		err := protocolError("frame type " + string(f.Type) + " is server-only")
		c.logger.Warn("unexpected frame", "type", string(f.Type))
		c.sendError(err)
	}
}

// dispatch delivers ev to every listener, recovering listener panics.
func (c *Conn) dispatch(ev *browser.Event) {
	c.mu.Lock()
	ls := append([]listener(nil), c.listeners...)
	c.mu.Unlock()

	for _, l := range ls {
		c.deliver(l.fn, ev)
	}
}

func (c *Conn) deliver(fn browser.Listener, ev *browser.Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("listener panic",
				"event", ev.Type.String(),
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn(ev)
}

// writeLoop owns all writes to the socket. It sends queued frames and
// heartbeat pings, and closes the socket once the connection is done.
func (c *Conn) writeLoop() {
	ticker := time.NewTicker(c.opts.HeartbeatInterval)
	defer ticker.Stop()
	defer c.ws.Close()

	for {
		select {
		case f := <-c.send:
			if err := c.write(f); err != nil {
				c.logger.Error("write error", "error", err)
				c.Close()
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("ping error", "error", err)
				c.Close()
				return
			}

		case <-c.done:
			c.flush()
			deadline := time.Now().Add(c.opts.WriteTimeout)
			c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		}
	}
}

// flush writes whatever is still queued, without blocking.
func (c *Conn) flush() {
	for {
		select {
		case f := <-c.send:
			if err := c.write(f); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Conn) write(f Frame) error {
	data, err := Encode(f)
	if err != nil {
		c.logger.Error("frame encode error", "type", string(f.Type), "error", err)
		return nil
	}
	c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// sanitizeLocation canonicalizes a location reported by the tab.
func sanitizeLocation(loc browser.Location) (browser.Location, error) {
	path, _, err := routepath.Canonicalize(loc.Pathname)
	if err != nil {
		return browser.Location{}, protocolError("invalid pathname").Wrap(err)
	}
	loc.Pathname = path
	if loc.Search != "" && !strings.HasPrefix(loc.Search, "?") {
		loc.Search = "?" + loc.Search
	}
	loc.Hash = normalizeHash(loc.Hash)
	return loc, nil
}

// sanitizeHref validates absolute in-app click targets. External and
// relative hrefs are passed through; the router decides what to do with them.
func sanitizeHref(href string) (string, error) {
	if !strings.HasPrefix(href, "/") || router.IsExternalHref(href) {
		return href, nil
	}
	clean, err := routepath.ValidateNavPath(href)
	if err != nil {
		return "", protocolError("invalid href").Wrap(err)
	}
	return clean, nil
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

var _ browser.Browser = (*Conn)(nil)
