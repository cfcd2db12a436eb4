package bridge

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// SessionFunc is called once per connection, after the hello frame, with a
// context that is cancelled when the connection closes. It typically binds
// a router to the connection and starts it. Returning an error closes the
// connection.
type SessionFunc func(ctx context.Context, c *Conn) error

// Handler upgrades HTTP requests to bridge connections.
type Handler struct {
	session  SessionFunc
	opts     Options
	upgrader websocket.Upgrader
	logger   *slog.Logger

	active atomic.Int64
}

// NewHandler creates a Handler that runs session for every connection.
func NewHandler(session SessionFunc, opts Options) *Handler {
	opts = opts.withDefaults()
	return &Handler{
		session: session,
		opts:    opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     opts.CheckOrigin,
		},
		logger: opts.Logger.With("component", "bridge"),
	}
}

// Active returns the number of open connections.
func (h *Handler) Active() int {
	return int(h.active.Load())
}

// ServeHTTP implements http.Handler. It returns when the connection closes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	ws.SetReadLimit(h.opts.MaxMessageSize)
	ws.SetReadDeadline(time.Now().Add(h.opts.HandshakeTimeout))

	// Wait for hello
	_, msg, err := ws.ReadMessage()
	if err != nil {
		h.logger.Error("handshake read failed", "error", err)
		ws.Close()
		return
	}
	hello, err := Decode(msg)
	if err == nil && hello.Type != FrameHello {
		err = protocolError("expected hello, got " + string(hello.Type))
	}
	if err != nil {
		h.rejectHandshake(ws, err)
		return
	}
	loc, err := sanitizeLocation(hello.Location())
	if err != nil {
		h.rejectHandshake(ws, err)
		return
	}

	c := newConn(uuid.NewString(), ws, loc, h.opts)
	h.active.Add(1)
	defer h.active.Add(-1)
	c.logger.Info("connection opened", "location", loc.String(), "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	c.OnClose(cancel)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writeLoop()
	}()

	if err := h.session(ctx, c); err != nil {
		c.logger.Error("session setup failed", "error", err)
		c.sendError(err)
		c.Close()
		wg.Wait()
		return
	}

	c.readLoop()
	wg.Wait()
}

// rejectHandshake answers a bad handshake with an error frame and closes.
func (h *Handler) rejectHandshake(ws *websocket.Conn, err error) {
	h.logger.Warn("handshake rejected", "error", err)
	if data, encErr := Encode(Frame{Type: FrameError, Message: err.Error()}); encErr == nil {
		ws.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
		ws.WriteMessage(websocket.TextMessage, data)
	}
	ws.Close()
}
