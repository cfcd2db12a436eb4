package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/vango-dev/wayfinder/pkg/browser"
	"github.com/vango-dev/wayfinder/pkg/router"
)

// DialOptions configures Dial.
type DialOptions struct {
	// MaxRetries bounds the number of reconnect attempts after the first
	// failed dial. Default: 5.
	MaxRetries uint64

	// InitialInterval is the first retry delay. Default: 100ms.
	InitialInterval time.Duration

	// Header is sent with the upgrade request.
	Header http.Header

	// Logger receives client logs. Default: slog.Default().
	Logger *slog.Logger
}

// Client is a headless browser tab speaking the bridge protocol. It keeps
// its history in a browser.Memory and applies the server's frames to it the
// way the JavaScript thin client applies them to window.history.
type Client struct {
	ws     *websocket.Conn
	mem    *browser.Memory
	logger *slog.Logger

	wmu sync.Mutex

	mu      sync.Mutex
	lastErr string

	renders chan string
	done    chan struct{}
	unbind  func()
}

// Dial connects to a bridge endpoint as a tab whose location is start,
// retrying with exponential backoff.
func Dial(ctx context.Context, url, start string, opts DialOptions) (*Client, error) {
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 5
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 100 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	logger := opts.Logger.With("component", "bridge-client", "url", url)

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = opts.InitialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, opts.MaxRetries), ctx)

	var ws *websocket.Conn
	err := backoff.RetryNotify(func() error {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, opts.Header)
		if err != nil {
			return err
		}
		ws = conn
		return nil
	}, policy, func(err error, wait time.Duration) {
		logger.Warn("dial failed, retrying", "error", err, "wait", wait)
	})
	if err != nil {
		return nil, fmt.Errorf("bridge: dial %s: %w", url, err)
	}

	c := &Client{
		ws:      ws,
		mem:     browser.NewMemory(start),
		logger:  logger,
		renders: make(chan string, 64),
		done:    make(chan struct{}),
	}
	c.unbind = c.mem.Listen(c.forward)

	if err := c.write(locationFrame(FrameHello, c.mem.Location())); err != nil {
		ws.Close()
		return nil, fmt.Errorf("bridge: hello: %w", err)
	}
	go c.readLoop()
	return c, nil
}

// Browser returns the client's in-memory browser.
func (c *Client) Browser() *browser.Memory {
	return c.mem
}

// Location returns the tab's current location.
func (c *Client) Location() browser.Location {
	return c.mem.Location()
}

// Click clicks a link. It reports whether the click was handled in-app;
// external links fall through to the browser.
func (c *Client) Click(href string) bool {
	return c.mem.Click(href)
}

// Back moves one entry back, as the browser's back button does.
func (c *Client) Back() { c.mem.Back() }

// Forward moves one entry forward.
func (c *Client) Forward() { c.mem.Forward() }

// NextRender waits for the next render frame.
func (c *Client) NextRender(ctx context.Context) (string, error) {
	select {
	case html := <-c.renders:
		return html, nil
	case <-c.done:
		return "", ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// LastError returns the message of the last error frame received.
func (c *Client) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Done is closed when the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close disconnects and waits for the read loop to exit.
func (c *Client) Close() error {
	c.unbind()

	c.wmu.Lock()
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.wmu.Unlock()

	err := c.ws.Close()
	<-c.done
	return err
}

// forward reports browser events to the server.
func (c *Client) forward(ev *browser.Event) {
	loc := c.mem.Location()

	var f Frame
	switch ev.Type {
	case browser.EventPopState:
		f = locationFrame(FramePopState, loc)
		f.State = ev.State
	case browser.EventHashChange:
		f = locationFrame(FrameHashChange, loc)
	case browser.EventClick:
		if ev.Href == "" || router.IsExternalHref(ev.Href) {
			return
		}
		ev.PreventDefault()
		f = Frame{Type: FrameClick, Href: ev.Href}
	default:
		return
	}

	if err := c.write(f); err != nil {
		c.logger.Warn("send failed", "type", string(f.Type), "error", err)
	}
}

func (c *Client) write(f Frame) error {
	data, err := Encode(f)
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) readLoop() {
	defer close(c.done)

	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("read error", "error", err)
			}
			return
		}
		f, err := Decode(msg)
		if err != nil {
			c.logger.Warn("frame decode error", "error", err)
			continue
		}
		c.apply(f)
	}
}

// apply performs a server frame on the in-memory browser.
func (c *Client) apply(f Frame) {
	switch f.Type {
	case FramePush:
		c.mem.PushState(f.State, f.URL)
	case FrameReplace:
		c.mem.ReplaceState(f.State, f.URL)
	case FrameHash:
		c.mem.SetHash(f.Hash)
	case FrameHashReplace:
		c.mem.ReplaceHash(f.Hash)
	case FrameBack:
		c.mem.Back()
	case FrameForward:
		c.mem.Forward()
	case FrameGo:
		c.mem.Go(f.Delta)
	case FrameRender:
		select {
		case c.renders <- f.HTML:
		default:
			c.logger.Warn("render dropped, nobody is reading")
		}
	case FrameError:
		c.mu.Lock()
		c.lastErr = f.Message
		c.mu.Unlock()
		c.logger.Warn("server error", "message", f.Message)
	default:
		c.logger.Warn("unexpected frame", "type", string(f.Type))
	}
}
