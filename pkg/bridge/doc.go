// Package bridge connects a router running on the server to a real browser
// tab over a websocket.
//
// The browser side runs the thin client (client/dist/wayfinder.js). It
// reports its location, history moves, fragment changes and in-app link
// clicks as JSON frames. The server side wraps the socket in a Conn, which
// implements browser.Browser, so a router.Router can be bound to it exactly
// as it is bound to the in-memory browser:
//
//	h := bridge.NewHandler(func(ctx context.Context, c *bridge.Conn) error {
//	    r := router.New(c, router.WithMode(router.ModeHash))
//	    r.Route("/", func(ctx context.Context, req *router.Request) error {
//	        return c.Render("<h1>Home</h1>")
//	    })
//	    c.OnClose(r.Destroy)
//	    return r.Start(ctx)
//	})
//	http.Handle("/_wayfinder", h)
//
// Client is the same protocol spoken from Go. It drives a browser.Memory and
// is used by tests and by `wayfinder drive`.
//
// # Frames
//
// Every frame is a JSON text message with a "t" type field.
//
//	client → server   hello, popstate, hashchange, click
//	server → client   push, replace, hash, hash-replace, back, forward, go, render, error
package bridge
