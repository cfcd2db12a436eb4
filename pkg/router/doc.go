// Package router implements client-side navigation for Wayfinder.
//
// The router provides:
//   - An insertion-ordered route table with ":name" parameters and "*" wildcards
//   - Path resolution with a not-found fallback
//   - Guarded navigations (BeforeEach/AfterEach) that run one at a time, with
//     later requests queued in FIFO order
//   - History-mode (pushState) and hash-mode address bar synchronization
//   - Interception of in-app link clicks
//   - route:changed and route:error events
//
// # Matching
//
// Routes are tried in registration order and the first structural match
// wins. Pattern and path are split into non-empty segments:
//
//	/users/:id      matches /users/42           Params{"id": "42"}
//	/files/*        matches /files/a/b/c        (segment counts differ, pattern has "*")
//	/files/*        does not match /files/x     (equal counts: "*" is compared literally)
//	/*/edit         matches /a/b/c/d            (a "*" anywhere loosens the count check)
//
// # Usage
//
//	b := browser.NewMemory("/")
//	r := router.New(b, router.WithMode(router.ModeHistory), router.WithBasePath("/app"))
//
//	r.Route("/users/:id", func(ctx context.Context, req *router.Request) error {
//	    return render(req.Params["id"])
//	}).NotFound(notFoundPage)
//
//	r.BeforeEach(func(ctx context.Context, t *router.Transition) (bool, error) {
//	    return loggedIn(), nil
//	})
//	r.OnError(func(ev *router.ErrorEvent) { showToast(ev.Err) })
//
//	if err := r.Start(ctx); err != nil {
//	    return err
//	}
//	r.Navigate(ctx, "/users/42", router.WithState(map[string]any{"from": "menu"}))
//
// # Concurrency
//
// All methods are safe for concurrent use. Navigate never blocks a second
// caller behind the running pipeline: the request is queued and the call
// returns. Guards, handlers and hooks may call Navigate themselves.
package router
