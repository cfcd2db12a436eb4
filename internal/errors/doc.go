// Package errors provides coded, actionable errors for Wayfinder.
//
// Every error carries a stable code (e.g. "R001") that maps to a registered
// template with a category, a short message and a longer explanation:
//
//	err := errors.New("R001").
//	    WithDetail("no route matches /nope and no not-found handler is registered").
//	    WithSuggestion("Register a fallback with r.NotFound(handler)")
//
//	fmt.Println(err.Format())
//	// ERROR R001: Route not found
//	//
//	//   no route matches /nope and no not-found handler is registered
//	//
//	//   Hint: Register a fallback with r.NotFound(handler)
//
// # Code Ranges
//
//   - R001-R099: routing and navigation
//   - E120-E159: configuration
//   - M001-M099: page manifests
//   - B001-B099: bridge protocol
//
// Errors wrap their cause, so errors.Is and errors.As from the standard
// library see through them.
package errors
