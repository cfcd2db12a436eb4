package clientdist

import _ "embed"

// WayfinderJS is the thin client script for the bridge.
//
// It is served by `wayfinder serve` at "/_wayfinder/client.js".
//
//go:embed wayfinder.js
var WayfinderJS []byte
