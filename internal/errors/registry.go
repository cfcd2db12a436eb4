package errors

import "sync"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

var (
	registryMu sync.RWMutex

	// registry maps error codes to their templates.
	registry = map[string]ErrorTemplate{
		// Routing (R001-R099)
		"R001": {
			Category: CategoryRouting,
			Message:  "Route not found",
			Detail:   "No registered route matches the path and no not-found handler is registered.",
			DocURL:   "https://vango.dev/wayfinder/errors/R001",
		},
		"R002": {
			Category: CategoryRouting,
			Message:  "Malformed parameter encoding",
			Detail:   "A path segment bound to a route parameter contains an invalid percent escape.",
			DocURL:   "https://vango.dev/wayfinder/errors/R002",
		},
		"R003": {
			Category: CategoryRouting,
			Message:  "Navigation panicked",
			Detail:   "A guard, handler or hook panicked during navigation. The panic was recovered.",
			DocURL:   "https://vango.dev/wayfinder/errors/R003",
		},
		"R004": {
			Category: CategoryRouting,
			Message:  "Router destroyed",
			Detail:   "The router was destroyed and no longer accepts navigations.",
			DocURL:   "https://vango.dev/wayfinder/errors/R004",
		},

		// Configuration (E120-E159)
		"E120": {
			Category: CategoryConfig,
			Message:  "Invalid configuration",
			Detail:   "The configuration file could not be read or parsed.",
			DocURL:   "https://vango.dev/wayfinder/errors/E120",
		},
		"E141": {
			Category: CategoryConfig,
			Message:  "Configuration file not found",
			Detail:   "No wayfinder.json was found in the directory.",
			DocURL:   "https://vango.dev/wayfinder/errors/E141",
		},
		"E150": {
			Category: CategoryConfig,
			Message:  "Invalid router mode",
			Detail:   "The router mode must be \"history\" or \"hash\".",
			DocURL:   "https://vango.dev/wayfinder/errors/E150",
		},

		// Manifest (M001-M099)
		"M001": {
			Category: CategoryManifest,
			Message:  "Manifest unreadable",
			Detail:   "The page manifest could not be read from its source.",
			DocURL:   "https://vango.dev/wayfinder/errors/M001",
		},
		"M002": {
			Category: CategoryManifest,
			Message:  "Manifest invalid",
			Detail:   "The page manifest could not be decoded or contains invalid pages.",
			DocURL:   "https://vango.dev/wayfinder/errors/M002",
		},
		"M003": {
			Category: CategoryManifest,
			Message:  "Unsupported manifest source",
			Detail:   "Manifests are loaded from .json, .yaml, .yml or .toml files, locally or from s3://bucket/key.",
			DocURL:   "https://vango.dev/wayfinder/errors/M003",
		},

		// Bridge protocol (B001-B099)
		"B001": {
			Category: CategoryProtocol,
			Message:  "Bridge protocol error",
			Detail:   "A bridge frame could not be decoded or had an unknown type.",
			DocURL:   "https://vango.dev/wayfinder/errors/B001",
		},
	}
)

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registryMu.Lock()
	defer registryMu.Unlock()

	registry[code] = template
}
