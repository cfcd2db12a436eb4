package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/vango-dev/wayfinder/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "wayfinder.json"

	// DefaultAddr is the default listen address of `wayfinder serve`.
	DefaultAddr = "localhost:3000"

	// DefaultMode is the default router mode.
	DefaultMode = "history"

	// DefaultWSPath is the default bridge websocket endpoint.
	DefaultWSPath = "/_wayfinder/ws"

	// DefaultClientPath is the default URL of the embedded thin client.
	DefaultClientPath = "/_wayfinder/client.js"

	// DefaultMetricsPath is the default Prometheus endpoint.
	DefaultMetricsPath = "/metrics"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "wayfinder"
)

// Config represents the complete wayfinder.json configuration.
//
// Every field can be overridden from the environment after loading; the
// variable names are listed in the env tags.
type Config struct {
	// Name is the application name.
	Name string `json:"name,omitempty" env:"WAYFINDER_NAME"`

	// Router contains router settings.
	Router RouterConfig `json:"router,omitempty"`

	// Server contains HTTP server settings.
	Server ServerConfig `json:"server,omitempty"`

	// Manifest is a page manifest path or s3://bucket/key URL.
	// Empty serves the built-in demo routes.
	Manifest string `json:"manifest,omitempty" env:"WAYFINDER_MANIFEST"`

	// Log contains logging settings.
	Log LogConfig `json:"log,omitempty"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Tracing contains OpenTelemetry settings.
	Tracing TracingConfig `json:"tracing,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// RouterConfig contains router settings.
type RouterConfig struct {
	// Mode is "history" or "hash".
	Mode string `json:"mode,omitempty" env:"WAYFINDER_MODE"`

	// BasePath is stripped from and prepended to history-mode URLs.
	BasePath string `json:"basePath,omitempty" env:"WAYFINDER_BASE_PATH"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" env:"WAYFINDER_ADDR"`

	// WSPath is the bridge websocket endpoint.
	WSPath string `json:"wsPath,omitempty" env:"WAYFINDER_WS_PATH"`

	// ClientPath is where the thin client script is served.
	ClientPath string `json:"clientPath,omitempty" env:"WAYFINDER_CLIENT_PATH"`

	// MetricsPath is the Prometheus endpoint.
	MetricsPath string `json:"metricsPath,omitempty" env:"WAYFINDER_METRICS_PATH"`

	// AllowedOrigins restricts websocket origins. Empty allows same-origin only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" env:"WAYFINDER_ALLOWED_ORIGINS" envSeparator:","`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" env:"WAYFINDER_LOG_LEVEL"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty" env:"WAYFINDER_LOG_FORMAT"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty" env:"WAYFINDER_METRICS_ENABLED"`
	Namespace string `json:"namespace,omitempty" env:"WAYFINDER_METRICS_NAMESPACE"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool   `json:"enabled,omitempty" env:"WAYFINDER_TRACING_ENABLED"`
	TracerName string `json:"tracerName,omitempty" env:"WAYFINDER_TRACER_NAME"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Router: RouterConfig{
			Mode: DefaultMode,
		},
		Server: ServerConfig{
			Addr:        DefaultAddr,
			WSPath:      DefaultWSPath,
			ClientPath:  DefaultClientPath,
			MetricsPath: DefaultMetricsPath,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			TracerName: "wayfinder",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for wayfinder.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path and applies
// environment overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No wayfinder.json found in " + filepath.Dir(path)).
				WithSuggestion("Run 'wayfinder serve' without --config to use defaults, or create wayfinder.json")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse wayfinder.json: " + err.Error()).
			WithSuggestion("Check that wayfinder.json is valid JSON")
	}

	cfg.configPath = path
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, nil
}

// ApplyEnv overrides fields from WAYFINDER_* environment variables.
// Unset variables leave the field untouched.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return errors.New("E120").
			WithDetail("Invalid environment override: " + err.Error()).
			Wrap(err)
	}
	return nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Router.Mode == "" {
		c.Router.Mode = DefaultMode
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.WSPath == "" {
		c.Server.WSPath = DefaultWSPath
	}
	if c.Server.ClientPath == "" {
		c.Server.ClientPath = DefaultClientPath
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = DefaultMetricsPath
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = "wayfinder"
	}

	// Relative manifest paths are relative to the config file.
	if c.Manifest != "" && !strings.HasPrefix(c.Manifest, "s3://") &&
		!filepath.IsAbs(c.Manifest) && c.configPath != "" {
		c.Manifest = filepath.Join(c.Dir(), c.Manifest)
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Router.Mode {
	case "history", "hash":
	default:
		return errors.New("E150").
			WithDetailf("Got mode %q", c.Router.Mode).
			WithSuggestion(`Set "router.mode" to "history" or "hash"`)
	}
	if c.Router.BasePath != "" && !strings.HasPrefix(c.Router.BasePath, "/") {
		return errors.New("E120").
			WithDetail(`"router.basePath" must start with "/"`)
	}
	for name, p := range map[string]string{
		"server.wsPath":      c.Server.WSPath,
		"server.clientPath":  c.Server.ClientPath,
		"server.metricsPath": c.Server.MetricsPath,
	} {
		if !strings.HasPrefix(p, "/") {
			return errors.New("E120").
				WithDetailf("%q must start with \"/\", got %q", name, p)
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("E120").
			WithDetailf("Unknown log level %q", c.Log.Level).
			WithSuggestion("Use one of debug, info, warn, error")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.New("E120").
			WithDetailf("Unknown log format %q", c.Log.Format).
			WithSuggestion(`Use "text" or "json"`)
	}
	return nil
}
