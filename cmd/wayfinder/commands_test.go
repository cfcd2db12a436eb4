package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vango-dev/wayfinder/internal/config"
	"github.com/vango-dev/wayfinder/internal/errors"
)

// execute runs the CLI with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildPathCmd(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"build-path", "/users/:id", "id=7"}, "/users/7\n"},
		{[]string{"build-path", "/astronomy/:body", "body=mars", "--query", "tab=moons", "-q", "a=1"}, "/astronomy/mars?a=1&tab=moons\n"},
		{[]string{"build-path", "/users/:id/posts/:post", "id=1"}, "/users/1/posts/:post\n"},
	}

	for _, tt := range tests {
		got, err := execute(t, tt.args...)
		if err != nil {
			t.Fatalf("%v: error = %v", tt.args, err)
		}
		if got != tt.want {
			t.Errorf("%v = %q, want %q", tt.args, got, tt.want)
		}
	}

	if _, err := execute(t, "build-path", "/users/:id", "id"); err == nil {
		t.Error("build-path with a bare key succeeded")
	}
}

func TestResolveCmd(t *testing.T) {
	out, err := execute(t, "resolve", "/math/vectors/?dim=3")
	if err != nil {
		t.Fatalf("resolve error = %v", err)
	}

	var got resolution
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output %q is not JSON: %v", out, err)
	}
	want := resolution{
		Pattern: "/math/:topic",
		URL:     "/math/vectors",
		Href:    "/math/vectors?dim=3",
		Params:  map[string]string{"topic": "vectors"},
		Query:   map[string]string{"dim": "3"},
		Options: map[string]any{"title": "math", "section": "math"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resolve mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveCmdManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.toml")
	data := "[[pages]]\npath = \"/guides/:name\"\ntitle = \"Guide\"\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "resolve", "/guides/setup", "--manifest", path)
	if err != nil {
		t.Fatalf("resolve error = %v", err)
	}
	if !strings.Contains(out, `"pattern": "/guides/:name"`) {
		t.Errorf("output %q does not name the pattern", out)
	}

	_, err = execute(t, "resolve", "/elsewhere", "--manifest", path)
	if code := errors.Code(err); code != "R001" {
		t.Errorf("resolve(no match) code = %q, want R001", code)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if out != version+"\n" {
		t.Errorf("version --short = %q, want %q", out, version+"\n")
	}
}

func TestDriveCmd(t *testing.T) {
	cfg := config.New()
	cfg.Metrics.Enabled = false
	_, wsURL := startApp(t, newApp(cfg, nil, quietLogger()))

	out, err := execute(t, "drive", wsURL, "--start", "/math/vectors", "/astronomy/venus", "https://example.com", "back")
	if err != nil {
		t.Fatalf("drive error = %v", err)
	}

	for _, want := range []string{
		"/math/vectors -> /math/vectors",
		"/astronomy/venus -> /astronomy/venus",
		"hottest planet",
		"https://example.com -> external, not followed",
		"back -> /math/vectors",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("drive output missing %q:\n%s", want, out)
		}
	}
}

func TestLoadConfigFlags(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(`{"router": {"mode": "hash"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(serveFlags{configDir: dir, addr: ":9999", basePath: "/app"})
	if err != nil {
		t.Fatalf("loadConfig error = %v", err)
	}
	if cfg.Router.Mode != "hash" || cfg.Server.Addr != ":9999" || cfg.Router.BasePath != "/app" {
		t.Errorf("cfg = mode %q addr %q base %q", cfg.Router.Mode, cfg.Server.Addr, cfg.Router.BasePath)
	}

	_, err = loadConfig(serveFlags{mode: "memory"})
	if code := errors.Code(err); code != "E150" {
		t.Errorf("loadConfig(bad mode) code = %q, want E150", code)
	}
}

func TestInitDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("WAYFINDER_TEST_DOTENV=loaded\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WAYFINDER_TEST_DOTENV", "")
	os.Unsetenv("WAYFINDER_TEST_DOTENV")

	if err := initDotEnv(path); err != nil {
		t.Fatalf("initDotEnv error = %v", err)
	}
	if got := os.Getenv("WAYFINDER_TEST_DOTENV"); got != "loaded" {
		t.Errorf("WAYFINDER_TEST_DOTENV = %q, want %q", got, "loaded")
	}
	if err := initDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("initDotEnv(missing) = %v, want nil", err)
	}
}
