package bridge

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vango-dev/wayfinder/internal/errors"
	"github.com/vango-dev/wayfinder/pkg/browser"
)

func TestDecode(t *testing.T) {
	f, err := Decode([]byte(`{"t":"popstate","pathname":"/a","search":"?x=1","state":{"path":"/a?x=1"}}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if f.Type != FramePopState {
		t.Errorf("Type = %q, want %q", f.Type, FramePopState)
	}
	want := browser.Location{Pathname: "/a", Search: "?x=1"}
	if diff := cmp.Diff(want, f.Location()); diff != "" {
		t.Errorf("Location mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"path": "/a?x=1"}, f.State); diff != "" {
		t.Errorf("State mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `hello`},
		{"unknown type", `{"t":"teleport"}`},
		{"missing type", `{"href":"/x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			if code := errors.Code(err); code != "B001" {
				t.Errorf("Decode(%s) code = %q, want B001 (err = %v)", tt.input, code, err)
			}
		})
	}
}

func TestEncodeRequiresType(t *testing.T) {
	if _, err := Encode(Frame{}); err == nil {
		t.Error("Encode(Frame{}) should fail")
	}

	data, err := Encode(Frame{Type: FrameGo, Delta: -2})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if got := string(data); got != `{"t":"go","delta":-2}` {
		t.Errorf("Encode() = %s, want {\"t\":\"go\",\"delta\":-2}", got)
	}
}

func TestFrameLocationDefaultsToRoot(t *testing.T) {
	f := Frame{Type: FrameHello, Hash: "#/about"}
	if got := f.Location().String(); got != "/#/about" {
		t.Errorf("Location() = %q, want %q", got, "/#/about")
	}
}

func TestSanitizeLocation(t *testing.T) {
	got, err := sanitizeLocation(browser.Location{Pathname: "/a//b/./c/", Search: "q=1", Hash: "x"})
	if err != nil {
		t.Fatalf("sanitizeLocation() error = %v", err)
	}
	want := browser.Location{Pathname: "/a/b/c", Search: "?q=1", Hash: "#x"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sanitizeLocation() mismatch (-want +got):\n%s", diff)
	}

	if _, err := sanitizeLocation(browser.Location{Pathname: "/../etc"}); errors.Code(err) != "B001" {
		t.Errorf("sanitizeLocation(/../etc) error = %v, want B001", err)
	}
}

func TestSanitizeHref(t *testing.T) {
	tests := []struct {
		href    string
		want    string
		wantErr bool
	}{
		{href: "/about", want: "/about"},
		{href: "/math//vectors/", want: "/math/vectors"},
		{href: "about", want: "about"},
		{href: "https://example.com", want: "https://example.com"},
		{href: `/a\b`, wantErr: true},
		{href: "/a/../../b", wantErr: true},
	}
	for _, tt := range tests {
		got, err := sanitizeHref(tt.href)
		if (err != nil) != tt.wantErr {
			t.Errorf("sanitizeHref(%q) error = %v, wantErr %v", tt.href, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("sanitizeHref(%q) = %q, want %q", tt.href, got, tt.want)
		}
	}
}

func browserRoot() browser.Location {
	return browser.Location{Pathname: "/"}
}
