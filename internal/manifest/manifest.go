// Package manifest loads page manifests: a list of routes with a title and
// an HTML body each, registered on a router without writing Go handlers.
//
// A manifest is JSON, YAML or TOML, picked by file extension, and lives on
// disk or in S3:
//
//	pages:
//	  - path: /
//	    title: Home
//	    body: <h1>Welcome</h1>
//	  - path: /astronomy/:body
//	    title: Astronomy
//	    body: <h1>{body}</h1>
//	notFound:
//	  title: Lost
//	  body: <p>No page at {path}</p>
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/vango-dev/wayfinder/internal/errors"
	"github.com/vango-dev/wayfinder/pkg/routepath"
	"gopkg.in/yaml.v3"
)

// Page is one manifest entry.
type Page struct {
	// Path is the route pattern. Ignored for the not-found page.
	Path string `json:"path" yaml:"path" toml:"path"`

	Title string `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`

	// Body is an HTML fragment. "{name}" placeholders are replaced with the
	// escaped route parameter of that name.
	Body string `json:"body,omitempty" yaml:"body,omitempty" toml:"body,omitempty"`

	// Options become the route options. "title" is added from Title.
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty" toml:"options,omitempty"`
}

// Manifest is a decoded page manifest.
type Manifest struct {
	Pages    []Page `json:"pages" yaml:"pages" toml:"pages"`
	NotFound *Page  `json:"notFound,omitempty" yaml:"notFound,omitempty" toml:"notFound,omitempty"`
}

// Format is a manifest encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf picks the format from the extension of name.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", errors.New("M003").
			WithDetailf("Cannot tell the format of %q", name)
	}
}

// Parse decodes data, choosing the format from the extension of name, and
// validates the result. Unknown fields are rejected.
func Parse(name string, data []byte) (*Manifest, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}

	var m Manifest
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&m)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&m)
	case FormatTOML:
		var md toml.MetaData
		md, err = toml.Decode(string(data), &m)
		if err == nil {
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				err = fmt.Errorf("unknown field %q", undecoded[0].String())
			}
		}
	}
	if err != nil {
		return nil, errors.New("M002").
			WithDetailf("Failed to decode %s: %v", name, err).
			Wrap(err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that every page has an absolute path and that no path is
// listed twice.
func (m *Manifest) Validate() error {
	seen := make(map[string]int, len(m.Pages))
	for i, p := range m.Pages {
		if !strings.HasPrefix(p.Path, "/") {
			return errors.New("M002").
				WithDetailf("Page %d has path %q; paths must start with \"/\"", i, p.Path)
		}
		norm := routepath.Normalize(p.Path)
		if j, dup := seen[norm]; dup {
			return errors.New("M002").
				WithDetailf("Pages %d and %d both use path %q", j, i, norm)
		}
		seen[norm] = i
	}
	return nil
}

// Expand replaces "{name}" placeholders in body with escaped values from
// params. Unknown placeholders are left as is.
func Expand(body string, params map[string]string) string {
	if len(params) == 0 || !strings.Contains(body, "{") {
		return body
	}
	pairs := make([]string, 0, 2*len(params))
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", html.EscapeString(v))
	}
	return strings.NewReplacer(pairs...).Replace(body)
}
