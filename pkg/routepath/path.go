// Package routepath holds the string-level helpers the router is built on:
// path normalization, segment splitting and decoding, query parsing, and
// path building from patterns.
//
// None of these functions touch router state. They are safe for concurrent use.
package routepath

import (
	"net/url"
	"sort"
	"strings"
)

// Normalize ensures a leading "/" and strips a single trailing "/" unless the
// path is exactly "/". The empty string normalizes to "/".
//
// Normalize is idempotent for paths without repeated trailing slashes:
//
//	Normalize("/a/b/") == Normalize("/a/b") == "/a/b"
//	Normalize("/")     == "/"
func Normalize(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return path
}

// SplitPathAndQuery splits input at the first "?".
// The query is returned without the leading "?".
func SplitPathAndQuery(input string) (path, query string) {
	path, query, _ = strings.Cut(input, "?")
	return path, query
}

// Segments splits a path into its non-empty "/"-delimited segments.
func Segments(path string) []string {
	parts := strings.Split(path, "/")
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// IsParam reports whether a pattern segment is a named parameter (":name").
func IsParam(segment string) bool {
	return strings.HasPrefix(segment, ":")
}

// IsWildcard reports whether a pattern segment is the "*" wildcard.
func IsWildcard(segment string) bool {
	return segment == "*"
}

// ParamNames returns the parameter names of a pattern in order of appearance.
// The pattern is split on "/" as-is; every segment starting with ":"
// contributes its name without the colon.
func ParamNames(pattern string) []string {
	var names []string
	for _, seg := range strings.Split(pattern, "/") {
		if IsParam(seg) {
			names = append(names, seg[1:])
		}
	}
	return names
}

// HasWildcard reports whether any segment of pattern is "*".
func HasWildcard(pattern string) bool {
	for _, seg := range Segments(pattern) {
		if IsWildcard(seg) {
			return true
		}
	}
	return false
}

// DecodeParam decodes a single path segment bound to a parameter.
func DecodeParam(segment string) (string, error) {
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	return decoded, nil
}

// ParseQuery parses a raw query string (without "?") into a flat map.
//
// Pairs are separated by "&" and split at the first "=". Keys and values are
// decoded exactly once with form semantics ("+" is a space). A piece with a
// malformed escape keeps its raw text. When a key repeats, the last value wins.
func ParseQuery(raw string) map[string]string {
	query := make(map[string]string)
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		query[decodeQueryComponent(key)] = decodeQueryComponent(value)
	}
	return query
}

func decodeQueryComponent(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

// EncodeQuery encodes query with keys in sorted order.
// An empty or nil map encodes to "".
func EncodeQuery(query map[string]string) string {
	if len(query) == 0 {
		return ""
	}
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(query[k]))
	}
	return b.String()
}

// BuildPath substitutes ":name" segments of pattern with path-escaped values
// from params and appends the encoded query.
//
// Tokens without a value in params are left as the literal ":name".
//
//	BuildPath("/users/:id", map[string]string{"id": "7"}, map[string]string{"tab": "posts"})
//	// "/users/7?tab=posts"
func BuildPath(pattern string, params, query map[string]string) string {
	parts := strings.Split(pattern, "/")
	for i, seg := range parts {
		if !IsParam(seg) {
			continue
		}
		if value, ok := params[seg[1:]]; ok {
			parts[i] = url.PathEscape(value)
		}
	}
	path := strings.Join(parts, "/")
	if qs := EncodeQuery(query); qs != "" {
		path += "?" + qs
	}
	return path
}
