package routepath

import (
	"errors"
	"strings"
)

// Path validation errors.
var (
	ErrInvalidPath          = errors.New("invalid path")
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("path escapes root via ..")
)

// Canonicalize is the strict form of Normalize used on paths that arrive
// from untrusted clients (bridge frames). It collapses repeated slashes,
// removes "." segments, resolves "..", and strips the trailing slash.
//
// Backslashes, NUL bytes, malformed percent escapes and ".." above the root
// are rejected. The query, if any, is returned untouched.
func Canonicalize(input string) (path, query string, err error) {
	if input == "" {
		return "/", "", nil
	}
	path, query = SplitPathAndQuery(input)

	if strings.Contains(path, "\\") {
		return "", "", ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return "", "", ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return "", "", err
		}
	}

	var out []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(out) == 0 {
				return "", "", ErrPathEscapesRoot
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/"), query, nil
}

// ValidateNavPath canonicalizes an in-app navigation target and rejects
// absolute URLs ("http://", "https://", "//") and relative paths.
// The result keeps its query string.
func ValidateNavPath(input string) (string, error) {
	if strings.HasPrefix(input, "http://") ||
		strings.HasPrefix(input, "https://") ||
		strings.HasPrefix(input, "//") ||
		!strings.HasPrefix(input, "/") {
		return "", ErrInvalidPath
	}
	path, query, err := Canonicalize(input)
	if err != nil {
		return "", err
	}
	if query != "" {
		return path + "?" + query, nil
	}
	return path, nil
}

// validatePercentEscapes checks that every "%" is followed by two hex digits.
func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
