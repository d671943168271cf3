// Package urlnorm canonicalizes URLs so that semantically equivalent inputs
// share one deduplication key.
package urlnorm

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// trackingPrefixes are matched case-insensitively against query keys.
// Matching is prefix based, so "ref" also drops keys like "refresh".
var trackingPrefixes = []string{"utm_", "utm-", "ref", "gclid", "fbclid"}

// ParseError reports an input that is not an absolute URL.
type ParseError struct {
	Raw    string
	Reason string
	Err    error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid URL %q: %s (%v)", e.Raw, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid URL %q: %s", e.Raw, e.Reason)
}

// Unwrap returns the underlying parse error, if any
func (e *ParseError) Unwrap() error {
	return e.Err
}

type queryPair struct {
	key   string
	value string
}

// Normalize returns the canonical form of raw, or a *ParseError.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", &ParseError{Raw: raw, Reason: "URL is empty"}
	}

	parsed, err := url.Parse(s)
	if err != nil {
		return "", &ParseError{Raw: s, Reason: "malformed URL", Err: err}
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", &ParseError{Raw: s, Reason: "URL must include scheme and host"}
	}

	pairs, err := parseQuery(parsed.RawQuery)
	if err != nil {
		return "", &ParseError{Raw: s, Reason: "malformed query string", Err: err}
	}

	var b strings.Builder
	b.WriteString(strings.ToLower(parsed.Scheme))
	b.WriteString("://")
	if parsed.User != nil {
		b.WriteString(parsed.User.String())
		b.WriteString("@")
	}
	b.WriteString(strings.ToLower(parsed.Host))
	b.WriteString(normalizePath(parsed.EscapedPath()))
	if query := encodeQuery(pairs); query != "" {
		b.WriteString("?")
		b.WriteString(query)
	}

	return b.String(), nil
}

// IsTrackingKey reports whether a query key is stripped during normalization.
func IsTrackingKey(key string) bool {
	lower := strings.ToLower(key)
	for _, prefix := range trackingPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

// parseQuery splits a raw query on "&" only, keeping every occurrence of a
// key in its original order.
func parseQuery(rawQuery string) ([]queryPair, error) {
	var pairs []queryPair
	for _, segment := range strings.Split(rawQuery, "&") {
		if segment == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(segment, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, err
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, err
		}
		if IsTrackingKey(key) {
			continue
		}
		pairs = append(pairs, queryPair{key: key, value: value})
	}

	slices.SortStableFunc(pairs, func(a, b queryPair) int {
		return strings.Compare(a.key, b.key)
	})
	return pairs, nil
}

func encodeQuery(pairs []queryPair) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, url.QueryEscape(p.key)+"="+url.QueryEscape(p.value))
	}
	return strings.Join(parts, "&")
}
