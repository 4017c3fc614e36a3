// Package urlutil normalizes raw article URLs into a stable canonical form
// used as the deduplication and storage key.
package urlutil

import (
	"net/url"
	"path"
	"strings"
)

// canonicalScheme is the scheme every canonical URL is coerced to. The
// pipeline only ever fetches over HTTPS, so plain-HTTP links to the same
// resource must not produce a second key.
const canonicalScheme = "https"

// defaultPorts maps schemes to the port that is implied when omitted.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// Canonicalize normalizes a raw URL string: the scheme defaults to (and
// http is upgraded to) https, the host is lower-cased, default ports and
// fragments are stripped, dot segments are resolved, and query parameters
// are sorted. Returns the empty string when the input is empty or cannot
// be parsed; callers treat that as "skip this item".
//
// Canonicalize is idempotent: applying it to its own output is a no-op.
func Canonicalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if !strings.Contains(raw, "://") {
		raw = canonicalScheme + "://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return ""
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != canonicalScheme {
		return ""
	}

	parsed.Scheme = canonicalScheme
	parsed.Host = normalizeHost(parsed.Host, scheme)
	parsed.Fragment = ""
	// Work on the decoded path and drop RawPath so String() performs the
	// one and only escaping pass; cleaning the escaped form would encode
	// the percent signs again on every round trip.
	parsed.Path = normalizePath(parsed.Path)
	parsed.RawPath = ""
	parsed.RawQuery = sortQuery(parsed.RawQuery)

	return parsed.String()
}

// DomainOf returns the lower-cased host of a URL without any port, or the
// empty string when the URL cannot be parsed.
func DomainOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return strings.ToLower(parsed.Hostname())
}

// normalizeHost lower-cases the host and strips the port when it is the
// default for the original scheme.
func normalizeHost(host, scheme string) string {
	host = strings.ToLower(host)

	if idx := strings.LastIndex(host, ":"); idx != -1 {
		if host[idx+1:] == defaultPorts[scheme] || host[idx+1:] == defaultPorts[canonicalScheme] {
			host = host[:idx]
		}
	}

	return host
}

// normalizePath resolves dot segments while preserving a trailing slash.
func normalizePath(p string) string {
	if p == "" {
		return ""
	}

	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == "/" {
		cleaned = ""
	}

	if strings.HasSuffix(p, "/") && cleaned != "" && !strings.HasSuffix(cleaned, "/") {
		cleaned += "/"
	}

	return cleaned
}

// sortQuery re-encodes the query string with keys in sorted order so that
// parameter order never produces distinct canonical URLs.
func sortQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return rawQuery
	}

	return values.Encode()
}
