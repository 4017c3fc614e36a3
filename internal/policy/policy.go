// Package policy decides whether a source domain may be ingested. A domain
// is rejected when it appears on the configured block list or matches one of
// the fixed mainstream-outlet patterns. Allow-listing is enforced upstream:
// the pipeline only ever iterates the configured allowed domains.
package policy

import (
	"regexp"
	"strings"
)

// mainstreamPatterns match well-known mainstream outlets that are always
// excluded, regardless of the configured lists.
var mainstreamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:vg|nrk|dagbladet|aftenposten|tv2)\.no`),
	regexp.MustCompile(`(?:bbc|cnn|reuters|apnews|nytimes|guardian)\.com`),
}

// Filter holds the block list for a single pipeline run.
type Filter struct {
	blocked map[string]struct{}
}

// NewFilter builds a Filter from the blocked-domain list. Entries are
// matched case-insensitively and exactly.
func NewFilter(blocked []string) *Filter {
	set := make(map[string]struct{}, len(blocked))
	for _, domain := range blocked {
		set[strings.ToLower(strings.TrimSpace(domain))] = struct{}{}
	}

	return &Filter{blocked: set}
}

// IsBlocked reports whether the domain is on the block list or matches a
// mainstream-outlet pattern.
func (f *Filter) IsBlocked(domain string) bool {
	domain = strings.ToLower(domain)

	if _, ok := f.blocked[domain]; ok {
		return true
	}

	for _, pattern := range mainstreamPatterns {
		if pattern.MatchString(domain) {
			return true
		}
	}

	return false
}
