// Package domains loads the allowed and blocked domain lists. The lists
// are external inputs read once per pipeline run; a missing or unreadable
// list is a fatal configuration error, since the pipeline cannot make
// policy decisions without it.
package domains

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Lists holds the two domain sets for one pipeline run.
type Lists struct {
	Allowed []string
	Blocked []string
}

// FileLoader reads domain lists from JSON files (flat arrays of domain
// strings).
type FileLoader struct {
	allowedPath string
	blockedPath string
}

// NewFileLoader creates a loader for the given list file paths.
func NewFileLoader(allowedPath, blockedPath string) *FileLoader {
	return &FileLoader{
		allowedPath: allowedPath,
		blockedPath: blockedPath,
	}
}

// Load reads both lists. Domains are trimmed and lower-cased; empty
// entries are dropped.
func (l *FileLoader) Load() (*Lists, error) {
	allowed, err := readList(l.allowedPath)
	if err != nil {
		return nil, fmt.Errorf("load allowed domains: %w", err)
	}

	blocked, err := readList(l.blockedPath)
	if err != nil {
		return nil, fmt.Errorf("load blocked domains: %w", err)
	}

	return &Lists{Allowed: allowed, Blocked: blocked}, nil
}

// readList parses one JSON domain list file.
func readList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var raw []string
	if unmarshalErr := json.Unmarshal(data, &raw); unmarshalErr != nil {
		return nil, fmt.Errorf("parse %s: %w", path, unmarshalErr)
	}

	domains := make([]string, 0, len(raw))
	for _, domain := range raw {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			domains = append(domains, domain)
		}
	}

	return domains, nil
}
