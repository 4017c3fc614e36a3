// Package robots provides robots.txt compliance checking with per-host
// caching. The checker deliberately fails open: any failure to retrieve or
// parse a robots policy is treated as permission to fetch. Feed retrieval
// is not robots-gated; only direct article-page fetches consult this
// checker.
package robots

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// defaultCacheTTL is how long a fetched robots.txt is reused per host.
const defaultCacheTTL = 24 * time.Hour

// robotsTxtPath is the well-known path for robots.txt files.
const robotsTxtPath = "/robots.txt"

// fetchTimeout bounds a single robots.txt request; a slow robots endpoint
// must not hold up article fetching.
const fetchTimeout = 10 * time.Second

// maxBodyBytes limits the size of robots.txt responses we will read.
const maxBodyBytes = 512 * 1024

// Checker checks and caches robots.txt rules per host.
type Checker struct {
	httpClient *http.Client
	userAgent  string
	cache      map[string]*cacheEntry // keyed by host
	mu         sync.RWMutex
	cacheTTL   time.Duration
}

// cacheEntry stores the parsed robots.txt data and metadata for a host.
type cacheEntry struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
	allowAll  bool // robots.txt missing, non-2xx, or unparseable
}

// NewChecker creates a robots checker using the given client and crawling
// identity. A zero cacheTTL selects the default of 24 hours.
func NewChecker(httpClient *http.Client, userAgent string, cacheTTL time.Duration) *Checker {
	if cacheTTL == 0 {
		cacheTTL = defaultCacheTTL
	}

	return &Checker{
		httpClient: httpClient,
		userAgent:  userAgent,
		cache:      make(map[string]*cacheEntry),
		cacheTTL:   cacheTTL,
	}
}

// IsAllowed reports whether the configured crawling identity may fetch the
// given URL according to the host's robots.txt. Unparseable URLs and any
// retrieval failure yield true: availability wins over strictness here, so
// do not change this to fail closed.
func (c *Checker) IsAllowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return true
	}

	host := strings.ToLower(parsed.Host)

	entry := c.getOrFetchEntry(ctx, host, parsed.Scheme)
	if entry.allowAll {
		return true
	}

	return entry.data.TestAgent(parsed.Path, c.userAgent)
}

// getOrFetchEntry returns a cached entry if fresh, otherwise fetches
// robots.txt for the host.
func (c *Checker) getOrFetchEntry(ctx context.Context, host, scheme string) *cacheEntry {
	if entry, ok := c.getCachedEntry(host); ok {
		return entry
	}

	return c.fetchAndCache(ctx, host, scheme)
}

// getCachedEntry returns a cached entry if it exists and is not stale.
func (c *Checker) getCachedEntry(host string) (*cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.cache[host]
	if !ok || time.Since(entry.fetchedAt) > c.cacheTTL {
		return nil, false
	}

	return entry, true
}

// fetchAndCache fetches robots.txt for the host and caches the result.
// Fetch failures cache an allow-all entry.
func (c *Checker) fetchAndCache(ctx context.Context, host, scheme string) *cacheEntry {
	if scheme == "" {
		scheme = "https"
	}

	body, statusCode, err := c.doFetch(ctx, scheme+"://"+host+robotsTxtPath)

	var entry *cacheEntry
	if err != nil {
		entry = &cacheEntry{fetchedAt: time.Now(), allowAll: true}
	} else {
		entry = buildEntry(body, statusCode)
	}

	c.mu.Lock()
	c.cache[host] = entry
	c.mu.Unlock()

	return entry
}

// doFetch performs the HTTP GET request for a robots.txt URL.
func (c *Checker) doFetch(ctx context.Context, robotsURL string) ([]byte, int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return nil, 0, err
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, err
	}

	return body, resp.StatusCode, nil
}

// buildEntry parses a robots.txt response. Only 2xx responses are parsed;
// all others become allow-all entries.
func buildEntry(body []byte, statusCode int) *cacheEntry {
	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return &cacheEntry{fetchedAt: time.Now(), allowAll: true}
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return &cacheEntry{fetchedAt: time.Now(), allowAll: true}
	}

	return &cacheEntry{data: data, fetchedAt: time.Now()}
}
