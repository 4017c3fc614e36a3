package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/nordnytt/aggregator/internal/logger"
)

// feedPaths are the well-known feed locations probed in order.
var feedPaths = []string{"/feed", "/rss", "/rss.xml", "/atom.xml"}

// fetchTimeout bounds each feed or homepage request.
const fetchTimeout = 12 * time.Second

// maxBodyBytes limits how much of a response body is read.
const maxBodyBytes = 5 * 1024 * 1024

// Retriever discovers article entries for a domain.
type Retriever struct {
	client    *http.Client
	userAgent string
	scheme    string
	log       logger.Interface
}

// NewRetriever creates a Retriever. All requests carry the given
// identifying User-Agent.
func NewRetriever(client *http.Client, userAgent string, log logger.Interface) *Retriever {
	return &Retriever{
		client:    client,
		userAgent: userAgent,
		scheme:    "https",
		log:       log,
	}
}

// Retrieve returns candidate entries for a domain. It probes the
// well-known feed paths first; a 304 response means the feed is unchanged
// and yields zero entries without falling back. Only when no feed path
// succeeds is the homepage scraped for article links. A returned error
// means the whole domain is skipped for this run.
func (r *Retriever) Retrieve(ctx context.Context, domain string) ([]Entry, error) {
	for _, suffix := range feedPaths {
		entries, handled := r.tryFeedPath(ctx, domain, suffix)
		if handled {
			return entries, nil
		}
	}

	return r.scrapeHomepage(ctx, domain)
}

// tryFeedPath probes one candidate feed URL. The second return value
// reports whether the path conclusively handled the domain: a 304, or a
// 200 with a parseable XML feed.
func (r *Retriever) tryFeedPath(ctx context.Context, domain, suffix string) ([]Entry, bool) {
	feedURL := r.scheme + "://" + domain + suffix

	status, contentType, body, err := r.get(ctx, feedURL)
	if err != nil {
		return nil, false
	}

	if status == http.StatusNotModified {
		r.log.Debug("feed not modified", "domain", domain, "url", feedURL)
		return []Entry{}, true
	}

	if status != http.StatusOK || !looksLikeXML(contentType, body) {
		return nil, false
	}

	parsed, parseErr := gofeed.NewParser().ParseString(body)
	if parseErr != nil {
		r.log.Warn("failed to parse feed",
			"domain", domain,
			"url", feedURL,
			"error", parseErr,
		)

		return nil, false
	}

	return entriesFromFeed(parsed), true
}

// get performs a bounded GET and returns status, content type and body.
func (r *Retriever) get(ctx context.Context, rawURL string) (int, string, string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return 0, "", "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", r.userAgent)

	resp, doErr := r.client.Do(req)
	if doErr != nil {
		return 0, "", "", fmt.Errorf("fetch %s: %w", rawURL, doErr)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if readErr != nil {
		return resp.StatusCode, "", "", fmt.Errorf("read %s: %w", rawURL, readErr)
	}

	return resp.StatusCode, resp.Header.Get("Content-Type"), string(body), nil
}

// looksLikeXML reports whether a response is plausibly a syndication feed.
func looksLikeXML(contentType, body string) bool {
	if strings.Contains(contentType, "xml") {
		return true
	}

	return strings.HasPrefix(strings.TrimSpace(body), "<?xml")
}
