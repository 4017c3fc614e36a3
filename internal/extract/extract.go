// Package extract enriches entries whose feed summary is too short by
// fetching the article page and pulling title and summary text out of its
// structure. Every failure yields "no enrichment" rather than an error:
// enrichment is best effort and must never abort an item.
package extract

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/nordnytt/aggregator/internal/logger"
)

// pageTimeout bounds the article page fetch.
const pageTimeout = 15 * time.Second

// maxBodyBytes limits how much of a page is read.
const maxBodyBytes = 5 * 1024 * 1024

// minContentBlockLength is the minimum text length, in runes, for a
// structural block to count as article content.
const minContentBlockLength = 200

// maxSummaryLength truncates extracted summaries.
const maxSummaryLength = 1000

// contentSelectors are probed in priority order for the main article text.
var contentSelectors = []string{
	"article", "main", ".post", ".entry-content", ".article-content", `[role="main"]`,
}

// RobotsPolicy gates direct page fetches.
type RobotsPolicy interface {
	IsAllowed(ctx context.Context, rawURL string) bool
}

// Extractor fetches and extracts article page content.
type Extractor struct {
	client    *http.Client
	robots    RobotsPolicy
	userAgent string
	log       logger.Interface
}

// NewExtractor creates an Extractor. Page fetches are checked against the
// robots policy first.
func NewExtractor(client *http.Client, robots RobotsPolicy, userAgent string, log logger.Interface) *Extractor {
	return &Extractor{
		client:    client,
		robots:    robots,
		userAgent: userAgent,
		log:       log,
	}
}

// Enrich fetches the article page and returns an extracted title and
// summary. Either or both may be empty: robots disallowed the fetch, the
// fetch failed, or the page had nothing usable.
func (e *Extractor) Enrich(ctx context.Context, rawURL string) (title, summary string) {
	if !e.robots.IsAllowed(ctx, rawURL) {
		e.log.Debug("page fetch disallowed by robots", "url", rawURL)
		return "", ""
	}

	body, ok := e.fetchPage(ctx, rawURL)
	if !ok {
		return "", ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		e.log.Debug("failed to parse article page", "url", rawURL, "error", err)
		return "", ""
	}

	return extractTitle(doc), truncate(extractSummary(doc), maxSummaryLength)
}

// fetchPage GETs the page, accepting only HTTP 200.
func (e *Extractor) fetchPage(ctx context.Context, rawURL string) (string, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, pageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return "", false
	}

	req.Header.Set("User-Agent", e.userAgent)

	resp, doErr := e.client.Do(req)
	if doErr != nil {
		e.log.Debug("article page fetch failed", "url", rawURL, "error", doErr)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if readErr != nil {
		return "", false
	}

	return string(body), true
}

// extractTitle prefers the Open Graph title over the page title.
func extractTitle(doc *goquery.Document) string {
	if ogTitle, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if trimmed := strings.TrimSpace(ogTitle); trimmed != "" {
			return trimmed
		}
	}

	return strings.TrimSpace(doc.Find("title").First().Text())
}

// extractSummary prefers meta descriptions, then the first sufficiently
// long structural content block, then all paragraph text concatenated.
func extractSummary(doc *goquery.Document) string {
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		if trimmed := strings.TrimSpace(desc); trimmed != "" {
			return trimmed
		}
	}

	if ogDesc, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		if trimmed := strings.TrimSpace(ogDesc); trimmed != "" {
			return trimmed
		}
	}

	for _, selector := range contentSelectors {
		text := normalizeText(doc.Find(selector).First().Text())
		if utf8.RuneCountInString(text) > minContentBlockLength {
			return text
		}
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if text := normalizeText(sel.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	return strings.Join(paragraphs, " ")
}

// normalizeText collapses whitespace runs into single spaces.
func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// truncate cuts the text to at most limit runes.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	return string(runes[:limit])
}
