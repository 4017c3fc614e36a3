package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// homepageLinkSelector matches the structural elements that usually carry
// article links on a news homepage.
const homepageLinkSelector = "article a[href], h2 a[href], .post a[href]"

// maxHomepageLinks caps how many candidate links are taken from one
// homepage.
const maxHomepageLinks = 30

// scrapeHomepage fetches the domain's homepage and extracts candidate
// article links. Used only when no feed path succeeded.
func (r *Retriever) scrapeHomepage(ctx context.Context, domain string) ([]Entry, error) {
	base := r.scheme + "://" + domain

	status, _, body, err := r.get(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("homepage fetch: %w", err)
	}

	if status != http.StatusOK {
		return nil, fmt.Errorf("homepage fetch: unexpected status %d for %s", status, base)
	}

	doc, parseErr := goquery.NewDocumentFromReader(strings.NewReader(body))
	if parseErr != nil {
		return nil, fmt.Errorf("homepage parse: %w", parseErr)
	}

	baseURL, urlErr := url.Parse(base)
	if urlErr != nil {
		return nil, fmt.Errorf("homepage base url: %w", urlErr)
	}

	var entries []Entry

	doc.Find(homepageLinkSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}

		link := resolveLink(baseURL, href)
		if link == "" {
			return true
		}

		entries = append(entries, Entry{
			URL:   link,
			Title: strings.TrimSpace(sel.Text()),
		})

		return len(entries) < maxHomepageLinks
	})

	r.log.Debug("homepage scraped",
		"domain", domain,
		"links", len(entries),
	)

	return entries, nil
}

// resolveLink makes an absolute URL from a homepage href.
func resolveLink(base *url.URL, href string) string {
	if strings.HasPrefix(href, httpPrefix) {
		return href
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return base.ResolveReference(ref).String()
}
