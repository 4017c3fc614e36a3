// Package feed retrieves candidate article entries for a domain, first via
// well-known syndication feed paths and then by scraping the homepage for
// article links.
package feed

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// httpPrefix is the scheme prefix used to decide if a GUID is a usable URL.
const httpPrefix = "http"

// Entry is one candidate article discovered for a domain.
type Entry struct {
	URL       string
	Title     string
	Summary   string
	Author    string
	Published *time.Time
	// Raw is an opaque snapshot of the original feed item, stored with the
	// article for audit.
	Raw json.RawMessage
}

// entriesFromFeed converts parsed feed items to entries. Items without a
// usable link are silently skipped.
func entriesFromFeed(parsed *gofeed.Feed) []Entry {
	entries := make([]Entry, 0, len(parsed.Items))

	for _, item := range parsed.Items {
		link := extractLink(item)
		if link == "" {
			continue
		}

		entries = append(entries, Entry{
			URL:       link,
			Title:     strings.TrimSpace(item.Title),
			Summary:   strings.TrimSpace(itemSummary(item)),
			Author:    itemAuthor(item),
			Published: itemPublished(item),
			Raw:       marshalRaw(item),
		})
	}

	return entries
}

// extractLink returns the best available URL from a feed item, preferring
// the explicit link and falling back to a GUID that looks like an HTTP URL.
func extractLink(item *gofeed.Item) string {
	if item.Link != "" {
		return item.Link
	}

	if strings.HasPrefix(item.GUID, httpPrefix) {
		return item.GUID
	}

	return ""
}

// itemSummary prefers the item description, falling back to full content.
func itemSummary(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}

	return item.Content
}

// itemAuthor returns the first author name, if any.
func itemAuthor(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}

	for _, author := range item.Authors {
		if author != nil && author.Name != "" {
			return author.Name
		}
	}

	return ""
}

// itemPublished prefers the published timestamp over the updated one.
func itemPublished(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}

	return item.UpdatedParsed
}

// marshalRaw snapshots the feed item as JSON. A marshal failure just drops
// the snapshot; it is audit data, not pipeline input.
func marshalRaw(item *gofeed.Item) json.RawMessage {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil
	}

	return raw
}
