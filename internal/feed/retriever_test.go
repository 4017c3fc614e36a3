package feed_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nordnytt/aggregator/internal/feed"
	"github.com/nordnytt/aggregator/internal/logger"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Fixture Feed</title>
    <item>
      <title>Article One</title>
      <link>https://example.com/one</link>
      <description>First summary text.</description>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    </item>
    <item>
      <title>Article Two</title>
      <link>https://example.com/two</link>
      <description>Second summary text.</description>
    </item>
  </channel>
</rss>`

// newFeedServer starts a TLS server whose listener address doubles as the
// "domain" handed to the retriever.
func newFeedServer(t *testing.T, handler http.Handler) (*feed.Retriever, string, func()) {
	t.Helper()

	server := httptest.NewTLSServer(handler)
	domain := server.Listener.Addr().String()
	retriever := feed.NewRetriever(server.Client(), "Aggregator/1.0", logger.NewNoop())

	return retriever, domain, server.Close
}

func TestRetriever_FeedPath(t *testing.T) {
	t.Parallel()

	retriever, domain, closeServer := newFeedServer(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/feed" {
				w.Header().Set("Content-Type", "application/rss+xml")
				_, _ = w.Write([]byte(rssFixture))
				return
			}
			w.WriteHeader(http.StatusNotFound)
		}))
	defer closeServer()

	entries, err := retriever.Retrieve(context.Background(), domain)
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.URL != "https://example.com/one" || first.Title != "Article One" {
		t.Errorf("unexpected first entry: %+v", first)
	}
	if first.Summary != "First summary text." {
		t.Errorf("unexpected summary: %q", first.Summary)
	}
	if first.Published == nil {
		t.Error("expected published timestamp")
	}
	if len(first.Raw) == 0 {
		t.Error("expected raw snapshot")
	}
}

func TestRetriever_LaterFeedPathWins(t *testing.T) {
	t.Parallel()

	retriever, domain, closeServer := newFeedServer(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/feed":
				// 200 but not XML: must be skipped, not treated as a feed.
				_, _ = w.Write([]byte("<html>not a feed</html>"))
			case "/rss.xml":
				_, _ = w.Write([]byte(rssFixture))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
	defer closeServer()

	entries, err := retriever.Retrieve(context.Background(), domain)
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries from /rss.xml, got %d", len(entries))
	}
}

func TestRetriever_NotModifiedShortCircuits(t *testing.T) {
	t.Parallel()

	var homepageHit bool
	retriever, domain, closeServer := newFeedServer(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/feed":
				w.WriteHeader(http.StatusNotModified)
			case "/":
				homepageHit = true
				_, _ = w.Write([]byte("<html></html>"))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
	defer closeServer()

	entries, err := retriever.Retrieve(context.Background(), domain)
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}

	if len(entries) != 0 {
		t.Errorf("expected zero entries on 304, got %d", len(entries))
	}
	if homepageHit {
		t.Error("304 must not fall back to homepage scraping")
	}
}

func TestRetriever_HomepageFallback(t *testing.T) {
	t.Parallel()

	homepage := `<html><body>
		<article><a href="/articles/one">Story One</a></article>
		<h2><a href="https://example.com/two">Story Two</a></h2>
		<div class="post"><a href="/articles/three">Story Three</a></div>
		<a href="/ignored">Navigation link</a>
	</body></html>`

	retriever, domain, closeServer := newFeedServer(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/" {
				_, _ = w.Write([]byte(homepage))
				return
			}
			w.WriteHeader(http.StatusNotFound)
		}))
	defer closeServer()

	entries, err := retriever.Retrieve(context.Background(), domain)
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("expected 3 structural links, got %d", len(entries))
	}

	if entries[0].URL != "https://"+domain+"/articles/one" {
		t.Errorf("expected relative link resolved against domain, got %q", entries[0].URL)
	}
	if entries[1].URL != "https://example.com/two" {
		t.Errorf("expected absolute link preserved, got %q", entries[1].URL)
	}
	if entries[0].Title != "Story One" {
		t.Errorf("expected anchor text as title, got %q", entries[0].Title)
	}
}

func TestRetriever_HomepageLinkCap(t *testing.T) {
	t.Parallel()

	body := "<html><body>"
	for i := 0; i < 40; i++ {
		body += fmt.Sprintf(`<article><a href="/a/%d">Story %d</a></article>`, i, i)
	}
	body += "</body></html>"

	retriever, domain, closeServer := newFeedServer(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/" {
				_, _ = w.Write([]byte(body))
				return
			}
			w.WriteHeader(http.StatusNotFound)
		}))
	defer closeServer()

	entries, err := retriever.Retrieve(context.Background(), domain)
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}

	if len(entries) != 30 {
		t.Errorf("expected homepage links capped at 30, got %d", len(entries))
	}
}

func TestRetriever_HomepageErrorSkipsDomain(t *testing.T) {
	t.Parallel()

	retriever, domain, closeServer := newFeedServer(t, http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
	defer closeServer()

	_, err := retriever.Retrieve(context.Background(), domain)
	if err == nil {
		t.Fatal("expected error when nothing on the domain responds usefully")
	}
}
