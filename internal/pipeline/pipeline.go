// Package pipeline drives one ingestion run: it loads the domain lists,
// retrieves candidate entries per domain, filters and classifies them,
// flags near-duplicates, and persists accepted articles in one commit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nordnytt/aggregator/internal/article"
	"github.com/nordnytt/aggregator/internal/classify"
	"github.com/nordnytt/aggregator/internal/domains"
	"github.com/nordnytt/aggregator/internal/feed"
	"github.com/nordnytt/aggregator/internal/logger"
	"github.com/nordnytt/aggregator/internal/policy"
	"github.com/nordnytt/aggregator/internal/store"
	"github.com/nordnytt/aggregator/internal/urlutil"
)

// ErrRunInProgress is returned when a run is requested while another run
// is still executing. Scheduled and manual triggers share one guard.
var ErrRunInProgress = errors.New("ingestion run already in progress")

// minSummaryLength is the summary length below which the article page is
// fetched for enrichment.
const minSummaryLength = 40

// untitledPlaceholder stands in for entries with no title at all.
const untitledPlaceholder = "(untitled)"

// Stats are the per-run counters returned to the caller. SkippedBlocked
// counts both policy and language rejections; the split is visible in
// debug logs only.
type Stats struct {
	Seen           int `json:"seen"`
	Saved          int `json:"saved"`
	SkippedBlocked int `json:"skipped_blocked"`
	Dupes          int `json:"dupes"`
}

// Retriever yields candidate entries for a domain.
type Retriever interface {
	Retrieve(ctx context.Context, domain string) ([]feed.Entry, error)
}

// Enricher extracts title and summary from an article page.
type Enricher interface {
	Enrich(ctx context.Context, rawURL string) (title, summary string)
}

// DuplicateChecker flags near-duplicate content and registers new content
// atomically.
type DuplicateChecker interface {
	CheckAndRegister(key, text string) (isDuplicate bool, signatureHex string)
}

// ListLoader supplies the allowed and blocked domain lists for a run.
type ListLoader interface {
	Load() (*domains.Lists, error)
}

// Pipeline wires the ingestion components together.
type Pipeline struct {
	lists     ListLoader
	retriever Retriever
	enricher  Enricher
	dupes     DuplicateChecker
	articles  store.Store
	log       logger.Interface
	running   atomic.Bool
}

// New creates a Pipeline.
func New(
	lists ListLoader,
	retriever Retriever,
	enricher Enricher,
	dupes DuplicateChecker,
	articles store.Store,
	log logger.Interface,
) *Pipeline {
	return &Pipeline{
		lists:     lists,
		retriever: retriever,
		enricher:  enricher,
		dupes:     dupes,
		articles:  articles,
		log:       log,
	}
}

// Running reports whether a run is currently executing.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// Run executes one full ingestion pass over all allowed domains and
// returns the run counters. Individual domain failures are logged and
// skipped; only a missing domain list or a failed commit aborts the run.
// Overlapping invocations are rejected with ErrRunInProgress.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	if !p.running.CompareAndSwap(false, true) {
		return Stats{}, ErrRunInProgress
	}
	defer p.running.Store(false)

	return p.run(ctx)
}

// RunDetached starts an ingestion run in the background. The single-flight
// slot is claimed before returning, so the caller knows immediately
// whether the run started; done receives the outcome when it finishes.
func (p *Pipeline) RunDetached(ctx context.Context, done func(Stats, error)) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}

	go func() {
		stats, err := p.run(ctx)
		// Release the slot before reporting so a follow-up trigger from
		// the callback can start a fresh run.
		p.running.Store(false)
		done(stats, err)
	}()

	return nil
}

// run executes the ingestion pass. Callers hold the single-flight slot.
func (p *Pipeline) run(ctx context.Context) (Stats, error) {
	log := p.log.With("run_id", uuid.NewString())
	started := time.Now()

	lists, err := p.lists.Load()
	if err != nil {
		return Stats{}, fmt.Errorf("run: %w", err)
	}

	filter := policy.NewFilter(lists.Blocked)

	var stats Stats
	for _, domain := range lists.Allowed {
		entries, retrieveErr := p.retriever.Retrieve(ctx, domain)
		if retrieveErr != nil {
			log.Warn("domain fetch failed, skipping for this run",
				"domain", domain,
				"error", retrieveErr,
			)

			continue
		}

		for i := range entries {
			p.processEntry(ctx, log, filter, domain, &entries[i], &stats)
		}
	}

	if commitErr := p.articles.Commit(ctx); commitErr != nil {
		return stats, fmt.Errorf("run commit: %w", commitErr)
	}

	log.Info("ingestion run finished",
		"duration", time.Since(started),
		"seen", stats.Seen,
		"saved", stats.Saved,
		"skipped_blocked", stats.SkippedBlocked,
		"dupes", stats.Dupes,
	)

	return stats, nil
}

// processEntry runs one entry through the filter chain, updating counters.
// Every rejection moves straight to the next entry; nothing is retried.
func (p *Pipeline) processEntry(
	ctx context.Context,
	log logger.Interface,
	filter *policy.Filter,
	srcDomain string,
	entry *feed.Entry,
	stats *Stats,
) {
	canonical := urlutil.Canonicalize(entry.URL)
	if canonical == "" {
		// Unusable link; skipped without counting.
		return
	}

	stats.Seen++

	entryDomain := urlutil.DomainOf(canonical)
	if entryDomain != srcDomain && filter.IsBlocked(entryDomain) {
		stats.SkippedBlocked++
		return
	}

	if filter.IsBlocked(srcDomain) {
		stats.SkippedBlocked++
		return
	}

	title := strings.TrimSpace(entry.Title)
	summary := strings.TrimSpace(entry.Summary)

	lang := classify.DetectLanguage(title, summary)
	if !classify.IsAcceptedLanguage(lang) {
		stats.SkippedBlocked++
		log.Debug("language rejected",
			"url", canonical,
			"language", lang,
		)

		return
	}

	topic := classify.Categorize(title, summary)

	if utf8.RuneCountInString(summary) < minSummaryLength {
		pageTitle, pageText := p.enricher.Enrich(ctx, canonical)
		if pageTitle != "" && title == "" {
			title = pageTitle
		}

		if pageText != "" && utf8.RuneCountInString(summary) < minSummaryLength {
			summary = pageText
		}
	}

	isDupe, signature := p.dupes.CheckAndRegister(canonical, title+"\n"+summary)
	if isDupe {
		stats.Dupes++
		return
	}

	art := buildArticle(canonical, srcDomain, title, summary, lang, topic, signature, entry)

	result, insertErr := p.articles.InsertIfAbsent(ctx, art)
	if insertErr != nil {
		log.Error("failed to queue article",
			"url", canonical,
			"error", insertErr,
		)

		return
	}

	if result == store.RejectedDuplicateKey {
		// Already stored in an earlier run; treat as a duplicate, not an error.
		stats.Dupes++
		return
	}

	stats.Saved++
}

// buildArticle assembles the persisted entity from an accepted entry.
func buildArticle(
	canonical, srcDomain, title, summary, lang, topic, signature string,
	entry *feed.Entry,
) *article.Article {
	if title == "" {
		title = untitledPlaceholder
	}

	art := &article.Article{
		URL:          canonical,
		CanonicalURL: canonical,
		SourceDomain: srcDomain,
		SourceName:   srcDomain,
		Title:        title,
		PublishedAt:  entry.Published,
		Language:     lang,
		Topic:        topic,
		Raw:          entry.Raw,
		Signature:    signature,
		CreatedAt:    time.Now().UTC(),
	}

	if summary != "" {
		art.Summary = &summary
	}

	if entry.Author != "" {
		author := entry.Author
		art.Author = &author
	}

	return art
}
