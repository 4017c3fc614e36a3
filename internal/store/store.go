// Package store persists accepted articles. The storage layer, not the
// in-memory near-duplicate index, is what enforces the canonical-URL
// uniqueness invariant: the index is approximate and lost on restart.
package store

import (
	"context"
	"time"

	"github.com/nordnytt/aggregator/internal/article"
)

// InsertResult reports the outcome of an insert attempt.
type InsertResult int

const (
	// Accepted means the article was queued for persistence.
	Accepted InsertResult = iota
	// RejectedDuplicateKey means an article with the same canonical URL
	// already exists; the attempt is ignored, never fatal.
	RejectedDuplicateKey
)

// Store accepts articles during a pipeline run and commits them as one
// unit at the end of the run.
type Store interface {
	// InsertIfAbsent queues the article unless its canonical URL is
	// already present.
	InsertIfAbsent(ctx context.Context, a *article.Article) (InsertResult, error)
	// Commit makes all queued inserts durable.
	Commit(ctx context.Context) error
}

// ListFilter restricts and paginates article listings. Date bounds apply
// to the published-at timestamp; articles without one never match a
// bounded query.
type ListFilter struct {
	SourceDomains []string
	Topic         string
	Language      string
	Query         string // substring match on title or summary
	DateFrom      *time.Time
	DateTo        *time.Time
	Page          int
	PageSize      int
}

// Reader lists stored articles for the query API.
type Reader interface {
	List(ctx context.Context, filter ListFilter) ([]*article.Article, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
	// Categories returns the distinct topics present in the store, sorted.
	Categories(ctx context.Context) ([]string, error)
	// Sources returns the distinct source domains present in the store,
	// sorted.
	Sources(ctx context.Context) ([]string, error)
}
