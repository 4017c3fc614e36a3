package store

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nordnytt/aggregator/internal/article"
)

// MemoryStore is an in-memory Store and Reader used in tests and for
// running without a database. It mirrors the transactional behavior of the
// Postgres store: inserts are queued and only become listable on Commit,
// but uniqueness is checked against queued and committed rows alike.
type MemoryStore struct {
	mu        sync.Mutex
	nextID    int64
	byKey     map[string]struct{} // canonical URLs, committed or pending
	committed []*article.Article
	pending   []*article.Article
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		byKey:  make(map[string]struct{}),
	}
}

// InsertIfAbsent queues the article unless its canonical URL is already
// known.
func (s *MemoryStore) InsertIfAbsent(_ context.Context, a *article.Article) (InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byKey[a.CanonicalURL]; exists {
		return RejectedDuplicateKey, nil
	}

	copied := *a
	copied.ID = s.nextID
	s.nextID++

	s.byKey[a.CanonicalURL] = struct{}{}
	s.pending = append(s.pending, &copied)

	return Accepted, nil
}

// Commit makes all pending inserts visible to List and Count.
func (s *MemoryStore) Commit(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.committed = append(s.committed, s.pending...)
	s.pending = nil

	return nil
}

// List returns committed articles matching the filter, newest first.
func (s *MemoryStore) List(_ context.Context, filter ListFilter) ([]*article.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := s.filtered(filter)

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ID > matched[j].ID
	})

	page, pageSize := normalizePaging(filter.Page, filter.PageSize)

	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []*article.Article{}, nil
	}

	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}

	return matched[start:end], nil
}

// Count returns the number of committed articles matching the filter.
func (s *MemoryStore) Count(_ context.Context, filter ListFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.filtered(filter))), nil
}

// Categories returns the distinct topics of committed articles, sorted.
func (s *MemoryStore) Categories(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.distinct(func(a *article.Article) string { return a.Topic }), nil
}

// Sources returns the distinct source domains of committed articles,
// sorted.
func (s *MemoryStore) Sources(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.distinct(func(a *article.Article) string { return a.SourceDomain }), nil
}

// distinct collects the sorted distinct non-empty values of one article
// field. Callers hold the lock.
func (s *MemoryStore) distinct(field func(*article.Article) string) []string {
	seen := make(map[string]struct{})

	values := []string{}
	for _, a := range s.committed {
		v := field(a)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}

		seen[v] = struct{}{}
		values = append(values, v)
	}

	sort.Strings(values)

	return values
}

// filtered applies the list filter to committed rows. Callers hold the lock.
func (s *MemoryStore) filtered(filter ListFilter) []*article.Article {
	var matched []*article.Article

	for _, a := range s.committed {
		if len(filter.SourceDomains) > 0 && !slices.Contains(filter.SourceDomains, a.SourceDomain) {
			continue
		}
		if filter.Topic != "" && a.Topic != filter.Topic {
			continue
		}
		if filter.Language != "" && a.Language != filter.Language {
			continue
		}
		if filter.Query != "" && !matchesQuery(a, filter.Query) {
			continue
		}
		if !matchesDateRange(a, filter.DateFrom, filter.DateTo) {
			continue
		}

		matched = append(matched, a)
	}

	return matched
}

// matchesDateRange checks the published-at timestamp against optional
// bounds. Articles without a timestamp never match a bounded query.
func matchesDateRange(a *article.Article, from, to *time.Time) bool {
	if from == nil && to == nil {
		return true
	}

	if a.PublishedAt == nil {
		return false
	}

	if from != nil && a.PublishedAt.Before(*from) {
		return false
	}

	if to != nil && a.PublishedAt.After(*to) {
		return false
	}

	return true
}

// matchesQuery reports whether the query occurs in the title or summary,
// case-insensitively.
func matchesQuery(a *article.Article, query string) bool {
	query = strings.ToLower(query)

	if strings.Contains(strings.ToLower(a.Title), query) {
		return true
	}

	return a.Summary != nil && strings.Contains(strings.ToLower(*a.Summary), query)
}

// defaultPageSize caps listings when no page size is requested.
const defaultPageSize = 20

// maxPageSize bounds a requested page size.
const maxPageSize = 100

// normalizePaging clamps page and page size to sane values.
func normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}

	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return page, pageSize
}
