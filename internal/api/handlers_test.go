package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordnytt/aggregator/internal/api"
	"github.com/nordnytt/aggregator/internal/article"
	"github.com/nordnytt/aggregator/internal/config"
	"github.com/nordnytt/aggregator/internal/logger"
	"github.com/nordnytt/aggregator/internal/pipeline"
	"github.com/nordnytt/aggregator/internal/store"
)

// stubRunner fakes background pipeline runs for handler tests. When
// release is set, a started run stays open until the channel is closed.
type stubRunner struct {
	running atomic.Bool
	calls   atomic.Int32
	release chan struct{}
}

func (r *stubRunner) RunDetached(_ context.Context, done func(pipeline.Stats, error)) error {
	if !r.running.CompareAndSwap(false, true) {
		return pipeline.ErrRunInProgress
	}

	r.calls.Add(1)

	go func() {
		defer r.running.Store(false)

		if r.release != nil {
			<-r.release
		}

		done(pipeline.Stats{Seen: 1, Saved: 1}, nil)
	}()

	return nil
}

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{
		Address:            ":0",
		AllowedOrigins:     []string{"http://localhost:8080"},
		RateLimitPerMinute: 0, // disabled unless a test opts in
	}
}

func newRouter(t *testing.T, reader store.Reader, runner api.Runner) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	return api.NewRouter(testServerConfig(), reader, runner, logger.NewNoop())
}

func seedArticles(t *testing.T, memory *store.MemoryStore, articles ...*article.Article) {
	t.Helper()

	ctx := context.Background()
	for _, a := range articles {
		result, err := memory.InsertIfAbsent(ctx, a)
		require.NoError(t, err)
		require.Equal(t, store.Accepted, result)
	}
	require.NoError(t, memory.Commit(ctx))
}

func TestHealth(t *testing.T) {
	t.Parallel()

	router := newRouter(t, store.NewMemoryStore(), &stubRunner{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListArticles_FiltersByTheme(t *testing.T) {
	t.Parallel()

	memory := store.NewMemoryStore()
	seedArticles(t, memory,
		&article.Article{
			CanonicalURL: "https://blog.example/a",
			SourceDomain: "blog.example",
			Title:        "Budget cuts announced",
			Language:     "en",
			Topic:        "economics",
			CreatedAt:    time.Now().UTC(),
		},
		&article.Article{
			CanonicalURL: "https://blog.example/b",
			SourceDomain: "blog.example",
			Title:        "New framework released",
			Language:     "en",
			Topic:        "technology",
			CreatedAt:    time.Now().UTC(),
		},
	)

	router := newRouter(t, memory, &stubRunner{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(
		http.MethodGet, "/api/articles?theme=technology", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)

	var page api.Paginated
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "New framework released", page.Items[0].Title)
}

func TestListArticles_FiltersBySourcesAndDate(t *testing.T) {
	t.Parallel()

	oldTime := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	recentTime := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	memory := store.NewMemoryStore()
	seedArticles(t, memory,
		&article.Article{
			CanonicalURL: "https://one.example/a",
			SourceDomain: "one.example",
			Title:        "Old story",
			Language:     "en",
			Topic:        "general",
			PublishedAt:  &oldTime,
			CreatedAt:    time.Now().UTC(),
		},
		&article.Article{
			CanonicalURL: "https://one.example/b",
			SourceDomain: "one.example",
			Title:        "Recent story",
			Language:     "en",
			Topic:        "general",
			PublishedAt:  &recentTime,
			CreatedAt:    time.Now().UTC(),
		},
		&article.Article{
			CanonicalURL: "https://two.example/c",
			SourceDomain: "two.example",
			Title:        "Other source",
			Language:     "en",
			Topic:        "general",
			PublishedAt:  &recentTime,
			CreatedAt:    time.Now().UTC(),
		},
	)

	router := newRouter(t, memory, &stubRunner{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(
		http.MethodGet,
		"/api/articles?sources=one.example,missing.example&date_from=2026-06-01",
		http.NoBody,
	))

	require.Equal(t, http.StatusOK, rec.Code)

	var page api.Paginated
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Recent story", page.Items[0].Title)
}

func TestListCategoriesAndSources(t *testing.T) {
	t.Parallel()

	memory := store.NewMemoryStore()
	seedArticles(t, memory,
		&article.Article{
			CanonicalURL: "https://one.example/a",
			SourceDomain: "one.example",
			Title:        "A",
			Language:     "en",
			Topic:        "politics",
			CreatedAt:    time.Now().UTC(),
		},
		&article.Article{
			CanonicalURL: "https://two.example/b",
			SourceDomain: "two.example",
			Title:        "B",
			Language:     "en",
			Topic:        "health",
			CreatedAt:    time.Now().UTC(),
		},
	)

	router := newRouter(t, memory, &stubRunner{})

	var payload struct {
		Items []string `json:"items"`
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, []string{"health", "politics"}, payload.Items)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sources", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, []string{"one.example", "two.example"}, payload.Items)
}

func TestListArticles_EmptyStoreReturnsEmptyList(t *testing.T) {
	t.Parallel()

	router := newRouter(t, store.NewMemoryStore(), &stubRunner{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/articles", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)

	var page api.Paginated
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(0), page.Total)
}

func TestListArticles_GarbagePagingFallsBack(t *testing.T) {
	t.Parallel()

	memory := store.NewMemoryStore()
	seedArticles(t, memory, &article.Article{
		CanonicalURL: "https://blog.example/a",
		SourceDomain: "blog.example",
		Title:        "Title",
		Language:     "en",
		Topic:        "general",
		CreatedAt:    time.Now().UTC(),
	})

	router := newRouter(t, memory, &stubRunner{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(
		http.MethodGet, "/api/articles?page=banana&page_size=-3", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)

	var page api.Paginated
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Page)
	require.Len(t, page.Items, 1)
}

func TestTriggerFetch_StartsRun(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}
	router := newRouter(t, store.NewMemoryStore(), runner)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/fetch", http.NoBody))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestTriggerFetch_ConflictWhileRunning(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{release: make(chan struct{})}
	router := newRouter(t, store.NewMemoryStore(), runner)
	defer close(runner.release)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/fetch", http.NoBody))
	require.Equal(t, http.StatusAccepted, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/api/fetch", http.NoBody))

	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestTriggerFetch_ConcurrentTriggersStartOneRun(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{release: make(chan struct{})}
	router := newRouter(t, store.NewMemoryStore(), runner)
	defer close(runner.release)

	const triggers = 8

	codes := make(chan int, triggers)
	var wg sync.WaitGroup
	for range triggers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/fetch", http.NoBody))
			codes <- rec.Code
		}()
	}
	wg.Wait()
	close(codes)

	accepted := 0
	for code := range codes {
		if code == http.StatusAccepted {
			accepted++
		} else {
			assert.Equal(t, http.StatusConflict, code)
		}
	}

	assert.Equal(t, 1, accepted)
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestCORS_RejectsUnknownOrigin(t *testing.T) {
	t.Parallel()

	router := newRouter(t, store.NewMemoryStore(), &stubRunner{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	req.Header.Set("Origin", "http://evil.example")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	t.Parallel()

	router := newRouter(t, store.NewMemoryStore(), &stubRunner{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	req.Header.Set("Origin", "http://localhost:8080")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:8080", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit_Exceeded(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	cfg := testServerConfig()
	cfg.RateLimitPerMinute = 2
	router := api.NewRouter(cfg, store.NewMemoryStore(), &stubRunner{}, logger.NewNoop())

	var last int
	for range 3 {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
		last = rec.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, last)
}
