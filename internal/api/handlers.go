package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nordnytt/aggregator/internal/article"
	"github.com/nordnytt/aggregator/internal/pipeline"
	"github.com/nordnytt/aggregator/internal/store"
)

// Paginated is the envelope for list responses.
type Paginated struct {
	Items    []*article.Article `json:"items"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// Health reports service liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListArticles returns stored articles, newest first, filtered and
// paginated by query parameters. `sources` takes a comma-separated list
// of domains; `date_from` and `date_to` bound the published-at timestamp.
func (h *Handler) ListArticles(c *gin.Context) {
	filter := store.ListFilter{
		SourceDomains: splitQuery(c.Query("sources")),
		Topic:         c.Query("theme"),
		Language:      c.Query("language"),
		Query:         c.Query("q"),
		DateFrom:      timeQuery(c, "date_from"),
		DateTo:        timeQuery(c, "date_to"),
		Page:          intQuery(c, "page", 1),
		PageSize:      intQuery(c, "page_size", 20),
	}

	items, err := h.reader.List(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("failed to list articles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list articles"})

		return
	}

	total, err := h.reader.Count(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("failed to count articles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list articles"})

		return
	}

	if items == nil {
		items = []*article.Article{}
	}

	c.JSON(http.StatusOK, Paginated{
		Items:    items,
		Total:    total,
		Page:     max(filter.Page, 1),
		PageSize: filter.PageSize,
	})
}

// TriggerFetch starts an ingestion run in the background. A run already
// in progress is reported, not queued. The run slot is claimed before
// responding, so two concurrent triggers can never both get a 202.
func (h *Handler) TriggerFetch(c *gin.Context) {
	// Detached from the request context: the run outlives the response.
	err := h.runner.RunDetached(context.Background(), func(stats pipeline.Stats, runErr error) {
		if runErr != nil {
			h.log.Error("triggered ingestion run failed", "error", runErr)
			return
		}

		h.log.Info("triggered ingestion run complete",
			"seen", stats.Seen,
			"saved", stats.Saved,
			"skipped_blocked", stats.SkippedBlocked,
			"dupes", stats.Dupes,
		)
	})
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "ingestion run already in progress"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

// ListCategories returns the distinct topics present in the store.
func (h *Handler) ListCategories(c *gin.Context) {
	h.listDistinct(c, "categories", h.reader.Categories)
}

// ListSources returns the distinct source domains present in the store.
func (h *Handler) ListSources(c *gin.Context) {
	h.listDistinct(c, "sources", h.reader.Sources)
}

func (h *Handler) listDistinct(
	c *gin.Context,
	what string,
	fetch func(ctx context.Context) ([]string, error),
) {
	items, err := fetch(c.Request.Context())
	if err != nil {
		h.log.Error("failed to list "+what, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list " + what})

		return
	}

	if items == nil {
		items = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// splitQuery splits a comma-separated query parameter into its non-empty
// trimmed parts.
func splitQuery(raw string) []string {
	if raw == "" {
		return nil
	}

	var parts []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}

	return parts
}

// timeQuery parses a timestamp query parameter, accepting RFC 3339 or a
// plain date. Absent or unparseable values mean "unbounded".
func timeQuery(c *gin.Context, name string) *time.Time {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}

	return nil
}

// intQuery parses an integer query parameter, falling back on absence or
// garbage.
func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return n
}
