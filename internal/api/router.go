// Package api exposes the stored articles and the ingestion trigger over
// HTTP.
package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/nordnytt/aggregator/internal/config"
	"github.com/nordnytt/aggregator/internal/logger"
	"github.com/nordnytt/aggregator/internal/pipeline"
	"github.com/nordnytt/aggregator/internal/store"
)

// Runner starts background ingestion runs. RunDetached claims the
// single-flight slot before returning so callers learn synchronously
// whether the run started.
type Runner interface {
	RunDetached(ctx context.Context, done func(pipeline.Stats, error)) error
}

// Handler holds the dependencies shared by all endpoints.
type Handler struct {
	reader store.Reader
	runner Runner
	log    logger.Interface
}

// NewRouter builds the gin engine with all routes and middleware attached.
func NewRouter(
	cfg *config.ServerConfig,
	reader store.Reader,
	runner Runner,
	log logger.Interface,
) *gin.Engine {
	h := &Handler{
		reader: reader,
		runner: runner,
		log:    log,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))
	router.Use(CORS(cfg.AllowedOrigins))
	router.Use(RateLimit(cfg.RateLimitPerMinute))

	router.GET("/healthz", h.Health)
	router.GET("/api/articles", h.ListArticles)
	router.GET("/api/categories", h.ListCategories)
	router.GET("/api/sources", h.ListSources)
	router.POST("/api/fetch", h.TriggerFetch)

	return router
}
