package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gidi_ingest/internal/domain"
	"gidi_ingest/internal/service"
)

// Feeds is the on-demand surface the handlers call into.
type Feeds interface {
	News(ctx context.Context, filter domain.ListFilter) (*service.Feed[domain.Article], error)
	Venues(ctx context.Context, filter domain.ListFilter) (*service.Feed[domain.Venue], error)
	SearchVenues(ctx context.Context, req service.SearchRequest) (*service.SearchResult, error)
}

type Config struct {
	APIKey      string
	AllowOrigin string
}

// NewRouter wires the function endpoints, health check and metrics. The API
// key, when set, guards only the function endpoints.
func NewRouter(feeds Feeds, gatherer prometheus.Gatherer, cfg Config, logger *slog.Logger) *gin.Engine {
	h := &handler{
		feeds:  feeds,
		logger: logger.With("component", "api"),
		now:    time.Now,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(h.logger))
	router.Use(corsMiddleware(cfg.AllowOrigin))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	rg := router.Group("/functions")
	rg.Use(apiKeyAuthMiddleware(cfg.APIKey))
	rg.POST("/fetch-news", h.fetchNews)
	rg.POST("/fetch-venues", h.fetchVenues)
	rg.POST("/search-places", h.searchPlaces)

	return router
}

// NewServer wraps router in an http.Server with the configured timeouts.
func NewServer(addr string, router http.Handler, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}
}

func corsMiddleware(origin string) gin.HandlerFunc {
	if origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type, x-api-key")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func apiKeyAuthMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-API-KEY") != key {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
