package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gidi_ingest/internal/domain"
	"gidi_ingest/internal/service"
)

type handler struct {
	feeds  Feeds
	logger *slog.Logger
	now    func() time.Time
}

type fetchRequest struct {
	Category string `json:"category"`
	Limit    int    `json:"limit"`
	Location string `json:"location"`
}

type searchRequest struct {
	Query    string `json:"query"`
	Category string `json:"category"`
	Location string `json:"location"`
	Limit    int    `json:"limit"`
}

// Response is the envelope every function endpoint returns.
type Response struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data"`
	Source    string    `json:"source,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *handler) fetchNews(c *gin.Context) {
	var req fetchRequest
	if !h.bind(c, &req) {
		return
	}

	feed, err := h.feeds.News(c.Request.Context(), domain.ListFilter{Category: req.Category, Limit: req.Limit})
	if err != nil {
		h.unavailable(c, "fetch-news", err)
		return
	}
	h.feed(c, orEmpty(feed.Items), feed.Origin, feed.Reason)
}

// fetchVenues ignores location: venue sources are fixed per deployment.
func (h *handler) fetchVenues(c *gin.Context) {
	var req fetchRequest
	if !h.bind(c, &req) {
		return
	}

	feed, err := h.feeds.Venues(c.Request.Context(), domain.ListFilter{Category: req.Category, Limit: req.Limit})
	if err != nil {
		h.unavailable(c, "fetch-venues", err)
		return
	}
	h.feed(c, orEmpty(feed.Items), feed.Origin, feed.Reason)
}

func (h *handler) searchPlaces(c *gin.Context) {
	var req searchRequest
	if !h.bind(c, &req) {
		return
	}

	res, err := h.feeds.SearchVenues(c.Request.Context(), service.SearchRequest{
		Query:    req.Query,
		Category: req.Category,
		Location: req.Location,
		Limit:    req.Limit,
	})
	switch {
	case errors.Is(err, service.ErrMissingQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required"})
		return
	case err != nil:
		h.logger.Error("search-places failed", "query", req.Query, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Error: err.Error(), Timestamp: h.now().UTC()})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: res, Timestamp: h.now().UTC()})
}

// bind accepts an empty body as the zero request.
func (h *handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return false
	}
	return true
}

func (h *handler) feed(c *gin.Context, items any, origin, reason string) {
	c.JSON(http.StatusOK, Response{
		Success:   true,
		Data:      items,
		Source:    origin,
		Error:     reason,
		Timestamp: h.now().UTC(),
	})
}

func (h *handler) unavailable(c *gin.Context, endpoint string, err error) {
	h.logger.Error("no live or cached data", "endpoint", endpoint, "error", err)
	c.JSON(http.StatusServiceUnavailable, Response{
		Data:      []any{},
		Error:     err.Error(),
		Timestamp: h.now().UTC(),
	})
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
