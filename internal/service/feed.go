package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gidi_ingest/internal/domain"
	"gidi_ingest/internal/metrics"
	"gidi_ingest/internal/source/places"
)

const (
	OriginLive   = "live"
	OriginCached = "cached"

	defaultNewsLimit   = 10
	defaultVenueLimit  = 20
	defaultSearchLimit = 10
	defaultLocation    = "Lagos, Nigeria"
)

var ErrMissingQuery = errors.New("query is required")

// Feed is what an on-demand request gets back: live data when the run
// worked, otherwise the most recent stored rows.
type Feed[T any] struct {
	Items  []T
	Origin string
	// Reason explains why cached data was served.
	Reason string
}

type SearchRequest struct {
	Query    string
	Category string
	Location string
	Limit    int
}

type SearchResult struct {
	Local     []domain.Venue `json:"local"`
	Live      []places.Place `json:"live"`
	Query     string         `json:"query"`
	Timestamp time.Time      `json:"timestamp"`
}

// FeedService serves the on-demand entry points on top of the ingestion
// jobs.
type FeedService struct {
	news    *NewsService
	venues  *VenueService
	places  PlaceSearcher
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewFeedService(news *NewsService, venues *VenueService, places PlaceSearcher, m *metrics.Metrics, logger *slog.Logger) *FeedService {
	return &FeedService{
		news:    news,
		venues:  venues,
		places:  places,
		metrics: m,
		logger:  logger.With("component", "feed"),
		now:     time.Now,
	}
}

func (f *FeedService) News(ctx context.Context, filter domain.ListFilter) (*Feed[domain.Article], error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultNewsLimit
	}

	items, summary, err := f.news.Live(ctx, filter)
	reason := fallbackReason(summary, err)
	if reason == "" {
		f.metrics.ObserveFeed(domain.KindNews, OriginLive)
		return &Feed[domain.Article]{Items: items, Origin: OriginLive}, nil
	}

	f.logger.Warn("serving cached news", "reason", reason)
	cached, err := f.news.Cached(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("read cached news after %q: %w", reason, err)
	}
	f.metrics.ObserveFeed(domain.KindNews, OriginCached)
	return &Feed[domain.Article]{Items: cached, Origin: OriginCached, Reason: reason}, nil
}

func (f *FeedService) Venues(ctx context.Context, filter domain.ListFilter) (*Feed[domain.Venue], error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultVenueLimit
	}

	items, summary, err := f.venues.Live(ctx, filter)
	reason := fallbackReason(summary, err)
	if reason == "" {
		f.metrics.ObserveFeed(domain.KindVenue, OriginLive)
		return &Feed[domain.Venue]{Items: items, Origin: OriginLive}, nil
	}

	f.logger.Warn("serving cached venues", "reason", reason)
	cached, err := f.venues.Cached(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("read cached venues after %q: %w", reason, err)
	}
	f.metrics.ObserveFeed(domain.KindVenue, OriginCached)
	return &Feed[domain.Venue]{Items: cached, Origin: OriginCached, Reason: reason}, nil
}

// fallbackReason is empty when live data can be served. A run whose every
// source failed has nothing live to offer.
func fallbackReason(summary *domain.RunSummary, err error) string {
	if err != nil {
		return err.Error()
	}
	if summary != nil && len(summary.Sources) > 0 && summary.SourceFailures() == len(summary.Sources) {
		return summary.Sources[0].Error
	}
	return ""
}

// SearchVenues matches stored venues and, when a points-of-interest source
// is configured, queries it live. A failed live lookup leaves Live empty.
func (f *FeedService) SearchVenues(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrMissingQuery
	}
	if req.Location == "" {
		req.Location = defaultLocation
	}
	if req.Limit <= 0 {
		req.Limit = defaultSearchLimit
	}

	local, err := f.venues.SearchLocal(ctx, query, req.Category, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("search stored venues: %w", err)
	}

	res := &SearchResult{
		Local:     local,
		Live:      []places.Place{},
		Query:     query,
		Timestamp: f.now().UTC(),
	}
	if f.places == nil {
		return res, nil
	}

	live, err := f.places.Search(ctx, query, req.Category, req.Location)
	if err != nil {
		f.logger.Warn("live place search failed", "query", query, "error", err)
		return res, nil
	}
	res.Live = live
	return res, nil
}
