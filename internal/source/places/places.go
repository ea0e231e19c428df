// Package places queries a points-of-interest service for venues.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"gidi_ingest/internal/domain"
	"gidi_ingest/internal/fetch"
)

type Config struct {
	ID       string
	Name     string
	BaseURL  string
	Query    string
	Category string
	Location string
	Limit    int
}

// Place is one result of the points-of-interest service.
type Place struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Address     string   `json:"address"`
	Category    string   `json:"category"`
	Rating      float64  `json:"rating"`
	PriceRange  string   `json:"price_range"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Website     string   `json:"website_url"`
	ImageURL    string   `json:"image_url"`
	Features    []string `json:"features"`
}

type response struct {
	Results []Place `json:"results"`
}

type Source struct {
	cfg    Config
	client fetch.Getter
	logger *slog.Logger
}

func New(cfg Config, client fetch.Getter, logger *slog.Logger) *Source {
	if cfg.Location == "" {
		cfg.Location = "Lagos, Nigeria"
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 20
	}
	return &Source{cfg: cfg, client: client, logger: logger.With("source", cfg.ID)}
}

func (s *Source) ID() string   { return s.cfg.ID }
func (s *Source) Name() string { return s.cfg.Name }

func (s *Source) Fetch(ctx context.Context) ([]domain.Candidate, error) {
	places, err := s.Search(ctx, s.cfg.Query, s.cfg.Category, s.cfg.Location)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Candidate, 0, len(places))
	for _, p := range places {
		out = append(out, s.candidate(p))
	}
	return out, nil
}

// Search runs an ad-hoc query against the service.
func (s *Source) Search(ctx context.Context, query, category, location string) ([]Place, error) {
	q := url.Values{}
	q.Set("query", query)
	if category != "" {
		q.Set("category", category)
	}
	if location == "" {
		location = s.cfg.Location
	}
	q.Set("location", location)

	sep := "?"
	if strings.Contains(s.cfg.BaseURL, "?") {
		sep = "&"
	}
	resp, err := s.client.Get(ctx, s.cfg.BaseURL+sep+q.Encode(), map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSourceUnavailable, s.cfg.ID, err)
	}

	var r response
	if err := json.Unmarshal(resp.Body, &r); err != nil {
		return nil, fmt.Errorf("%w: %s: decode response: %w", domain.ErrSourceUnavailable, s.cfg.ID, err)
	}
	if len(r.Results) > s.cfg.Limit {
		r.Results = r.Results[:s.cfg.Limit]
	}

	s.logger.Debug("places search", "query", query, "results", len(r.Results))
	return r.Results, nil
}

func (s *Source) candidate(p Place) domain.Candidate {
	location := p.Location
	if location == "" {
		location = s.cfg.Location
	}
	return domain.Candidate{
		SourceID:   s.cfg.ID,
		SourceName: s.cfg.Name,
		Origin:     s.cfg.BaseURL,
		Title:      p.Name,
		Summary:    p.Description,
		ImageURL:   p.ImageURL,
		Category:   p.Category,
		Venue: &domain.VenueAttrs{
			Location:   location,
			Address:    p.Address,
			PriceRange: p.PriceRange,
			Rating:     p.Rating,
			Features:   p.Features,
			WebsiteURL: p.Website,
			Latitude:   p.Latitude,
			Longitude:  p.Longitude,
		},
	}
}
