package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gidi_ingest/internal/domain"
	"gidi_ingest/internal/fetch"
)

const (
	DefaultBaseURL = "https://newsapi.org/v2/everything"
	DefaultQuery   = "Lagos OR Nigeria OR Gidi"
)

// Config holds news search API source configuration.
type Config struct {
	ID       string
	Name     string
	BaseURL  string
	APIKey   string
	Query    string
	Category string
	PageSize int

	// MinTitleLength drops results whose collapsed title is shorter,
	// including the API's "[Removed]" tombstones.
	MinTitleLength int
}

// Source queries a JSON news search API.
type Source struct {
	client fetch.Getter
	cfg    Config
	logger *slog.Logger
}

// New creates a new news search API source.
func New(cfg Config, client fetch.Getter, logger *slog.Logger) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Query == "" {
		cfg.Query = DefaultQuery
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 15
	}
	if cfg.MinTitleLength <= 0 {
		cfg.MinTitleLength = 10
	}
	return &Source{
		client: client,
		cfg:    cfg,
		logger: logger.With("source", cfg.ID),
	}
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return s.cfg.ID
}

// Name returns human-readable name.
func (s *Source) Name() string {
	return s.cfg.Name
}

// Fetch runs one search. Retrying is left to the caller.
func (s *Source) Fetch(ctx context.Context) ([]domain.Candidate, error) {
	resp, err := s.doRequest(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSourceUnavailable, s.cfg.ID, err)
	}

	s.logger.Debug("fetched search results",
		"total", resp.TotalResults,
		"articles", len(resp.Articles),
	)

	return s.transform(resp.Articles), nil
}

func (s *Source) requestURL() string {
	q := url.Values{}
	q.Set("q", s.cfg.Query)
	q.Set("language", "en")
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", strconv.Itoa(s.cfg.PageSize))

	sep := "?"
	if strings.Contains(s.cfg.BaseURL, "?") {
		sep = "&"
	}
	return s.cfg.BaseURL + sep + q.Encode()
}

func (s *Source) doRequest(ctx context.Context) (*APIResponse, error) {
	resp, err := s.client.Get(ctx, s.requestURL(), map[string]string{
		"Accept":    "application/json",
		"X-API-Key": s.cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(resp.Body, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if apiResp.Status == "error" {
		return nil, fmt.Errorf("api error %s: %s", apiResp.Code, apiResp.Message)
	}

	return &apiResp, nil
}

func (s *Source) transform(contents []Content) []domain.Candidate {
	candidates := make([]domain.Candidate, 0, len(contents))

	for _, c := range contents {
		title := strings.Join(strings.Fields(c.Title), " ")
		if utf8.RuneCountInString(title) < s.cfg.MinTitleLength {
			s.logger.Debug("skipping short title", "url", c.URL, "title", title)
			continue
		}

		candidate := domain.Candidate{
			SourceID:   s.cfg.ID,
			SourceName: c.Source.Name,
			Title:      title,
			URL:        c.URL,
			Category:   s.cfg.Category,
		}
		if candidate.SourceName == "" {
			candidate.SourceName = s.cfg.Name
		}
		if c.Description != nil {
			candidate.Summary = *c.Description
		}
		if c.URLToImage != nil {
			candidate.ImageURL = *c.URLToImage
		}

		if c.PublishedAt != "" {
			publishedAt, err := time.Parse(time.RFC3339, c.PublishedAt)
			if err != nil {
				s.logger.Warn("failed to parse date",
					"url", c.URL,
					"date", c.PublishedAt,
				)
			} else {
				candidate.PublishedAt = publishedAt
			}
		}

		candidates = append(candidates, candidate)
	}

	return candidates
}
