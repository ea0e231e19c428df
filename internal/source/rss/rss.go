// Package rss reads article candidates from RSS and Atom feeds.
package rss

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"

	"gidi_ingest/internal/domain"
	"gidi_ingest/internal/fetch"
)

type Config struct {
	ID             string
	Name           string
	URL            string
	Category       string
	MaxItems       int
	MinTitleLength int
}

type Source struct {
	cfg    Config
	client fetch.Getter
	parser *gofeed.Parser
	logger *slog.Logger
}

func New(cfg Config, client fetch.Getter, logger *slog.Logger) *Source {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 15
	}
	if cfg.MinTitleLength <= 0 {
		cfg.MinTitleLength = 10
	}
	return &Source{
		cfg:    cfg,
		client: client,
		parser: gofeed.NewParser(),
		logger: logger.With("source", cfg.ID),
	}
}

func (s *Source) ID() string   { return s.cfg.ID }
func (s *Source) Name() string { return s.cfg.Name }

func (s *Source) Fetch(ctx context.Context) ([]domain.Candidate, error) {
	resp, err := s.client.Get(ctx, s.cfg.URL, map[string]string{
		"Accept": "application/rss+xml, application/atom+xml, application/xml;q=0.9",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", domain.ErrSourceUnavailable, s.cfg.ID, err)
	}

	feed, err := s.parser.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrSourceUnavailable, s.cfg.ID, err)
	}

	origin := feed.Link
	if origin == "" {
		origin = s.cfg.URL
	}

	var out []domain.Candidate
	for i, item := range feed.Items {
		if i >= s.cfg.MaxItems {
			break
		}
		title := strings.Join(strings.Fields(item.Title), " ")
		if utf8.RuneCountInString(title) < s.cfg.MinTitleLength {
			continue
		}

		c := domain.Candidate{
			SourceID:   s.cfg.ID,
			SourceName: s.cfg.Name,
			Origin:     origin,
			Title:      title,
			Summary:    item.Description,
			URL:        strings.TrimSpace(item.Link),
			ImageURL:   itemImage(item),
			Category:   s.cfg.Category,
		}
		switch {
		case item.PublishedParsed != nil:
			c.PublishedAt = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			c.PublishedAt = *item.UpdatedParsed
		}
		out = append(out, c)
	}

	s.logger.Debug("parsed feed", "items", len(feed.Items), "candidates", len(out))
	return out, nil
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}
