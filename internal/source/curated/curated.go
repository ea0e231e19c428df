// Package curated emits venues from a hand-maintained list, optionally
// enriching each with images found on an image search page.
package curated

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"gidi_ingest/internal/domain"
	"gidi_ingest/internal/fetch"
)

const maxImages = 3

type Venue struct {
	Name        string
	Category    string
	Location    string
	Address     string
	Description string
	PriceRange  string
	Rating      float64
	Features    []string
	Website     string
	ImageQuery  string
}

type Config struct {
	ID     string
	Name   string
	Venues []Venue
	// SearchURL is a format string with one %s for the escaped query,
	// e.g. https://unsplash.com/s/photos/%s. Empty disables lookups.
	SearchURL string
	ImageHost string
}

type Source struct {
	cfg    Config
	client fetch.Getter
	logger *slog.Logger
}

func New(cfg Config, client fetch.Getter, logger *slog.Logger) *Source {
	if cfg.ImageHost == "" {
		cfg.ImageHost = "images.unsplash.com"
	}
	return &Source{cfg: cfg, client: client, logger: logger.With("source", cfg.ID)}
}

func (s *Source) ID() string   { return s.cfg.ID }
func (s *Source) Name() string { return s.cfg.Name }

// Fetch never fails as a whole. An image lookup failure leaves that
// venue without images; the cancellation of ctx stops further lookups.
func (s *Source) Fetch(ctx context.Context) ([]domain.Candidate, error) {
	out := make([]domain.Candidate, 0, len(s.cfg.Venues))
	for _, v := range s.cfg.Venues {
		var images []string
		if ctx.Err() == nil {
			images = s.lookupImages(ctx, v)
		}
		c := domain.Candidate{
			SourceID:   s.cfg.ID,
			SourceName: s.cfg.Name,
			Title:      v.Name,
			Summary:    v.Description,
			Category:   v.Category,
			Venue: &domain.VenueAttrs{
				Location:   v.Location,
				Address:    v.Address,
				PriceRange: v.PriceRange,
				Rating:     v.Rating,
				Features:   v.Features,
				WebsiteURL: v.Website,
				MediaURLs:  images,
				Verified:   true,
			},
		}
		if len(images) > 0 {
			c.ImageURL = images[0]
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Source) lookupImages(ctx context.Context, v Venue) []string {
	if s.cfg.SearchURL == "" || s.client == nil {
		return nil
	}
	query := v.ImageQuery
	if query == "" {
		query = v.Name + " " + v.Location
	}

	resp, err := s.client.Get(ctx, fmt.Sprintf(s.cfg.SearchURL, url.PathEscape(query)), nil)
	if err != nil {
		s.logger.Warn("image lookup failed", "venue", v.Name, "error", err)
		return nil
	}

	images, err := ExtractImages(resp.Body, s.cfg.ImageHost, maxImages)
	if err != nil {
		s.logger.Warn("image lookup parse failed", "venue", v.Name, "error", err)
		return nil
	}
	return images
}

// ExtractImages returns up to max distinct image URLs hosted on host,
// normalized to a fixed width and quality.
func ExtractImages(body []byte, host string, max int) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	var images []string
	seen := make(map[string]bool)
	doc.Find(fmt.Sprintf(`img[src*=%q]`, host)).EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := img.AttrOr("src", img.AttrOr("data-src", ""))
		if src == "" {
			return true
		}
		src = strings.SplitN(src, "?", 2)[0] + "?w=1000&q=85"
		if !seen[src] {
			seen[src] = true
			images = append(images, src)
		}
		return len(images) < max
	})
	return images, nil
}
