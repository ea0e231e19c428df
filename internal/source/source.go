// Package source builds the configured content sources.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"gidi_ingest/internal/config"
	"gidi_ingest/internal/domain"
	"gidi_ingest/internal/fetch"
	"gidi_ingest/internal/source/curated"
	"gidi_ingest/internal/source/newsapi"
	"gidi_ingest/internal/source/places"
	"gidi_ingest/internal/source/rss"
	"gidi_ingest/internal/source/site"
)

// Adapter yields the candidates of one source for one run. A failed
// source returns an error wrapping domain.ErrSourceUnavailable.
type Adapter interface {
	ID() string
	Name() string
	Fetch(ctx context.Context) ([]domain.Candidate, error)
}

type Deps struct {
	Client     *fetch.Client
	NewsAPIKey string
	Logger     *slog.Logger
}

func NewFromConfig(c config.SourceConfig, deps Deps) (Adapter, error) {
	if c.Delay > 0 {
		target := c.URL
		if c.Type == "curated" {
			target = c.ImageSearch.URL
		}
		if u, err := url.Parse(target); err == nil && u.Host != "" {
			deps.Client.Limit(u.Host, c.Delay)
		}
	}

	switch c.Type {
	case "html":
		return site.New(site.Config{
			ID:       c.ID,
			Name:     c.Name,
			Origin:   c.URL,
			Category: c.Category,
			MaxItems: c.MaxItems,
			Rule: site.Rule{
				TitleSelector:     c.Rule.TitleSelector,
				LinkSelector:      c.Rule.LinkSelector,
				ImageSelector:     c.Rule.ImageSelector,
				ContainerSelector: c.Rule.ContainerSelector,
				MinTitleLength:    c.Rule.MinTitleLength,
			},
		}, deps.Client, deps.Logger), nil
	case "rss":
		return rss.New(rss.Config{
			ID:             c.ID,
			Name:           c.Name,
			URL:            c.URL,
			Category:       c.Category,
			MaxItems:       c.MaxItems,
			MinTitleLength: c.Rule.MinTitleLength,
		}, deps.Client, deps.Logger), nil
	case "newsapi":
		return newsapi.New(newsapi.Config{
			ID:             c.ID,
			Name:           c.Name,
			BaseURL:        c.URL,
			APIKey:         deps.NewsAPIKey,
			Query:          c.Query,
			Category:       c.Category,
			PageSize:       c.MaxItems,
			MinTitleLength: c.Rule.MinTitleLength,
		}, deps.Client, deps.Logger), nil
	case "curated":
		venues := make([]curated.Venue, 0, len(c.Venues))
		for _, v := range c.Venues {
			venues = append(venues, curated.Venue{
				Name:        v.Name,
				Category:    v.Category,
				Location:    v.Location,
				Address:     v.Address,
				Description: v.Description,
				PriceRange:  v.PriceRange,
				Rating:      v.Rating,
				Features:    v.Features,
				Website:     v.Website,
				ImageQuery:  v.ImageQuery,
			})
		}
		return curated.New(curated.Config{
			ID:        c.ID,
			Name:      c.Name,
			Venues:    venues,
			SearchURL: c.ImageSearch.URL,
			ImageHost: c.ImageSearch.ImageHost,
		}, deps.Client, deps.Logger), nil
	case "places":
		return places.New(places.Config{
			ID:       c.ID,
			Name:     c.Name,
			BaseURL:  c.URL,
			Query:    c.Query,
			Category: c.Category,
			Location: c.Location,
			Limit:    c.MaxItems,
		}, deps.Client, deps.Logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown source type: %s", domain.ErrConfiguration, c.Type)
	}
}

// BuildAll builds every source of a job, failing on the first bad entry.
func BuildAll(cfgs []config.SourceConfig, deps Deps) ([]Adapter, error) {
	adapters := make([]Adapter, 0, len(cfgs))
	for i, c := range cfgs {
		a, err := NewFromConfig(c, deps)
		if err != nil {
			return nil, fmt.Errorf("source %d (%s): %w", i, c.ID, err)
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}

// Places returns the first points-of-interest source among adapters.
func Places(adapters []Adapter) *places.Source {
	for _, a := range adapters {
		if p, ok := a.(*places.Source); ok {
			return p
		}
	}
	return nil
}
