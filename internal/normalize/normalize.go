// Package normalize turns raw candidates into canonical records.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"gidi_ingest/internal/domain"
	"gidi_ingest/internal/validity"
)

// Limits are maximum field lengths in runes.
type Limits struct {
	Title       int
	Summary     int
	Name        int
	Description int
}

var DefaultLimits = Limits{Title: 60, Summary: 150, Name: 80, Description: 300}

// ImageResolver supplies a fallback image for a category.
type ImageResolver interface {
	Next(category string) string
}

type Normalizer struct {
	limits Limits
	news   ImageResolver
	venues ImageResolver
}

func New(limits Limits, news, venues ImageResolver) *Normalizer {
	if limits.Title == 0 {
		limits.Title = DefaultLimits.Title
	}
	if limits.Summary == 0 {
		limits.Summary = DefaultLimits.Summary
	}
	if limits.Name == 0 {
		limits.Name = DefaultLimits.Name
	}
	if limits.Description == 0 {
		limits.Description = DefaultLimits.Description
	}
	return &Normalizer{limits: limits, news: news, venues: venues}
}

// Article builds a news record from c. observedAt stands in for a missing
// publish time. The result is either complete or an error wrapping
// domain.ErrInvalidCandidate.
func (n *Normalizer) Article(c domain.Candidate, observedAt time.Time) (domain.Article, error) {
	title := CleanText(c.Title)
	if title == "" {
		return domain.Article{}, fmt.Errorf("%w: empty title", domain.ErrInvalidCandidate)
	}

	link, ok := ResolveURL(c.Origin, c.URL)
	if !ok {
		return domain.Article{}, fmt.Errorf("%w: unresolvable url %q", domain.ErrInvalidCandidate, c.URL)
	}
	if err := validity.CheckURL(link); err != nil {
		return domain.Article{}, fmt.Errorf("%w: %w", domain.ErrInvalidCandidate, err)
	}
	link = domain.CanonicalURL(link)

	summary := CleanText(c.Summary)
	if summary == "" {
		summary = title
	}

	category := NewsCategory(c.Category, title)

	image, ok := UsableImage(c.Origin, c.ImageURL)
	if !ok {
		image = n.news.Next(category)
	}

	published := c.PublishedAt
	if published.IsZero() {
		published = observedAt
	}

	return domain.Article{
		Title:       Truncate(title, n.limits.Title),
		Summary:     Truncate(summary, n.limits.Summary),
		Category:    category,
		ExternalURL: link,
		ImageURL:    image,
		SourceName:  c.SourceName,
		PublishedAt: published.UTC(),
		IsActive:    true,
	}, nil
}

// Venue builds a venue record from c, which must carry venue attributes.
func (n *Normalizer) Venue(c domain.Candidate, observedAt time.Time) (domain.Venue, error) {
	if c.Venue == nil {
		return domain.Venue{}, fmt.Errorf("%w: not a venue", domain.ErrInvalidCandidate)
	}
	attrs := c.Venue

	name := CleanText(c.Title)
	location := CleanText(attrs.Location)
	if name == "" || location == "" {
		return domain.Venue{}, fmt.Errorf("%w: venue needs name and location", domain.ErrInvalidCandidate)
	}

	description := CleanText(c.Summary)
	if description == "" {
		description = name
	}

	category := VenueCategory(c.Category, name, description)

	var media []string
	seen := make(map[string]bool)
	for _, raw := range append([]string{c.ImageURL}, attrs.MediaURLs...) {
		if u, ok := UsableImage(c.Origin, raw); ok && !seen[u] {
			seen[u] = true
			media = append(media, u)
		}
	}
	var image string
	if len(media) > 0 {
		image = media[0]
	} else {
		image = n.venues.Next(category)
	}

	website := ""
	if w, ok := ResolveURL(c.Origin, attrs.WebsiteURL); ok && validity.ExternalURL(w) {
		website = w
	}

	observed := c.PublishedAt
	if observed.IsZero() {
		observed = observedAt
	}

	return domain.Venue{
		Name:        Truncate(name, n.limits.Name),
		Description: Truncate(description, n.limits.Description),
		Location:    location,
		Address:     CleanText(attrs.Address),
		Category:    category,
		ImageURL:    image,
		MediaURLs:   media,
		PriceRange:  strings.TrimSpace(attrs.PriceRange),
		Rating:      clampRating(attrs.Rating),
		Features:    cleanFeatures(attrs.Features),
		WebsiteURL:  website,
		Latitude:    attrs.Latitude,
		Longitude:   attrs.Longitude,
		SourceName:  c.SourceName,
		Observed:    observed.UTC(),
		IsVerified:  attrs.Verified,
	}, nil
}

func clampRating(r float64) float64 {
	switch {
	case r < 0:
		return 0
	case r > 5:
		return 5
	default:
		return r
	}
}

func cleanFeatures(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool)
	for _, f := range in {
		f = CleanText(f)
		key := strings.ToLower(f)
		if f == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}
