package domain

import "time"

// Candidate is a raw, unvalidated record as extracted from a source.
type Candidate struct {
	SourceID   string
	SourceName string
	Origin     string // base URL used to resolve relative links
	Title      string // article title or venue name
	Summary    string
	URL        string
	ImageURL   string
	Category   string // raw hint, may be empty
	// PublishedAt is zero when the source carries no timestamp.
	PublishedAt time.Time
	Venue       *VenueAttrs
}

// VenueAttrs holds the venue-only part of a candidate.
type VenueAttrs struct {
	Location   string
	Address    string
	PriceRange string
	Rating     float64
	Features   []string
	WebsiteURL string
	MediaURLs  []string
	Latitude   *float64
	Longitude  *float64
	Verified   bool
}
