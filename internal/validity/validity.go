// Package validity decides whether a link or record is real enough to
// persist. The same predicate runs at ingestion time and in maintenance
// sweeps over the store.
package validity

import (
	"errors"
	"fmt"
	"strings"

	"gidi_ingest/internal/domain"
)

// DenyList holds substrings that mark a link as fake or test data.
var DenyList = []string{
	"example.com",
	"localhost",
	"test.com",
	"placeholder",
	"#",
	"javascript:",
	"about:blank",
}

var (
	errMissingURL  = errors.New("missing url")
	errNotHTTP     = errors.New("url is not http")
	errMissingName = errors.New("missing name")
	errMissingLoc  = errors.New("missing location")
	errMissingImg  = errors.New("missing image")
)

// CheckURL returns nil when u is a publishable external link.
func CheckURL(u string) error {
	u = strings.TrimSpace(u)
	if u == "" {
		return errMissingURL
	}
	lower := strings.ToLower(u)
	if !strings.HasPrefix(lower, "http") {
		return errNotHTTP
	}
	for _, bad := range DenyList {
		if strings.Contains(lower, bad) {
			return fmt.Errorf("url contains %q", bad)
		}
	}
	return nil
}

func ExternalURL(u string) bool {
	return CheckURL(u) == nil
}

// Candidate checks a raw news candidate before normalization. The returned
// error wraps domain.ErrInvalidCandidate.
func Candidate(c domain.Candidate) error {
	if c.Venue != nil {
		return venueFields(c.Title, c.Venue.Location)
	}
	if err := CheckURL(c.URL); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidCandidate, err)
	}
	return nil
}

func Article(a domain.Article) error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("%w: missing title", domain.ErrInvalidCandidate)
	}
	if err := CheckURL(a.ExternalURL); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidCandidate, err)
	}
	if !strings.HasPrefix(a.ImageURL, "http") {
		return fmt.Errorf("%w: %w", domain.ErrInvalidCandidate, errMissingImg)
	}
	return nil
}

// Venue requires a name and a location. A website, when present, must pass
// the same link check as news.
func Venue(v domain.Venue) error {
	if err := venueFields(v.Name, v.Location); err != nil {
		return err
	}
	if v.WebsiteURL != "" {
		if err := CheckURL(v.WebsiteURL); err != nil {
			return fmt.Errorf("%w: website: %w", domain.ErrInvalidCandidate, err)
		}
	}
	if !strings.HasPrefix(v.ImageURL, "http") {
		return fmt.Errorf("%w: %w", domain.ErrInvalidCandidate, errMissingImg)
	}
	return nil
}

func venueFields(name, location string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: %w", domain.ErrInvalidCandidate, errMissingName)
	}
	if strings.TrimSpace(location) == "" {
		return fmt.Errorf("%w: %w", domain.ErrInvalidCandidate, errMissingLoc)
	}
	return nil
}
