package domain

import (
	"strings"
	"time"
)

// Venue categories. The set is open in the data but bounded by the
// normalizer to these values.
const (
	VenueRestaurant  = "Restaurant"
	VenueBar         = "Bar"
	VenueClub        = "Club"
	VenueLounge      = "Lounge"
	VenueRooftop     = "Rooftop"
	VenueBeachClub   = "Beach Club"
	VenueEventCenter = "Event Center"
)

var VenueCategories = []string{
	VenueRestaurant,
	VenueBar,
	VenueClub,
	VenueLounge,
	VenueRooftop,
	VenueBeachClub,
	VenueEventCenter,
}

type Venue struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Address     string    `json:"address"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"image_url"`
	MediaURLs   []string  `json:"professional_media_urls"`
	PriceRange  string    `json:"price_range"`
	Rating      float64   `json:"rating"`
	Features    []string  `json:"features"`
	WebsiteURL  string    `json:"website_url,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	SourceName  string    `json:"source"`
	Observed    time.Time `json:"observed_at"`
	IsVerified  bool      `json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (v Venue) NaturalKey() string    { return VenueKey(v.Name, v.Location) }
func (v Venue) ObservedAt() time.Time { return v.Observed }

// VenueKey builds the (name, location) key. Only case and whitespace are
// folded; two distinct venues sharing both still collide.
func VenueKey(name, location string) string {
	n := foldSpace(name)
	l := foldSpace(location)
	if n == "" || l == "" {
		return ""
	}
	return n + "|" + l
}

func foldSpace(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
