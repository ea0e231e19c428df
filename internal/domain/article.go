package domain

import (
	"net/url"
	"strings"
	"time"
)

// Record is implemented by every persisted content type.
type Record interface {
	NaturalKey() string
	ObservedAt() time.Time
}

type Kind string

const (
	KindNews  Kind = "news"
	KindVenue Kind = "venue"
)

// News categories, closed set.
const (
	CategoryTraffic   = "traffic"
	CategoryEvents    = "events"
	CategoryNightlife = "nightlife"
	CategoryFood      = "food"
	CategoryGeneral   = "general"
)

var NewsCategories = []string{
	CategoryTraffic,
	CategoryEvents,
	CategoryNightlife,
	CategoryFood,
	CategoryGeneral,
}

type Article struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Summary     string    `db:"summary" json:"summary"`
	Category    string    `db:"category" json:"category"`
	ExternalURL string    `db:"external_url" json:"external_url"`
	ImageURL    string    `db:"featured_image_url" json:"featured_image_url"`
	SourceName  string    `db:"source" json:"source"`
	PublishedAt time.Time `db:"publish_date" json:"publish_date"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

func (a Article) NaturalKey() string    { return CanonicalURL(a.ExternalURL) }
func (a Article) ObservedAt() time.Time { return a.PublishedAt }

// CanonicalURL folds the forms of one article link into a single key:
// scheme and host lower-cased, fragment dropped, trailing slash trimmed.
// Unparseable input is returned trimmed.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}
	return u.String()
}
