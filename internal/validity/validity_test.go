package validity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"gidi_ingest/internal/domain"
)

func TestExternalURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"real article", "https://punchng.com/lagos-traffic-update/", true},
		{"http scheme", "http://guardian.ng/news/story", true},
		{"empty", "", false},
		{"whitespace", "   ", false},
		{"relative", "/news/story", false},
		{"ftp", "ftp://files.ng/a", false},
		{"example domain", "https://example.com/fake", false},
		{"upper case deny", "https://EXAMPLE.COM/fake", false},
		{"localhost", "http://localhost:3000/a", false},
		{"test domain", "https://test.com/a", false},
		{"placeholder", "https://cdn.ng/placeholder-article", false},
		{"fragment", "https://punchng.com/#comments", false},
		{"javascript", "javascript:void(0)", false},
		{"about blank", "about:blank", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExternalURL(tt.url))
		})
	}
}

func TestCandidate_RejectsDenyListedURL(t *testing.T) {
	err := Candidate(domain.Candidate{Title: "Fake story about Lagos", URL: "https://example.com/fake"})

	assert.True(t, errors.Is(err, domain.ErrInvalidCandidate))
}

func TestCandidate_VenueNeedsNameAndLocation(t *testing.T) {
	ok := domain.Candidate{Title: "Quilox", Venue: &domain.VenueAttrs{Location: "Victoria Island"}}
	noLoc := domain.Candidate{Title: "Quilox", Venue: &domain.VenueAttrs{}}
	noName := domain.Candidate{Title: " ", Venue: &domain.VenueAttrs{Location: "Ikoyi"}}

	assert.NoError(t, Candidate(ok))
	assert.ErrorIs(t, Candidate(noLoc), domain.ErrInvalidCandidate)
	assert.ErrorIs(t, Candidate(noName), domain.ErrInvalidCandidate)
}

func TestArticle(t *testing.T) {
	a := domain.Article{
		Title:       "Third Mainland Bridge closure",
		ExternalURL: "https://punchng.com/bridge",
		ImageURL:    "https://images.unsplash.com/photo-1?w=800",
	}
	assert.NoError(t, Article(a))

	noImage := a
	noImage.ImageURL = ""
	assert.ErrorIs(t, Article(noImage), domain.ErrInvalidCandidate)

	fake := a
	fake.ExternalURL = "http://localhost/bridge"
	assert.ErrorIs(t, Article(fake), domain.ErrInvalidCandidate)
}

func TestVenue(t *testing.T) {
	v := domain.Venue{
		Name:     "Nok by Alara",
		Location: "Victoria Island",
		ImageURL: "https://images.unsplash.com/photo-2?w=1000",
	}
	assert.NoError(t, Venue(v))

	badSite := v
	badSite.WebsiteURL = "https://placeholder.ng"
	assert.ErrorIs(t, Venue(badSite), domain.ErrInvalidCandidate)
}
