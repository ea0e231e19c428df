package source

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gidi_ingest/internal/config"
	"gidi_ingest/internal/domain"
	"gidi_ingest/internal/fetch"
	"gidi_ingest/internal/source/curated"
	"gidi_ingest/internal/source/newsapi"
	"gidi_ingest/internal/source/places"
	"gidi_ingest/internal/source/rss"
	"gidi_ingest/internal/source/site"
)

func deps() Deps {
	return Deps{
		Client: fetch.New(fetch.Config{Timeout: time.Second}),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestBuildAll(t *testing.T) {
	adapters, err := BuildAll([]config.SourceConfig{
		{Type: "html", ID: "punch", Name: "Punch", URL: "https://punchng.com", Rule: config.RuleConfig{TitleSelector: "h2 a"}},
		{Type: "rss", ID: "cable", URL: "https://thecable.ng/feed"},
		{Type: "newsapi", ID: "newsapi"},
		{Type: "curated", ID: "curated", Delay: 1500 * time.Millisecond, ImageSearch: config.ImageSearchConfig{URL: "https://unsplash.com/s/photos/%s"}},
		{Type: "places", ID: "poi", URL: "https://poi.local/search"},
	}, deps())
	require.NoError(t, err)
	require.Len(t, adapters, 5)

	assert.IsType(t, &site.Source{}, adapters[0])
	assert.IsType(t, &rss.Source{}, adapters[1])
	assert.IsType(t, &newsapi.Source{}, adapters[2])
	assert.IsType(t, &curated.Source{}, adapters[3])
	assert.IsType(t, &places.Source{}, adapters[4])
	assert.Equal(t, "punch", adapters[0].ID())
	assert.Same(t, adapters[4], Places(adapters))
}

func TestNewFromConfig_UnknownType(t *testing.T) {
	_, err := NewFromConfig(config.SourceConfig{Type: "ftp", ID: "x"}, deps())

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestPlaces_NoneConfigured(t *testing.T) {
	assert.Nil(t, Places(nil))
}
