package rss

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gidi_ingest/internal/domain"
	"gidi_ingest/internal/fetch"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>The Cable</title>
  <link>https://www.thecable.ng</link>
  <item>
    <title>Lekki toll road reopens after repairs</title>
    <link>https://www.thecable.ng/lekki-toll</link>
    <description>&lt;p&gt;Motorists welcome the move&lt;/p&gt;</description>
    <pubDate>Mon, 03 Mar 2025 09:30:00 +0100</pubDate>
    <enclosure url="https://cdn.thecable.ng/toll.jpg" type="image/jpeg" length="1000"/>
  </item>
  <item>
    <title>Short</title>
    <link>https://www.thecable.ng/short</link>
  </item>
  <item>
    <title>Afrobeats festival heads to Eko Atlantic</title>
    <link>https://www.thecable.ng/festival</link>
  </item>
</channel>
</rss>`

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newSource(url string) *Source {
	return New(Config{ID: "thecable", Name: "The Cable", URL: url},
		fetch.New(fetch.Config{Timeout: time.Second}),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFetch(t *testing.T) {
	srv := newServer(t, http.StatusOK, feedXML)

	got, err := newSource(srv.URL).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "Lekki toll road reopens after repairs", first.Title)
	assert.Equal(t, "https://www.thecable.ng/lekki-toll", first.URL)
	assert.Equal(t, "https://cdn.thecable.ng/toll.jpg", first.ImageURL)
	assert.Equal(t, "https://www.thecable.ng", first.Origin)
	assert.True(t, first.PublishedAt.Equal(time.Date(2025, 3, 3, 8, 30, 0, 0, time.UTC)))

	assert.Empty(t, got[1].ImageURL)
	assert.True(t, got[1].PublishedAt.IsZero())
}

func TestFetch_BadFeedIsSourceUnavailable(t *testing.T) {
	srv := newServer(t, http.StatusOK, "not a feed")

	_, err := newSource(srv.URL).Fetch(context.Background())

	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestFetch_HTTPErrorIsSourceUnavailable(t *testing.T) {
	srv := newServer(t, http.StatusNotFound, "")

	_, err := newSource(srv.URL).Fetch(context.Background())

	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}
