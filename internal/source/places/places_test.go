package places

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

func newSource(baseURL string, limit int) *Source {
	return New(Config{
		ID:       "poi",
		Name:     "POI service",
		BaseURL:  baseURL,
		Query:    "rooftop",
		Category: "Lounge",
		Limit:    limit,
	}, fetch.New(fetch.Config{Timeout: time.Second}), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "rooftop", r.URL.Query().Get("query"))
		assert.Equal(t, "Lounge", r.URL.Query().Get("category"))
		assert.Equal(t, "Lagos, Nigeria", r.URL.Query().Get("location"))
		_, _ = io.WriteString(w, `{"results":[
			{"name":"Sky Restaurant & Lounge","description":"Rooftop dining","location":"Victoria Island, Lagos","category":"Restaurant","rating":4.4,"latitude":6.43,"longitude":3.42},
			{"name":"The Jazz Hole","description":"Intimate jazz club","category":"Lounge","rating":4.2},
			{"name":"Third","location":"Ikeja"}
		]}`)
	}))
	defer srv.Close()

	got, err := newSource(srv.URL, 2).Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Sky Restaurant & Lounge", got[0].Title)
	require.NotNil(t, got[0].Venue)
	require.NotNil(t, got[0].Venue.Latitude)
	assert.InDelta(t, 6.43, *got[0].Venue.Latitude, 1e-9)
	assert.Equal(t, "Lagos, Nigeria", got[1].Venue.Location, "missing location defaults to the configured area")
}

func TestFetch_BadJSONIsSourceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>`)
	}))
	defer srv.Close()

	_, err := newSource(srv.URL, 0).Fetch(context.Background())

	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}
