package app

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gidi_ingest/internal/config"
	"gidi_ingest/internal/domain"
	"gidi_ingest/internal/media"
	"gidi_ingest/internal/normalize"
	"gidi_ingest/internal/service"
)

func testApp() *App {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	deps := service.RunDeps{Logger: logger}
	n := normalize.New(normalize.DefaultLimits, media.NewNewsResolver(nil), media.NewVenueResolver(nil))

	return &App{
		News:   service.NewNewsService(nil, nil, n, domain.PolicyIgnore, service.FetchOptions{}, deps),
		Venues: service.NewVenueService(nil, nil, n, domain.PolicyReplace, service.FetchOptions{}, deps),
		cfg: &config.Config{
			News:   config.JobConfig{Schedule: "@every 30m"},
			Venues: config.JobConfig{Schedule: "@every 6h"},
		},
		logger: logger,
	}
}

func TestEntries(t *testing.T) {
	a := testApp()

	all, err := a.Entries("")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "news", all[0].Job.Name())
	assert.Equal(t, "@every 6h", all[1].Schedule)

	one, err := a.Entries("venues")
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "venues", one[0].Job.Name())

	_, err = a.Entries("weather")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSetupLogger(t *testing.T) {
	assert.True(t, SetupLogger("debug").Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, SetupLogger("warn").Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, SetupLogger("unknown").Enabled(context.Background(), slog.LevelInfo))
}
