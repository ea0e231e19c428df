package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"gidi_ingest/internal/domain"
	"gidi_ingest/internal/media"
	"gidi_ingest/internal/normalize"
	"gidi_ingest/internal/service/mocks"
	"gidi_ingest/internal/source/places"
	"gidi_ingest/testdata/utils"
)

type FeedServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	newsSource  *mocks.MockSource
	venueSource *mocks.MockSource
	articles    *mocks.MockArticleStore
	venues      *mocks.MockVenueStore
	places      *mocks.MockPlaceSearcher

	feed *FeedService
	now  time.Time
}

func (s *FeedServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.newsSource = mocks.NewMockSource(s.ctrl)
	s.venueSource = mocks.NewMockSource(s.ctrl)
	s.articles = mocks.NewMockArticleStore(s.ctrl)
	s.venues = mocks.NewMockVenueStore(s.ctrl)
	s.places = mocks.NewMockPlaceSearcher(s.ctrl)
	s.now = time.Date(2026, 5, 4, 18, 0, 0, 0, time.UTC)

	s.newsSource.EXPECT().ID().Return("newsapi").AnyTimes()
	s.newsSource.EXPECT().Name().Return("NewsAPI").AnyTimes()
	s.venueSource.EXPECT().ID().Return("curated").AnyTimes()
	s.venueSource.EXPECT().Name().Return("Curated Lagos").AnyTimes()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	normalizer := normalize.New(normalize.DefaultLimits, media.NewNewsResolver(nil), media.NewVenueResolver(nil))
	deps := RunDeps{Logger: logger, Now: func() time.Time { return s.now }}
	fetch := FetchOptions{Workers: 1, Timeout: time.Second}

	news := NewNewsService([]Source{s.newsSource}, s.articles, normalizer, domain.PolicyIgnore, fetch, deps)
	venues := NewVenueService([]Source{s.venueSource}, s.venues, normalizer, domain.PolicyReplace, fetch, deps)
	s.feed = NewFeedService(news, venues, s.places, nil, logger)
	s.feed.now = func() time.Time { return s.now }
}

func (s *FeedServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestFeedServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FeedServiceTestSuite))
}

func venueCandidate(name, location, category string, rating float64) domain.Candidate {
	return domain.Candidate{
		Title:    name,
		Category: category,
		Venue: &domain.VenueAttrs{
			Location: location,
			Rating:   rating,
			Verified: true,
		},
	}
}

func (s *FeedServiceTestSuite) TestNews_Live() {
	ctx := context.Background()

	s.newsSource.EXPECT().Fetch(gomock.Any()).Return([]domain.Candidate{{
		Title: "Lagos festival lineup announced",
		URL:   "https://thecable.ng/festival",
	}}, nil)
	s.articles.EXPECT().ExistingByKeys(gomock.Any(), gomock.Any()).Return(nil, nil)
	s.articles.EXPECT().Commit(gomock.Any(), gomock.Len(1), domain.PolicyIgnore).Return(&domain.CommitResult{Inserted: 1}, nil)

	feed, err := s.feed.News(ctx, domain.ListFilter{})

	s.NoError(err)
	s.Equal(OriginLive, feed.Origin)
	s.Require().Len(feed.Items, 1)
	s.Equal(domain.CategoryEvents, feed.Items[0].Category)
	s.Equal(s.now, feed.Items[0].PublishedAt)
}

func (s *FeedServiceTestSuite) TestNews_SourceDownServesCache() {
	ctx := context.Background()

	s.newsSource.EXPECT().Fetch(gomock.Any()).Return(nil, errors.New("newsapi status 500"))
	s.articles.EXPECT().ListRecent(gomock.Any(), domain.ListFilter{Limit: 10}).Return([]domain.Article{
		{ID: 1, Title: "Cached headline"},
	}, nil)

	feed, err := s.feed.News(ctx, domain.ListFilter{})

	s.NoError(err)
	s.Equal(OriginCached, feed.Origin)
	s.Len(feed.Items, 1)
	s.Contains(feed.Reason, "newsapi status 500")
}

func (s *FeedServiceTestSuite) TestNews_StoreDownAndCacheDown() {
	ctx := context.Background()

	s.newsSource.EXPECT().Fetch(gomock.Any()).Return([]domain.Candidate{{
		Title: "Ikoyi bridge repairs begin",
		URL:   "https://punchng.com/ikoyi",
	}}, nil)
	s.articles.EXPECT().ExistingByKeys(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))
	s.articles.EXPECT().ListRecent(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	feed, err := s.feed.News(ctx, domain.ListFilter{})

	s.Error(err)
	s.Nil(feed)
}

func (s *FeedServiceTestSuite) TestVenues_LiveOrderedByRating() {
	ctx := context.Background()

	s.venueSource.EXPECT().Fetch(gomock.Any()).Return([]domain.Candidate{
		venueCandidate("Nok by Alara", "Victoria Island", "Restaurant", 4.6),
		venueCandidate("Quilox", "Victoria Island", "Club", 4.1),
		venueCandidate("Shiro", "Victoria Island", "Restaurant", 4.8),
	}, nil)
	s.venues.EXPECT().ExistingByKeys(gomock.Any(), gomock.Len(3)).Return(nil, nil)
	s.venues.EXPECT().Commit(gomock.Any(), gomock.Len(3), domain.PolicyReplace).Return(&domain.CommitResult{Inserted: 3}, nil)

	feed, err := s.feed.Venues(ctx, domain.ListFilter{Category: "restaurant"})

	s.NoError(err)
	s.Equal(OriginLive, feed.Origin)
	s.Require().Len(feed.Items, 2)
	s.Equal("Shiro", feed.Items[0].Name)
	s.Equal("Nok by Alara", feed.Items[1].Name)
	s.True(feed.Items[0].IsVerified)
	s.NotEmpty(feed.Items[0].ImageURL)
}

func (s *FeedServiceTestSuite) TestVenues_CommitFailureServesCache() {
	ctx := context.Background()

	s.venueSource.EXPECT().Fetch(gomock.Any()).Return([]domain.Candidate{
		venueCandidate("Terra Kulture", "Victoria Island", "Event Center", 4.5),
	}, nil)
	s.venues.EXPECT().ExistingByKeys(gomock.Any(), gomock.Any()).Return(nil, nil)
	s.venues.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, domain.ErrPersistence)
	s.venues.EXPECT().ListRecent(gomock.Any(), domain.ListFilter{Limit: 20}).Return([]domain.Venue{
		{Name: "Terra Kulture", Rating: 4.5},
	}, nil)

	feed, err := s.feed.Venues(ctx, domain.ListFilter{})

	s.NoError(err)
	s.Equal(OriginCached, feed.Origin)
	s.Len(feed.Items, 1)
}

func (s *FeedServiceTestSuite) TestSearchVenues() {
	ctx := context.Background()

	s.venues.EXPECT().Search(gomock.Any(), "suya", "", 10).Return([]domain.Venue{{Name: "Suya Spot"}}, nil)
	s.places.EXPECT().Search(gomock.Any(), "suya", "", "Lagos, Nigeria").Return([]places.Place{
		{Name: "University of Suya", Latitude: utils.Ptr(6.45)},
	}, nil)

	res, err := s.feed.SearchVenues(ctx, SearchRequest{Query: "  suya "})

	s.NoError(err)
	s.Equal("suya", res.Query)
	s.Len(res.Local, 1)
	s.Len(res.Live, 1)
	s.Equal(s.now, res.Timestamp)
}

func (s *FeedServiceTestSuite) TestSearchVenues_LiveFailureKeepsLocal() {
	ctx := context.Background()

	s.venues.EXPECT().Search(gomock.Any(), "grill", "Restaurant", 5).Return([]domain.Venue{{Name: "Grill House"}}, nil)
	s.places.EXPECT().Search(gomock.Any(), "grill", "Restaurant", "Ikeja").Return(nil, errors.New("timeout"))

	res, err := s.feed.SearchVenues(ctx, SearchRequest{Query: "grill", Category: "Restaurant", Location: "Ikeja", Limit: 5})

	s.NoError(err)
	s.Len(res.Local, 1)
	s.Empty(res.Live)
}

func (s *FeedServiceTestSuite) TestSearchVenues_MissingQuery() {
	_, err := s.feed.SearchVenues(context.Background(), SearchRequest{Query: "   "})

	s.ErrorIs(err, ErrMissingQuery)
}
