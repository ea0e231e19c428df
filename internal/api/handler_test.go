package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"gidi_ingest/internal/domain"
	"gidi_ingest/internal/metrics"
	"gidi_ingest/internal/service"
	"gidi_ingest/internal/source/places"
)

type fakeFeeds struct {
	news      *service.Feed[domain.Article]
	venues    *service.Feed[domain.Venue]
	search    *service.SearchResult
	err       error
	newsReq   domain.ListFilter
	searchReq service.SearchRequest
}

func (f *fakeFeeds) News(_ context.Context, filter domain.ListFilter) (*service.Feed[domain.Article], error) {
	f.newsReq = filter
	return f.news, f.err
}

func (f *fakeFeeds) Venues(_ context.Context, _ domain.ListFilter) (*service.Feed[domain.Venue], error) {
	return f.venues, f.err
}

func (f *fakeFeeds) SearchVenues(_ context.Context, req service.SearchRequest) (*service.SearchResult, error) {
	f.searchReq = req
	if strings.TrimSpace(req.Query) == "" {
		return nil, service.ErrMissingQuery
	}
	return f.search, f.err
}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Source    string          `json:"source"`
	Error     string          `json:"error"`
	Timestamp time.Time       `json:"timestamp"`
}

type APITestSuite struct {
	suite.Suite
	feeds  *fakeFeeds
	reg    *prometheus.Registry
	router *gin.Engine
}

func (s *APITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.feeds = &fakeFeeds{}
	s.reg = prometheus.NewRegistry()
	metrics.New(s.reg).ObserveFeed(domain.KindNews, service.OriginLive)
	s.router = NewRouter(s.feeds, s.reg, Config{APIKey: "secret"}, logger)
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) do(method, path, body string, withKey bool) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if withKey {
		req.Header.Set("X-API-KEY", "secret")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *APITestSuite) decode(w *httptest.ResponseRecorder) envelope {
	var env envelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func (s *APITestSuite) TestFetchNews_Live() {
	s.feeds.news = &service.Feed[domain.Article]{
		Items:  []domain.Article{{Title: "Lagos traffic update"}},
		Origin: service.OriginLive,
	}

	w := s.do(http.MethodPost, "/functions/fetch-news", `{"category":"Traffic","limit":5}`, true)

	s.Equal(http.StatusOK, w.Code)
	env := s.decode(w)
	s.True(env.Success)
	s.Equal("live", env.Source)
	s.Empty(env.Error)
	s.False(env.Timestamp.IsZero())
	s.Equal(domain.ListFilter{Category: "Traffic", Limit: 5}, s.feeds.newsReq)

	var items []domain.Article
	s.Require().NoError(json.Unmarshal(env.Data, &items))
	s.Len(items, 1)
}

func (s *APITestSuite) TestFetchNews_EmptyBody() {
	s.feeds.news = &service.Feed[domain.Article]{Origin: service.OriginLive}

	w := s.do(http.MethodPost, "/functions/fetch-news", "", true)

	s.Equal(http.StatusOK, w.Code)
	env := s.decode(w)
	s.JSONEq(`[]`, string(env.Data))
	s.Equal(domain.ListFilter{}, s.feeds.newsReq)
}

func (s *APITestSuite) TestFetchNews_Cached() {
	s.feeds.news = &service.Feed[domain.Article]{
		Items:  []domain.Article{{Title: "Stored"}},
		Origin: service.OriginCached,
		Reason: "source unavailable",
	}

	w := s.do(http.MethodPost, "/functions/fetch-news", `{}`, true)

	s.Equal(http.StatusOK, w.Code)
	env := s.decode(w)
	s.True(env.Success)
	s.Equal("cached", env.Source)
	s.Equal("source unavailable", env.Error)
}

func (s *APITestSuite) TestFetchVenues_Unavailable() {
	s.feeds.err = errors.New("database down")

	w := s.do(http.MethodPost, "/functions/fetch-venues", `{}`, true)

	s.Equal(http.StatusServiceUnavailable, w.Code)
	env := s.decode(w)
	s.False(env.Success)
	s.Contains(env.Error, "database down")
}

func (s *APITestSuite) TestFetchVenues_BadBody() {
	w := s.do(http.MethodPost, "/functions/fetch-venues", `{"limit":`, true)

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APITestSuite) TestSearchPlaces() {
	s.feeds.search = &service.SearchResult{
		Local: []domain.Venue{{Name: "Nok by Alara"}},
		Live:  []places.Place{},
		Query: "nok",
	}

	w := s.do(http.MethodPost, "/functions/search-places", `{"query":"nok","limit":3}`, true)

	s.Equal(http.StatusOK, w.Code)
	env := s.decode(w)
	s.True(env.Success)
	s.Equal(3, s.feeds.searchReq.Limit)

	var res service.SearchResult
	s.Require().NoError(json.Unmarshal(env.Data, &res))
	s.Equal("nok", res.Query)
	s.Len(res.Local, 1)
}

func (s *APITestSuite) TestSearchPlaces_MissingQuery() {
	w := s.do(http.MethodPost, "/functions/search-places", `{"category":"Lounge"}`, true)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "Search query is required")
}

func (s *APITestSuite) TestAPIKeyRequired() {
	w := s.do(http.MethodPost, "/functions/fetch-news", `{}`, false)

	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestPreflight() {
	w := s.do(http.MethodOptions, "/functions/fetch-news", "", false)

	s.Equal(http.StatusNoContent, w.Code)
	s.Equal("*", w.Header().Get("Access-Control-Allow-Origin"))
	s.Contains(w.Header().Get("Access-Control-Allow-Headers"), "content-type")
}

func (s *APITestSuite) TestHealthAndMetrics() {
	w := s.do(http.MethodGet, "/healthz", "", false)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/metrics", "", false)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "gidi_feed_responses_total")
}
