package service

import (
	"context"
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
)

type NewsServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	punch     *mocks.MockSource
	guardian  *mocks.MockSource
	articles  *mocks.MockArticleStore
	runState  *mocks.MockRunStateStore
	publisher *mocks.MockPublisher
	reports   *mocks.MockReportSink

	service *NewsService
	now     time.Time
	logger  *slog.Logger
}

func (s *NewsServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.punch = mocks.NewMockSource(s.ctrl)
	s.guardian = mocks.NewMockSource(s.ctrl)
	s.articles = mocks.NewMockArticleStore(s.ctrl)
	s.runState = mocks.NewMockRunStateStore(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	s.reports = mocks.NewMockReportSink(s.ctrl)

	s.now = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.punch.EXPECT().ID().Return("punch").AnyTimes()
	s.punch.EXPECT().Name().Return("Punch").AnyTimes()
	s.guardian.EXPECT().ID().Return("guardian").AnyTimes()
	s.guardian.EXPECT().Name().Return("Guardian").AnyTimes()

	normalizer := normalize.New(normalize.DefaultLimits, media.NewNewsResolver(nil), media.NewVenueResolver(nil))

	s.service = NewNewsService(
		[]Source{s.punch, s.guardian},
		s.articles,
		normalizer,
		domain.PolicyIgnore,
		FetchOptions{Workers: 2, Timeout: 200 * time.Millisecond},
		RunDeps{
			RunState:  s.runState,
			Publisher: s.publisher,
			Reports:   s.reports,
			Logger:    s.logger,
			Now:       func() time.Time { return s.now },
		},
	)
}

func (s *NewsServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestNewsServiceTestSuite(t *testing.T) {
	suite.Run(t, new(NewsServiceTestSuite))
}

func newsCandidate(title, url string, published time.Time) domain.Candidate {
	return domain.Candidate{
		Title:       title,
		URL:         url,
		Origin:      "https://punchng.com",
		PublishedAt: published,
	}
}

// expectBookkeeping covers the run state and report writes every run ends with.
func (s *NewsServiceTestSuite) expectBookkeeping() {
	s.runState.EXPECT().Get(gomock.Any(), JobNews).Return(&domain.RunState{Job: JobNews, TotalCommitted: 5}, nil)
	s.runState.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
	s.reports.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
}

func (s *NewsServiceTestSuite) TestRun_NewArticles() {
	ctx := context.Background()

	s.punch.EXPECT().Fetch(gomock.Any()).Return([]domain.Candidate{
		newsCandidate("Traffic gridlock on Third Mainland Bridge", "https://punchng.com/news/bridge", s.now.Add(-time.Hour)),
	}, nil)
	s.guardian.EXPECT().Fetch(gomock.Any()).Return([]domain.Candidate{
		newsCandidate("New food spot opens in Lekki", "https://guardian.ng/food/jollof", s.now.Add(-2*time.Hour)),
	}, nil)

	s.articles.EXPECT().ExistingByKeys(gomock.Any(), gomock.Len(2)).Return(nil, nil)
	s.articles.EXPECT().Commit(gomock.Any(), gomock.Len(2), domain.PolicyIgnore).DoAndReturn(
		func(_ context.Context, batch []domain.Article, _ domain.ConflictPolicy) (*domain.CommitResult, error) {
			s.Equal("https://punchng.com/news/bridge", batch[0].ExternalURL)
			s.Equal(domain.CategoryTraffic, batch[0].Category)
			s.Equal("Punch", batch[0].SourceName)
			s.Equal(domain.CategoryFood, batch[1].Category)
			s.NotEmpty(batch[1].ImageURL)
			return &domain.CommitResult{
				Inserted: 2,
				Committed: []domain.CommittedRow{
					{Key: batch[0].NaturalKey(), ID: 1, Inserted: true},
					{Key: batch[1].NaturalKey(), ID: 2, Inserted: true},
				},
			}, nil
		},
	)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e *domain.ContentEvent) error {
			s.Equal(domain.ActionCreate, e.Action)
			s.Equal(domain.KindNews, e.Kind)
			s.NotEmpty(e.RunID)
			a, ok := e.Record.(domain.Article)
			s.True(ok)
			s.NotZero(a.ID)
			return nil
		},
	).Times(2)
	s.runState.EXPECT().Get(gomock.Any(), JobNews).Return(&domain.RunState{Job: JobNews, TotalCommitted: 5}, nil)
	s.runState.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, state *domain.RunState) error {
			s.Equal(int64(7), state.TotalCommitted)
			s.Equal(s.now, state.LastRunAt)
			return nil
		},
	)
	s.reports.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

	summary, err := s.service.Run(ctx)

	s.NoError(err)
	s.Equal(JobNews, summary.Job)
	s.Equal(2, summary.Fetched)
	s.Equal(2, summary.Inserted)
	s.Equal(0, summary.Rejected)
	s.Equal(2, summary.Published)
	s.Equal(0, summary.SourceFailures())
}

func (s *NewsServiceTestSuite) TestRun_DenyListedURLNeverReachesStore() {
	ctx := context.Background()

	s.punch.EXPECT().Fetch(gomock.Any()).Return([]domain.Candidate{
		newsCandidate("Fake story that must be dropped", "https://example.com/fake", s.now),
		newsCandidate("Eko Hotel hosts Lagos fashion week", "https://punchng.com/events/fashion", s.now),
	}, nil)
	s.guardian.EXPECT().Fetch(gomock.Any()).Return(nil, nil)

	s.articles.EXPECT().ExistingByKeys(gomock.Any(), []string{"https://punchng.com/events/fashion"}).Return(nil, nil)
	s.articles.EXPECT().Commit(gomock.Any(), gomock.Len(1), domain.PolicyIgnore).DoAndReturn(
		func(_ context.Context, batch []domain.Article, _ domain.ConflictPolicy) (*domain.CommitResult, error) {
			s.Equal("https://punchng.com/events/fashion", batch[0].ExternalURL)
			return &domain.CommitResult{Inserted: 1}, nil
		},
	)
	s.expectBookkeeping()

	summary, err := s.service.Run(ctx)

	s.NoError(err)
	s.Equal(1, summary.Rejected)
	s.Require().Len(summary.Samples, 1)
	s.Equal("punch", summary.Samples[0].SourceID)
	s.Contains(summary.Samples[0].Reason, "example.com")
}

func (s *NewsServiceTestSuite) TestRun_SourceTimeoutDoesNotFailRun() {
	ctx := context.Background()

	s.punch.EXPECT().Fetch(gomock.Any()).DoAndReturn(
		func(ctx context.Context) ([]domain.Candidate, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	)
	s.guardian.EXPECT().Fetch(gomock.Any()).Return([]domain.Candidate{
		newsCandidate("Concert at Muri Okunola Park tonight", "https://guardian.ng/events/concert", s.now),
	}, nil)

	s.articles.EXPECT().ExistingByKeys(gomock.Any(), gomock.Len(1)).Return(nil, nil)
	s.articles.EXPECT().Commit(gomock.Any(), gomock.Len(1), domain.PolicyIgnore).Return(&domain.CommitResult{Inserted: 1}, nil)
	s.expectBookkeeping()

	summary, err := s.service.Run(ctx)

	s.NoError(err)
	s.Equal(1, summary.Inserted)
	s.Equal(1, summary.SourceFailures())
	s.Equal("punch", summary.Sources[0].SourceID)
	s.Contains(summary.Sources[0].Error, domain.ErrSourceUnavailable.Error())
	s.Equal(1, summary.Sources[1].Candidates)
}

func (s *NewsServiceTestSuite) TestRun_SameURLKeepsNewest() {
	ctx := context.Background()
	t1 := s.now.Add(-3 * time.Hour)
	t2 := s.now.Add(-time.Hour)

	s.punch.EXPECT().Fetch(gomock.Any()).Return([]domain.Candidate{
		newsCandidate("Lagos roads update, first version", "https://punchng.com/roads", t1),
	}, nil)
	s.guardian.EXPECT().Fetch(gomock.Any()).Return([]domain.Candidate{
		newsCandidate("Lagos roads update, second version", "https://PUNCHNG.com/roads/", t2),
	}, nil)

	s.articles.EXPECT().ExistingByKeys(gomock.Any(), []string{"https://punchng.com/roads"}).Return(nil, nil)
	s.articles.EXPECT().Commit(gomock.Any(), gomock.Len(1), domain.PolicyIgnore).DoAndReturn(
		func(_ context.Context, batch []domain.Article, _ domain.ConflictPolicy) (*domain.CommitResult, error) {
			s.Equal(t2, batch[0].PublishedAt)
			s.Equal("Lagos roads update, second version", batch[0].Title)
			return &domain.CommitResult{Inserted: 1}, nil
		},
	)
	s.expectBookkeeping()

	summary, err := s.service.Run(ctx)

	s.NoError(err)
	s.Equal(1, summary.Duplicates)
}

func (s *NewsServiceTestSuite) TestRun_StoredNewerRowWins() {
	ctx := context.Background()

	s.punch.EXPECT().Fetch(gomock.Any()).Return([]domain.Candidate{
		newsCandidate("Stale copy of a Lagos headline", "https://punchng.com/headline", s.now.Add(-2*time.Hour)),
	}, nil)
	s.guardian.EXPECT().Fetch(gomock.Any()).Return(nil, nil)

	s.articles.EXPECT().ExistingByKeys(gomock.Any(), gomock.Any()).Return([]domain.Article{{
		ID:          9,
		Title:       "Fresh Lagos headline",
		ExternalURL: "https://punchng.com/headline",
		ImageURL:    "https://punchng.com/headline.jpg",
		PublishedAt: s.now,
	}}, nil)
	s.articles.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	s.expectBookkeeping()

	summary, err := s.service.Run(ctx)

	s.NoError(err)
	s.Equal(1, summary.Duplicates)
	s.Equal(0, summary.Inserted)
}

func (s *NewsServiceTestSuite) TestRun_PersistenceFailure() {
	ctx := context.Background()

	s.punch.EXPECT().Fetch(gomock.Any()).Return([]domain.Candidate{
		newsCandidate("Ikeja nightlife guide for the weekend", "https://punchng.com/nightlife", s.now),
	}, nil)
	s.guardian.EXPECT().Fetch(gomock.Any()).Return(nil, nil)

	s.articles.EXPECT().ExistingByKeys(gomock.Any(), gomock.Any()).Return(nil, nil)
	s.articles.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, domain.ErrPersistence)
	s.expectBookkeeping()

	summary, err := s.service.Run(ctx)

	s.ErrorIs(err, domain.ErrPersistence)
	s.NotNil(summary)
	s.Equal(0, summary.Published)
}

func (s *NewsServiceTestSuite) TestRun_CancelledBeforeStartFetchesNothing() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.punch.EXPECT().Fetch(gomock.Any()).Times(0)
	s.guardian.EXPECT().Fetch(gomock.Any()).Times(0)
	s.articles.EXPECT().ExistingByKeys(gomock.Any(), gomock.Any()).Times(0)
	s.expectBookkeeping()

	summary, err := s.service.Run(ctx)

	s.NoError(err)
	s.Equal(2, summary.SourceFailures())
}

func (s *NewsServiceTestSuite) TestLive_FiltersAndSortsRunRecords() {
	ctx := context.Background()

	s.punch.EXPECT().Fetch(gomock.Any()).Return([]domain.Candidate{
		newsCandidate("Accident slows traffic on Lekki expressway", "https://punchng.com/a", s.now.Add(-2*time.Hour)),
		newsCandidate("Traffic diversion at Ojuelegba this week", "https://punchng.com/b", s.now.Add(-time.Hour)),
		newsCandidate("Food festival returns to Lagos", "https://punchng.com/c", s.now),
	}, nil)
	s.guardian.EXPECT().Fetch(gomock.Any()).Return(nil, nil)

	s.articles.EXPECT().ExistingByKeys(gomock.Any(), gomock.Any()).Return(nil, nil)
	s.articles.EXPECT().Commit(gomock.Any(), gomock.Len(3), gomock.Any()).Return(&domain.CommitResult{Inserted: 3}, nil)
	s.expectBookkeeping()

	items, summary, err := s.service.Live(ctx, domain.ListFilter{Category: domain.CategoryTraffic, Limit: 5})

	s.NoError(err)
	s.Equal(3, summary.Inserted)
	s.Require().Len(items, 2)
	s.Equal("https://punchng.com/b", items[0].ExternalURL)
	s.Equal("https://punchng.com/a", items[1].ExternalURL)
}

func (s *NewsServiceTestSuite) TestLive_IgnorePolicyReturnsStoredRowForSkippedKeys() {
	ctx := context.Background()

	stored := domain.Article{
		ID:          41,
		Title:       "Road closure on Eko Bridge",
		ExternalURL: "https://punchng.com/a",
		ImageURL:    "https://punchng.com/eko.jpg",
		Category:    domain.CategoryTraffic,
		PublishedAt: s.now.Add(-3 * time.Hour),
	}

	s.punch.EXPECT().Fetch(gomock.Any()).Return([]domain.Candidate{
		newsCandidate("Road closure on Eko Bridge extended", "https://punchng.com/a", s.now.Add(-time.Hour)),
		newsCandidate("Bridge repairs begin in Ikoyi", "https://punchng.com/b", s.now),
	}, nil)
	s.guardian.EXPECT().Fetch(gomock.Any()).Return(nil, nil)

	s.articles.EXPECT().ExistingByKeys(gomock.Any(), gomock.Len(2)).Return([]domain.Article{stored}, nil)
	s.articles.EXPECT().Commit(gomock.Any(), gomock.Len(2), domain.PolicyIgnore).DoAndReturn(
		func(_ context.Context, batch []domain.Article, _ domain.ConflictPolicy) (*domain.CommitResult, error) {
			return &domain.CommitResult{
				Inserted:  1,
				Skipped:   1,
				Committed: []domain.CommittedRow{{Key: batch[1].NaturalKey(), ID: 42, Inserted: true}},
			}, nil
		},
	)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
	s.expectBookkeeping()

	items, summary, err := s.service.Live(ctx, domain.ListFilter{})

	s.NoError(err)
	s.Equal(1, summary.Skipped)
	s.Require().Len(items, 2)
	s.Equal("https://punchng.com/b", items[0].ExternalURL)
	s.Equal(stored, items[1])
}
