package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"gidi_ingest/internal/domain"
	"gidi_ingest/internal/source/places"
)

type ArticleStore interface {
	Commit(ctx context.Context, batch []domain.Article, policy domain.ConflictPolicy) (*domain.CommitResult, error)
	ExistingByKeys(ctx context.Context, keys []string) ([]domain.Article, error)
	ListRecent(ctx context.Context, filter domain.ListFilter) ([]domain.Article, error)
	ListAll(ctx context.Context) ([]domain.Article, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type VenueStore interface {
	Commit(ctx context.Context, batch []domain.Venue, policy domain.ConflictPolicy) (*domain.CommitResult, error)
	ExistingByKeys(ctx context.Context, keys []string) ([]domain.Venue, error)
	ListRecent(ctx context.Context, filter domain.ListFilter) ([]domain.Venue, error)
	Search(ctx context.Context, query, category string, limit int) ([]domain.Venue, error)
	ListAll(ctx context.Context) ([]domain.Venue, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type RunStateStore interface {
	Get(ctx context.Context, job string) (*domain.RunState, error)
	Update(ctx context.Context, state *domain.RunState) error
}

type Source interface {
	ID() string
	Name() string
	Fetch(ctx context.Context) ([]domain.Candidate, error)
}

type PlaceSearcher interface {
	Search(ctx context.Context, query, category, location string) ([]places.Place, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, event *domain.ContentEvent) error
	Close() error
}

type ReportSink interface {
	Save(ctx context.Context, summary *domain.RunSummary) error
}
