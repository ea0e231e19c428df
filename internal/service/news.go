package service

import (
	"context"
	"sort"
	"strings"

	"gidi_ingest/internal/domain"
	"gidi_ingest/internal/normalize"
	"gidi_ingest/internal/validity"
)

const JobNews = "news"

type NewsService struct {
	pipeline *pipeline[domain.Article]
	articles ArticleStore
}

func NewNewsService(
	sources []Source,
	articles ArticleStore,
	normalizer *normalize.Normalizer,
	policy domain.ConflictPolicy,
	fetch FetchOptions,
	deps RunDeps,
) *NewsService {
	return &NewsService{
		pipeline: &pipeline[domain.Article]{
			job:       JobNews,
			kind:      domain.KindNews,
			sources:   sources,
			store:     articles,
			normalize: normalizer.Article,
			check:     validity.Article,
			policy:    policy,
			fetch:     fetch,
			deps:      deps,
			logger:    deps.Logger.With("job", JobNews),
		},
		articles: articles,
	}
}

func (s *NewsService) Name() string { return JobNews }

func (s *NewsService) Run(ctx context.Context) (*domain.RunSummary, error) {
	summary, _, err := s.pipeline.run(ctx)
	return summary, err
}

// Live runs the job and returns the run's articles, newest first,
// narrowed by filter.
func (s *NewsService) Live(ctx context.Context, filter domain.ListFilter) ([]domain.Article, *domain.RunSummary, error) {
	summary, kept, err := s.pipeline.run(ctx)
	if err != nil {
		return nil, summary, err
	}

	out := make([]domain.Article, 0, len(kept))
	for _, a := range kept {
		if filter.Category == "" || strings.EqualFold(a.Category, filter.Category) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return limit(out, filter.Limit), summary, nil
}

func (s *NewsService) Cached(ctx context.Context, filter domain.ListFilter) ([]domain.Article, error) {
	return s.articles.ListRecent(ctx, filter)
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
