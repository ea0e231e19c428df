package service

import (
	"context"
	"sort"
	"strings"

	"gidi_ingest/internal/domain"
	"gidi_ingest/internal/normalize"
	"gidi_ingest/internal/validity"
)

const JobVenues = "venues"

type VenueService struct {
	pipeline *pipeline[domain.Venue]
	venues   VenueStore
}

func NewVenueService(
	sources []Source,
	venues VenueStore,
	normalizer *normalize.Normalizer,
	policy domain.ConflictPolicy,
	fetch FetchOptions,
	deps RunDeps,
) *VenueService {
	return &VenueService{
		pipeline: &pipeline[domain.Venue]{
			job:       JobVenues,
			kind:      domain.KindVenue,
			sources:   sources,
			store:     venues,
			normalize: normalizer.Venue,
			check:     validity.Venue,
			policy:    policy,
			fetch:     fetch,
			deps:      deps,
			logger:    deps.Logger.With("job", JobVenues),
		},
		venues: venues,
	}
}

func (s *VenueService) Name() string { return JobVenues }

func (s *VenueService) Run(ctx context.Context) (*domain.RunSummary, error) {
	summary, _, err := s.pipeline.run(ctx)
	return summary, err
}

// Live runs the job and returns the run's venues, best rated first.
func (s *VenueService) Live(ctx context.Context, filter domain.ListFilter) ([]domain.Venue, *domain.RunSummary, error) {
	summary, kept, err := s.pipeline.run(ctx)
	if err != nil {
		return nil, summary, err
	}

	out := make([]domain.Venue, 0, len(kept))
	for _, v := range kept {
		if filter.Category == "" || strings.EqualFold(v.Category, filter.Category) {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rating > out[j].Rating
	})
	return limit(out, filter.Limit), summary, nil
}

func (s *VenueService) Cached(ctx context.Context, filter domain.ListFilter) ([]domain.Venue, error) {
	return s.venues.ListRecent(ctx, filter)
}

func (s *VenueService) SearchLocal(ctx context.Context, query, category string, n int) ([]domain.Venue, error) {
	return s.venues.Search(ctx, query, category, n)
}
