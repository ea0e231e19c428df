package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gidi_ingest/internal/dedup"
	"gidi_ingest/internal/domain"
	"gidi_ingest/internal/metrics"
	"gidi_ingest/internal/validity"
)

const (
	maxRejectedSamples = 10
	publishTimeout     = 10 * time.Second
)

// recordStore is the part of a store one ingestion run needs.
type recordStore[R domain.Record] interface {
	Commit(ctx context.Context, batch []R, policy domain.ConflictPolicy) (*domain.CommitResult, error)
	ExistingByKeys(ctx context.Context, keys []string) ([]R, error)
}

// RunDeps are the collaborators shared by every ingestion job.
type RunDeps struct {
	RunState  RunStateStore
	Publisher Publisher
	Reports   ReportSink
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Now       func() time.Time
}

type pipeline[R domain.Record] struct {
	job       string
	kind      domain.Kind
	sources   []Source
	store     recordStore[R]
	normalize func(c domain.Candidate, observedAt time.Time) (R, error)
	check     func(r R) error
	policy    domain.ConflictPolicy
	fetch     FetchOptions
	deps      RunDeps
	logger    *slog.Logger
}

func (p *pipeline[R]) now() time.Time {
	if p.deps.Now != nil {
		return p.deps.Now()
	}
	return time.Now()
}

// run executes one ingestion run and returns the summary together with the
// freshest version of every key the run touched. Source failures and bad
// candidates are counted in the summary; only store failures are returned.
func (p *pipeline[R]) run(ctx context.Context) (*domain.RunSummary, []R, error) {
	summary := &domain.RunSummary{
		RunID:     uuid.NewString(),
		Job:       p.job,
		Kind:      p.kind,
		StartedAt: p.now(),
	}
	logger := p.logger.With("run_id", summary.RunID)
	logger.Info("starting run", "sources", len(p.sources), "policy", p.policy)

	candidates, reports := collect(ctx, p.sources, p.fetch, logger)
	summary.Sources = reports
	summary.Fetched = len(candidates)

	// Whatever was collected is committed even if ctx is already done.
	commitCtx := context.WithoutCancel(ctx)

	records := p.prepare(candidates, summary)
	kept, err := p.commit(commitCtx, records, summary, logger)

	summary.Duration = p.now().Sub(summary.StartedAt)
	p.finish(commitCtx, summary, logger)

	if err != nil {
		logger.Error("run failed", "error", err)
		return summary, kept, err
	}

	logger.Info("run completed",
		"fetched", summary.Fetched,
		"rejected", summary.Rejected,
		"duplicates", summary.Duplicates,
		"inserted", summary.Inserted,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"failures", len(summary.Failures),
		"source_failures", summary.SourceFailures(),
		"published", summary.Published,
		"duration", summary.Duration,
	)
	return summary, kept, nil
}

// prepare validates and normalizes candidates, dropping the bad ones.
func (p *pipeline[R]) prepare(candidates []domain.Candidate, summary *domain.RunSummary) []R {
	observedAt := summary.StartedAt
	records := make([]R, 0, len(candidates))
	for _, c := range candidates {
		r, err := p.prepareOne(c, observedAt)
		if err != nil {
			summary.Rejected++
			if len(summary.Samples) < maxRejectedSamples {
				summary.Samples = append(summary.Samples, domain.Rejection{
					SourceID: c.SourceID,
					Title:    c.Title,
					Reason:   err.Error(),
				})
			}
			continue
		}
		records = append(records, r)
	}
	return records
}

func (p *pipeline[R]) prepareOne(c domain.Candidate, observedAt time.Time) (R, error) {
	var zero R
	if err := validity.Candidate(c); err != nil {
		return zero, err
	}
	r, err := p.normalize(c, observedAt)
	if err != nil {
		return zero, err
	}
	if err := p.check(r); err != nil {
		return zero, err
	}
	return r, nil
}

func (p *pipeline[R]) commit(ctx context.Context, records []R, summary *domain.RunSummary, logger *slog.Logger) ([]R, error) {
	if len(records) == 0 {
		return nil, nil
	}

	existing, err := p.store.ExistingByKeys(ctx, dedup.Keys(records))
	if err != nil {
		return nil, fmt.Errorf("%w: load existing %s: %w", domain.ErrPersistence, p.kind, err)
	}

	reconciled := dedup.Reconcile(existing, records, p.check)
	summary.Duplicates = len(records) - len(reconciled.Fresh)
	if len(reconciled.Fresh) == 0 {
		return reconciled.Keep, nil
	}

	res, err := p.store.Commit(ctx, reconciled.Fresh, p.policy)
	if res != nil {
		summary.Inserted = res.Inserted
		summary.Updated = res.Updated
		summary.Skipped = res.Skipped
		summary.Failures = res.Failures
		p.publish(ctx, reconciled.Fresh, res.Committed, summary, logger)
	}
	if err != nil {
		if !errors.Is(err, domain.ErrPersistence) {
			err = fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
		return reconciled.Keep, fmt.Errorf("commit %s: %w", p.kind, err)
	}
	return p.settle(reconciled.Keep, existing, res.Committed), nil
}

// settle swaps every kept record the store did not write for the stored
// holder of its key, so the result matches what is persisted.
func (p *pipeline[R]) settle(keep, existing []R, committed []domain.CommittedRow) []R {
	if len(existing) == 0 {
		return keep
	}

	written := make(map[string]bool, len(committed))
	for _, row := range committed {
		written[row.Key] = true
	}
	stored := make(map[string]R, len(existing))
	for _, r := range dedup.Reconcile(existing, nil, p.check).Keep {
		stored[r.NaturalKey()] = r
	}

	out := make([]R, 0, len(keep))
	for _, r := range keep {
		key := r.NaturalKey()
		if holder, ok := stored[key]; ok && !written[key] {
			r = holder
		}
		out = append(out, r)
	}
	return out
}

func (p *pipeline[R]) publish(ctx context.Context, records []R, committed []domain.CommittedRow, summary *domain.RunSummary, logger *slog.Logger) {
	if p.deps.Publisher == nil || len(committed) == 0 {
		return
	}

	byKey := make(map[string]R, len(records))
	for _, r := range records {
		byKey[r.NaturalKey()] = r
	}

	for _, row := range committed {
		event := &domain.ContentEvent{
			Action: domain.ActionFor(row.Inserted),
			Kind:   p.kind,
			Key:    row.Key,
			RunID:  summary.RunID,
			Record: withID(byKey[row.Key], row.ID),
		}
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		err := p.deps.Publisher.Publish(pubCtx, event)
		cancel()
		if err != nil {
			logger.Warn("publish failed", "key", row.Key, "error", err)
			continue
		}
		summary.Published++
	}
}

// withID stamps the store id onto the published copy of a record.
func withID[R domain.Record](r R, id int64) any {
	switch v := any(r).(type) {
	case domain.Article:
		v.ID = id
		return v
	case domain.Venue:
		v.ID = id
		return v
	default:
		return r
	}
}

// finish records run state, archives the summary and updates metrics.
// Failures here are logged and never fail the run.
func (p *pipeline[R]) finish(ctx context.Context, summary *domain.RunSummary, logger *slog.Logger) {
	if p.deps.RunState != nil {
		if err := p.updateRunState(ctx, summary); err != nil {
			logger.Warn("update run state failed", "error", err)
		}
	}
	if p.deps.Reports != nil {
		if err := p.deps.Reports.Save(ctx, summary); err != nil {
			logger.Warn("archive run summary failed", "error", err)
		}
	}
	p.deps.Metrics.ObserveRun(summary)
}

func (p *pipeline[R]) updateRunState(ctx context.Context, summary *domain.RunSummary) error {
	state, err := p.deps.RunState.Get(ctx, p.job)
	if err != nil {
		return err
	}

	state.Job = p.job
	state.LastRunAt = summary.StartedAt
	state.LastRunID = summary.RunID
	state.TotalCommitted += int64(summary.Inserted + summary.Updated)

	return p.deps.RunState.Update(ctx, state)
}
