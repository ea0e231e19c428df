package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gidi_ingest/internal/domain"
)

// FetchOptions bounds how sources are pulled within one run.
type FetchOptions struct {
	Workers int
	Timeout time.Duration
}

type sourceResult struct {
	candidates []domain.Candidate
	report     domain.SourceReport
}

// collect fetches every source with at most opts.Workers in flight, each
// under its own timeout. Once ctx is done no further fetch starts. The
// returned candidates follow source order, whatever order fetches finish in.
func collect(ctx context.Context, sources []Source, opts FetchOptions, logger *slog.Logger) ([]domain.Candidate, []domain.SourceReport) {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	results := make([]sourceResult, len(sources))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, src := range sources {
		results[i].report.SourceID = src.ID()

		if ctx.Err() != nil {
			results[i].report.Error = notStarted(ctx)
			continue
		}
		select {
		case <-ctx.Done():
			results[i].report.Error = notStarted(ctx)
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = fetchOne(ctx, src, opts.Timeout, logger)
		}(i, src)
	}
	wg.Wait()

	var candidates []domain.Candidate
	reports := make([]domain.SourceReport, 0, len(sources))
	for _, r := range results {
		candidates = append(candidates, r.candidates...)
		reports = append(reports, r.report)
	}
	return candidates, reports
}

func notStarted(ctx context.Context) string {
	return fmt.Sprintf("%v: not started: %v", domain.ErrSourceUnavailable, ctx.Err())
}

func fetchOne(ctx context.Context, src Source, timeout time.Duration, logger *slog.Logger) sourceResult {
	start := time.Now()
	log := logger.With("source", src.ID())

	fetchCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res := sourceResult{report: domain.SourceReport{SourceID: src.ID()}}
	candidates, err := src.Fetch(fetchCtx)
	res.report.Duration = time.Since(start)
	if err != nil {
		if !errors.Is(err, domain.ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
		}
		res.report.Error = err.Error()
		log.Warn("source failed", "error", err, "duration", res.report.Duration)
		return res
	}

	for i := range candidates {
		if candidates[i].SourceID == "" {
			candidates[i].SourceID = src.ID()
		}
		if candidates[i].SourceName == "" {
			candidates[i].SourceName = src.Name()
		}
	}
	res.candidates = candidates
	res.report.Candidates = len(candidates)
	log.Debug("source fetched", "candidates", len(candidates), "duration", res.report.Duration)
	return res
}
