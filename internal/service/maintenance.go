package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"gidi_ingest/internal/dedup"
	"gidi_ingest/internal/domain"
	"gidi_ingest/internal/validity"
)

const (
	OpClearAll         = "clear-all"
	OpDeleteInvalid    = "delete-invalid"
	OpDeleteDuplicates = "delete-duplicates"
	OpCheck            = "check"

	maxReportSamples = 10
)

type MaintenanceReport struct {
	Operation string
	Kind      domain.Kind
	DryRun    bool
	Before    int64
	Affected  int64
	After     int64
	Samples   []string
	// Stats is filled by the check operation only.
	Stats *StoreStats
}

func (r *MaintenanceReport) String() string {
	var b strings.Builder
	mode := ""
	if r.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(&b, "%s on %s%s\n", r.Operation, r.Kind, mode)
	fmt.Fprintf(&b, "  rows before: %d\n", r.Before)
	if r.Operation != OpCheck {
		verb := "deleted"
		if r.DryRun {
			verb = "would delete"
		}
		fmt.Fprintf(&b, "  %s: %d\n", verb, r.Affected)
		fmt.Fprintf(&b, "  rows after: %d\n", r.After)
	}
	if r.Stats != nil {
		r.Stats.write(&b)
	}
	for _, s := range r.Samples {
		fmt.Fprintf(&b, "  - %s\n", s)
	}
	return b.String()
}

// StoreStats summarizes the stored rows of one kind.
type StoreStats struct {
	ByCategory     map[string]int
	FallbackImages int
	AverageRating  float64
}

func (s *StoreStats) write(b *strings.Builder) {
	categories := make([]string, 0, len(s.ByCategory))
	for c := range s.ByCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		fmt.Fprintf(b, "  %s: %d\n", c, s.ByCategory[c])
	}
	fmt.Fprintf(b, "  fallback images: %d\n", s.FallbackImages)
	if s.AverageRating > 0 {
		fmt.Fprintf(b, "  average rating: %.1f/5.0\n", s.AverageRating)
	}
}

// FallbackChecker tells rotation images apart from source images.
type FallbackChecker interface {
	IsFallback(url string) bool
}

type MaintenanceService struct {
	articles  ArticleStore
	venues    VenueStore
	txManager TransactionManager
	newsImgs  FallbackChecker
	venueImgs FallbackChecker
	logger    *slog.Logger
}

func NewMaintenanceService(
	articles ArticleStore,
	venues VenueStore,
	txManager TransactionManager,
	newsImages FallbackChecker,
	venueImages FallbackChecker,
	logger *slog.Logger,
) *MaintenanceService {
	return &MaintenanceService{
		articles:  articles,
		venues:    venues,
		txManager: txManager,
		newsImgs:  newsImages,
		venueImgs: venueImages,
		logger:    logger.With("component", "maintenance"),
	}
}

// table adapts one store to the kind-agnostic maintenance operations.
type table struct {
	count       func(ctx context.Context) (int64, error)
	deleteAll   func(ctx context.Context) (int64, error)
	deleteByIDs func(ctx context.Context, ids []int64) (int64, error)
	// rows lists stored rows as candidates for a sweep.
	rows func(ctx context.Context) ([]row, error)
}

type row struct {
	id       int64
	label    string
	category string
	image    string
	rating   float64
	invalid  error
}

func (m *MaintenanceService) tableFor(kind domain.Kind) (*table, error) {
	switch kind {
	case domain.KindNews:
		return &table{
			count:       m.articles.Count,
			deleteAll:   m.articles.DeleteAll,
			deleteByIDs: m.articles.DeleteByIDs,
			rows: func(ctx context.Context) ([]row, error) {
				all, err := m.articles.ListAll(ctx)
				if err != nil {
					return nil, err
				}
				out := make([]row, 0, len(all))
				for _, a := range all {
					out = append(out, row{
						id:       a.ID,
						label:    a.Title + " <" + a.ExternalURL + ">",
						category: a.Category,
						image:    a.ImageURL,
						invalid:  validity.Article(a),
					})
				}
				return out, nil
			},
		}, nil
	case domain.KindVenue:
		return &table{
			count:       m.venues.Count,
			deleteAll:   m.venues.DeleteAll,
			deleteByIDs: m.venues.DeleteByIDs,
			rows: func(ctx context.Context) ([]row, error) {
				all, err := m.venues.ListAll(ctx)
				if err != nil {
					return nil, err
				}
				out := make([]row, 0, len(all))
				for _, v := range all {
					out = append(out, row{
						id:       v.ID,
						label:    v.Name + " (" + v.Location + ")",
						category: v.Category,
						image:    v.ImageURL,
						rating:   v.Rating,
						invalid:  validity.Venue(v),
					})
				}
				return out, nil
			},
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrConfiguration, kind)
	}
}

func (m *MaintenanceService) ClearAll(ctx context.Context, kind domain.Kind, dryRun bool) (*MaintenanceReport, error) {
	t, err := m.tableFor(kind)
	if err != nil {
		return nil, err
	}
	report := &MaintenanceReport{Operation: OpClearAll, Kind: kind, DryRun: dryRun}

	if report.Before, err = t.count(ctx); err != nil {
		return nil, fmt.Errorf("count %s: %w", kind, err)
	}
	if dryRun {
		report.Affected = report.Before
		report.After = report.Before
		return report, nil
	}

	err = m.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		n, err := t.deleteAll(txCtx)
		report.Affected = n
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("clear %s: %w", kind, err)
	}
	return m.finish(ctx, t, report)
}

// selector picks the ids a sweep removes, with a label per id.
type selector func(ctx context.Context, t *table) (ids []int64, labels []string, err error)

// DeleteInvalid removes rows that fail the same checks ingestion applies.
func (m *MaintenanceService) DeleteInvalid(ctx context.Context, kind domain.Kind, dryRun bool) (*MaintenanceReport, error) {
	return m.sweep(ctx, kind, OpDeleteInvalid, dryRun, func(ctx context.Context, t *table) ([]int64, []string, error) {
		rows, err := t.rows(ctx)
		if err != nil {
			return nil, nil, err
		}
		var ids []int64
		var labels []string
		for _, r := range rows {
			if r.invalid != nil {
				ids = append(ids, r.id)
				labels = append(labels, r.label+": "+r.invalid.Error())
			}
		}
		return ids, labels, nil
	})
}

// DeleteDuplicates keeps the freshest valid row per natural key and removes
// the rest.
func (m *MaintenanceService) DeleteDuplicates(ctx context.Context, kind domain.Kind, dryRun bool) (*MaintenanceReport, error) {
	return m.sweep(ctx, kind, OpDeleteDuplicates, dryRun, func(ctx context.Context, _ *table) ([]int64, []string, error) {
		var ids []int64
		var labels []string
		switch kind {
		case domain.KindNews:
			all, err := m.articles.ListAll(ctx)
			if err != nil {
				return nil, nil, err
			}
			for _, a := range dedup.Reconcile(all, nil, validity.Article).Delete {
				ids = append(ids, a.ID)
				labels = append(labels, a.Title+" <"+a.ExternalURL+">")
			}
		case domain.KindVenue:
			all, err := m.venues.ListAll(ctx)
			if err != nil {
				return nil, nil, err
			}
			for _, v := range dedup.Reconcile(all, nil, validity.Venue).Delete {
				ids = append(ids, v.ID)
				labels = append(labels, v.Name+" ("+v.Location+")")
			}
		}
		return ids, labels, nil
	})
}

func (m *MaintenanceService) sweep(ctx context.Context, kind domain.Kind, op string, dryRun bool, pick selector) (*MaintenanceReport, error) {
	t, err := m.tableFor(kind)
	if err != nil {
		return nil, err
	}
	report := &MaintenanceReport{Operation: op, Kind: kind, DryRun: dryRun}

	if report.Before, err = t.count(ctx); err != nil {
		return nil, fmt.Errorf("count %s: %w", kind, err)
	}

	err = m.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		ids, labels, err := pick(txCtx, t)
		if err != nil {
			return fmt.Errorf("select rows: %w", err)
		}
		report.Samples = sample(labels)
		if dryRun {
			report.Affected = int64(len(ids))
			return nil
		}
		report.Affected, err = t.deleteByIDs(txCtx, ids)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", op, kind, err)
	}

	if dryRun {
		report.After = report.Before
		return report, nil
	}
	return m.finish(ctx, t, report)
}

func (m *MaintenanceService) finish(ctx context.Context, t *table, report *MaintenanceReport) (*MaintenanceReport, error) {
	after, err := t.count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", report.Kind, err)
	}
	report.After = after
	m.logger.Info("maintenance completed",
		"operation", report.Operation,
		"kind", report.Kind,
		"before", report.Before,
		"affected", report.Affected,
		"after", report.After,
	)
	return report, nil
}

// Check is read-only: per-category counts, how many rows carry a rotation
// image, and (venues) the average rating.
func (m *MaintenanceService) Check(ctx context.Context, kind domain.Kind) (*MaintenanceReport, error) {
	t, err := m.tableFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := t.rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}

	fallback := m.newsImgs
	if kind == domain.KindVenue {
		fallback = m.venueImgs
	}

	stats := &StoreStats{ByCategory: make(map[string]int)}
	var ratingSum float64
	var invalid []string
	for _, r := range rows {
		stats.ByCategory[r.category]++
		if fallback != nil && fallback.IsFallback(r.image) {
			stats.FallbackImages++
		}
		ratingSum += r.rating
		if r.invalid != nil {
			invalid = append(invalid, r.label+": "+r.invalid.Error())
		}
	}
	if kind == domain.KindVenue && len(rows) > 0 {
		stats.AverageRating = ratingSum / float64(len(rows))
	}

	return &MaintenanceReport{
		Operation: OpCheck,
		Kind:      kind,
		Before:    int64(len(rows)),
		After:     int64(len(rows)),
		Samples:   sample(invalid),
		Stats:     stats,
	}, nil
}

func sample(labels []string) []string {
	if len(labels) > maxReportSamples {
		return labels[:maxReportSamples]
	}
	return labels
}
