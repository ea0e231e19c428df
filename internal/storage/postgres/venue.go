package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"gidi_ingest/internal/domain"
)

const venueColumns = `id, name, description, location, address, category, image_url,
	professional_media_urls, price_range, rating, features, website_url, latitude,
	longitude, source, observed_at, is_verified, created_at, updated_at`

// venueRow is the scan target for venues; arrays and nullable coordinates
// need driver types.
type venueRow struct {
	ID          int64           `db:"id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Location    string          `db:"location"`
	Address     string          `db:"address"`
	Category    string          `db:"category"`
	ImageURL    string          `db:"image_url"`
	MediaURLs   pq.StringArray  `db:"professional_media_urls"`
	PriceRange  string          `db:"price_range"`
	Rating      float64         `db:"rating"`
	Features    pq.StringArray  `db:"features"`
	WebsiteURL  string          `db:"website_url"`
	Latitude    sql.NullFloat64 `db:"latitude"`
	Longitude   sql.NullFloat64 `db:"longitude"`
	Source      string          `db:"source"`
	ObservedAt  time.Time       `db:"observed_at"`
	IsVerified  bool            `db:"is_verified"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (r venueRow) toDomain() domain.Venue {
	v := domain.Venue{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Location:    r.Location,
		Address:     r.Address,
		Category:    r.Category,
		ImageURL:    r.ImageURL,
		MediaURLs:   []string(r.MediaURLs),
		PriceRange:  r.PriceRange,
		Rating:      r.Rating,
		Features:    []string(r.Features),
		WebsiteURL:  r.WebsiteURL,
		SourceName:  r.Source,
		Observed:    r.ObservedAt,
		IsVerified:  r.IsVerified,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.Latitude.Valid {
		lat := r.Latitude.Float64
		v.Latitude = &lat
	}
	if r.Longitude.Valid {
		lng := r.Longitude.Float64
		v.Longitude = &lng
	}
	return v
}

func toVenues(rows []venueRow) []domain.Venue {
	out := make([]domain.Venue, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}

type VenueStore struct {
	db *sqlx.DB
}

func NewVenueStore(db *sqlx.DB) *VenueStore {
	return &VenueStore{db: db}
}

func (s *VenueStore) Commit(ctx context.Context, batch []domain.Venue, policy domain.ConflictPolicy) (*domain.CommitResult, error) {
	if err := s.db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: ping store: %w", domain.ErrPersistence, err)
	}

	res := &domain.CommitResult{}
	for _, v := range batch {
		key := v.NaturalKey()
		id, inserted, err := s.upsert(ctx, v, policy)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			res.Skipped++
		case err != nil:
			res.Failures = append(res.Failures, domain.CommitFailure{Key: key, Reason: err.Error()})
		default:
			if inserted {
				res.Inserted++
			} else {
				res.Updated++
			}
			res.Committed = append(res.Committed, domain.CommittedRow{Key: key, ID: id, Inserted: inserted})
		}
	}

	if len(batch) > 0 && len(res.Failures) == len(batch) {
		return res, fmt.Errorf("%w: all %d rows failed: %s", domain.ErrPersistence, len(batch), res.Failures[0].Reason)
	}
	return res, nil
}

func (s *VenueStore) upsert(ctx context.Context, v domain.Venue, policy domain.ConflictPolicy) (int64, bool, error) {
	conflict := `DO NOTHING`
	if policy == domain.PolicyReplace {
		conflict = `DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			location = EXCLUDED.location,
			address = EXCLUDED.address,
			category = EXCLUDED.category,
			image_url = EXCLUDED.image_url,
			professional_media_urls = EXCLUDED.professional_media_urls,
			price_range = EXCLUDED.price_range,
			rating = EXCLUDED.rating,
			features = EXCLUDED.features,
			website_url = EXCLUDED.website_url,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			source = EXCLUDED.source,
			observed_at = EXCLUDED.observed_at,
			is_verified = EXCLUDED.is_verified,
			updated_at = NOW()
		WHERE venues.observed_at < EXCLUDED.observed_at
			OR btrim(venues.name) = ''
			OR btrim(venues.location) = ''
			OR venues.image_url NOT LIKE 'http%'`
	}

	query := `
		INSERT INTO venues (
			natural_key, name, description, location, address, category, image_url,
			professional_media_urls, price_range, rating, features, website_url,
			latitude, longitude, source, observed_at, is_verified
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)
		ON CONFLICT (natural_key) ` + conflict + `
		RETURNING id, (xmax = 0) AS inserted`

	var id int64
	var inserted bool
	err := s.db.QueryRowContext(ctx, query,
		v.NaturalKey(),
		v.Name,
		v.Description,
		v.Location,
		v.Address,
		v.Category,
		v.ImageURL,
		pq.StringArray(nonNil(v.MediaURLs)),
		v.PriceRange,
		v.Rating,
		pq.StringArray(nonNil(v.Features)),
		v.WebsiteURL,
		v.Latitude,
		v.Longitude,
		v.SourceName,
		v.Observed,
		v.IsVerified,
	).Scan(&id, &inserted)
	if err != nil {
		return 0, false, err
	}
	return id, inserted, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (s *VenueStore) ExistingByKeys(ctx context.Context, keys []string) ([]domain.Venue, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	query := `SELECT ` + venueColumns + ` FROM venues WHERE natural_key = ANY($1)`

	var rows []venueRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, query, pq.Array(keys)); err != nil {
		return nil, fmt.Errorf("select existing venues: %w", err)
	}
	return toVenues(rows), nil
}

// ListRecent returns the best rated venues, newest first among equals.
func (s *VenueStore) ListRecent(ctx context.Context, filter domain.ListFilter) ([]domain.Venue, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + venueColumns + ` FROM venues
		WHERE ($1::text = '' OR lower(category) = lower($1))
		ORDER BY rating DESC, observed_at DESC, id DESC
		LIMIT $2`

	var rows []venueRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, query, filter.Category, limit); err != nil {
		return nil, fmt.Errorf("list recent venues: %w", err)
	}
	return toVenues(rows), nil
}

// Search matches query case-insensitively against name, description and
// location.
func (s *VenueStore) Search(ctx context.Context, query, category string, limit int) ([]domain.Venue, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"

	q := `SELECT ` + venueColumns + ` FROM venues
		WHERE (name ILIKE $1 OR description ILIKE $1 OR location ILIKE $1)
		  AND ($2::text = '' OR lower(category) = lower($2))
		ORDER BY rating DESC, id
		LIMIT $3`

	var rows []venueRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, q, pattern, category, limit); err != nil {
		return nil, fmt.Errorf("search venues: %w", err)
	}
	return toVenues(rows), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *VenueStore) ListAll(ctx context.Context) ([]domain.Venue, error) {
	var rows []venueRow
	query := `SELECT ` + venueColumns + ` FROM venues ORDER BY observed_at DESC, id`
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query); err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	return toVenues(rows), nil
}

func (s *VenueStore) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, `DELETE FROM venues WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete venues: %w", err)
	}
	return res.RowsAffected()
}

func (s *VenueStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, `DELETE FROM venues`)
	if err != nil {
		return 0, fmt.Errorf("delete all venues: %w", err)
	}
	return res.RowsAffected()
}

func (s *VenueStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &n, `SELECT COUNT(*) FROM venues`); err != nil {
		return 0, fmt.Errorf("count venues: %w", err)
	}
	return n, nil
}
