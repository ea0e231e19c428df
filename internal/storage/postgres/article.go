package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"gidi_ingest/internal/domain"
)

const articleColumns = `id, title, summary, category, external_url, featured_image_url,
	source, publish_date, is_active, created_at, updated_at`

type ArticleStore struct {
	db *sqlx.DB
}

func NewArticleStore(db *sqlx.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// Commit writes batch row by row. A failing row is recorded and the rest
// of the batch continues.
func (s *ArticleStore) Commit(ctx context.Context, batch []domain.Article, policy domain.ConflictPolicy) (*domain.CommitResult, error) {
	if err := s.db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: ping store: %w", domain.ErrPersistence, err)
	}

	res := &domain.CommitResult{}
	for _, a := range batch {
		key := a.NaturalKey()
		id, inserted, err := s.upsert(ctx, a, policy)
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

func (s *ArticleStore) upsert(ctx context.Context, a domain.Article, policy domain.ConflictPolicy) (int64, bool, error) {
	conflict := `DO NOTHING`
	if policy == domain.PolicyReplace {
		conflict = `DO UPDATE SET
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			category = EXCLUDED.category,
			featured_image_url = EXCLUDED.featured_image_url,
			source = EXCLUDED.source,
			publish_date = EXCLUDED.publish_date,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
		WHERE news.publish_date < EXCLUDED.publish_date
			OR btrim(news.title) = ''
			OR news.featured_image_url NOT LIKE 'http%'`
	}

	query := `
		INSERT INTO news (
			title, summary, category, external_url, featured_image_url,
			source, publish_date, is_active
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		ON CONFLICT (external_url) ` + conflict + `
		RETURNING id, (xmax = 0) AS inserted`

	var id int64
	var inserted bool
	err := s.db.QueryRowContext(ctx, query,
		a.Title,
		a.Summary,
		a.Category,
		a.NaturalKey(),
		a.ImageURL,
		a.SourceName,
		a.PublishedAt,
		a.IsActive,
	).Scan(&id, &inserted)
	if err != nil {
		return 0, false, err
	}
	return id, inserted, nil
}

// ExistingByKeys returns stored rows whose external URL is among keys.
func (s *ArticleStore) ExistingByKeys(ctx context.Context, keys []string) ([]domain.Article, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	query := `SELECT ` + articleColumns + ` FROM news WHERE external_url = ANY($1)`

	var articles []domain.Article
	if err := sqlx.SelectContext(ctx, s.db, &articles, query, pq.Array(keys)); err != nil {
		return nil, fmt.Errorf("select existing news: %w", err)
	}
	return articles, nil
}

func (s *ArticleStore) ListRecent(ctx context.Context, filter domain.ListFilter) ([]domain.Article, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT ` + articleColumns + ` FROM news
		WHERE is_active AND ($1::text = '' OR lower(category) = lower($1))
		ORDER BY publish_date DESC, id DESC
		LIMIT $2`

	var articles []domain.Article
	if err := sqlx.SelectContext(ctx, s.db, &articles, query, filter.Category, limit); err != nil {
		return nil, fmt.Errorf("list recent news: %w", err)
	}
	return articles, nil
}

func (s *ArticleStore) ListAll(ctx context.Context) ([]domain.Article, error) {
	var articles []domain.Article
	query := `SELECT ` + articleColumns + ` FROM news ORDER BY publish_date DESC, id`
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &articles, query); err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	return articles, nil
}

func (s *ArticleStore) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, `DELETE FROM news WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete news: %w", err)
	}
	return res.RowsAffected()
}

func (s *ArticleStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, `DELETE FROM news`)
	if err != nil {
		return 0, fmt.Errorf("delete all news: %w", err)
	}
	return res.RowsAffected()
}

func (s *ArticleStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &n, `SELECT COUNT(*) FROM news`); err != nil {
		return 0, fmt.Errorf("count news: %w", err)
	}
	return n, nil
}
