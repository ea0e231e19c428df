package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"gidi_ingest/internal/domain"
)

type RunStateStore struct {
	db *sqlx.DB
}

func NewRunStateStore(db *sqlx.DB) *RunStateStore {
	return &RunStateStore{db: db}
}

func (s *RunStateStore) Get(ctx context.Context, job string) (*domain.RunState, error) {
	var state domain.RunState
	query := `
		SELECT id, job, last_run_at, last_run_id, total_committed
		FROM run_state
		WHERE job = $1`

	err := s.db.GetContext(ctx, &state, query, job)
	if errors.Is(err, sql.ErrNoRows) {
		// Jobs that never ran start empty
		return &domain.RunState{Job: job}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *RunStateStore) Update(ctx context.Context, state *domain.RunState) error {
	query := `
		INSERT INTO run_state (job, last_run_at, last_run_id, total_committed)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (job) DO UPDATE SET
			last_run_at = EXCLUDED.last_run_at,
			last_run_id = EXCLUDED.last_run_id,
			total_committed = EXCLUDED.total_committed`

	_, err := s.db.ExecContext(ctx, query,
		state.Job,
		state.LastRunAt,
		state.LastRunID,
		state.TotalCommitted,
	)
	return err
}
