package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gidi_ingest/internal/domain"
)

type txKey struct{}

// TransactionManager runs a sequence of store calls against one snapshot.
// Stores join the transaction through GetExecutor.
type TransactionManager struct {
	db   *sqlx.DB
	opts *sql.TxOptions
}

func NewTransactionManager(db *sqlx.DB) *TransactionManager {
	return &TransactionManager{
		db:   db,
		opts: &sql.TxOptions{Isolation: sql.LevelRepeatableRead},
	}
}

// WithTransaction commits when fn returns nil and rolls back otherwise. A
// call made inside a running transaction joins it.
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := tm.db.BeginTxx(ctx, tm.opts)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", domain.ErrPersistence, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit transaction: %w", domain.ErrPersistence, err)
	}
	return nil
}

func txFromContext(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx
}

// GetExecutor returns the transaction carried by ctx, or db.
func GetExecutor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return db
}
