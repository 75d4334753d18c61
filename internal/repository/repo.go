package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/apperr"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// Event consumers tracked in applied_events.
const (
	consumerLoyalty = "loyalty"
	consumerShift   = "shift"
)

// Repo is the postgres storage collaborator. Every call runs under the
// configured timeout; a timeout surfaces as apperr.ErrStorage.
type Repo struct {
	db      *sql.DB
	timeout time.Duration
}

func NewRepo(db *sql.DB, timeout time.Duration) *Repo {
	return &Repo{db: db, timeout: timeout}
}

func (r *Repo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// inTx runs fn in a transaction and commits when it returns nil.
func (r *Repo) inTx(ctx context.Context, op string, fn func(ctx context.Context, tx *sql.Tx) error) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return translate(op, err)
	}
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return translate(op, err)
	}
	return translate(op, tx.Commit())
}

// translate maps driver errors onto apperr kinds.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperr.Kind(err) != nil {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("%s", op)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return apperr.Conflict("%s: %s", op, pqErr.Constraint)
	}
	return apperr.Storage(op, err)
}

// markApplied records that consumer handled key. It reports false when the
// key was already recorded.
func markApplied(ctx context.Context, tx *sql.Tx, consumer, key string) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO applied_events (consumer, event_key)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, consumer, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}
