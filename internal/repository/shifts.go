package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/apperr"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/model"

	"github.com/google/uuid"
)

const shiftColumns = `id, officer_id, start_time, end_time, cash_collected, tickets_issued, notes`

func scanShift(s scanner) (model.Shift, error) {
	var (
		sh  model.Shift
		end sql.NullTime
	)
	if err := s.Scan(&sh.ID, &sh.OfficerID, &sh.StartTime, &end, &sh.CashCollected, &sh.TicketsIssued, &sh.Notes); err != nil {
		return model.Shift{}, err
	}
	if end.Valid {
		e := end.Time
		sh.EndTime = &e
	}
	return sh, nil
}

// CreateShift relies on the partial unique index over open shifts, so a
// second open shift for the officer is reported as apperr.ErrConflict.
func (r *Repo) CreateShift(ctx context.Context, s model.Shift) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shifts (`+shiftColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.ID, s.OfficerID, s.StartTime, s.EndTime, s.CashCollected, s.TicketsIssued, s.Notes)
	return translate(fmt.Sprintf("open shift for %s", s.OfficerID), err)
}

func (r *Repo) GetShift(ctx context.Context, id uuid.UUID) (model.Shift, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sh, err := scanShift(r.db.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1`, id))
	if err != nil {
		return model.Shift{}, translate(fmt.Sprintf("shift %s", id), err)
	}
	return sh, nil
}

func (r *Repo) FindOpenShift(ctx context.Context, officerID string) (model.Shift, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sh, err := scanShift(r.db.QueryRowContext(ctx, `
		SELECT `+shiftColumns+` FROM shifts WHERE officer_id = $1 AND end_time IS NULL
	`, officerID))
	if err != nil {
		return model.Shift{}, translate(fmt.Sprintf("open shift for %s", officerID), err)
	}
	return sh, nil
}

// ListShifts returns shifts newest first; an empty officerID lists all.
func (r *Repo) ListShifts(ctx context.Context, officerID string) ([]model.Shift, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + shiftColumns + ` FROM shifts`
	var args []any
	if officerID != "" {
		query += ` WHERE officer_id = $1`
		args = append(args, officerID)
	}
	query += ` ORDER BY start_time DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate("list shifts", err)
	}
	defer rows.Close()

	var res []model.Shift
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, translate("list shifts", err)
		}
		res = append(res, sh)
	}
	return res, translate("list shifts", rows.Err())
}

// CloseShift writes the summary over the shift's totals, only while it is
// still open.
func (r *Repo) CloseShift(ctx context.Context, id uuid.UUID, end time.Time, summary model.ShiftSummary) (model.Shift, error) {
	var closed model.Shift
	err := r.inTx(ctx, fmt.Sprintf("close shift %s", id), func(ctx context.Context, tx *sql.Tx) error {
		sh, err := scanShift(tx.QueryRowContext(ctx, `
			UPDATE shifts
			SET end_time = $2, cash_collected = $3, tickets_issued = $4, notes = $5
			WHERE id = $1 AND end_time IS NULL
			RETURNING `+shiftColumns,
			id, end, summary.CashCollected, summary.TicketsIssued, summary.Notes))
		if err == sql.ErrNoRows {
			return shiftStateError(ctx, tx, id)
		}
		closed = sh
		return err
	})
	return closed, err
}

// IncrementShift adds delta to an open shift in a single statement. A
// non-empty key is applied at most once.
func (r *Repo) IncrementShift(ctx context.Context, id uuid.UUID, key string, delta model.ShiftDelta) (model.Shift, bool, error) {
	var (
		out     model.Shift
		applied bool
	)
	err := r.inTx(ctx, fmt.Sprintf("accumulate shift %s", id), func(ctx context.Context, tx *sql.Tx) error {
		if key != "" {
			first, err := markApplied(ctx, tx, consumerShift, key)
			if err != nil {
				return err
			}
			if !first {
				sh, err := scanShift(tx.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1`, id))
				out = sh
				return err
			}
		}

		sh, err := scanShift(tx.QueryRowContext(ctx, `
			UPDATE shifts
			SET tickets_issued = tickets_issued + $2, cash_collected = cash_collected + $3
			WHERE id = $1 AND end_time IS NULL
			RETURNING `+shiftColumns,
			id, delta.TicketsIssued, delta.CashCollected))
		if err == sql.ErrNoRows {
			return shiftStateError(ctx, tx, id)
		}
		if err != nil {
			return err
		}
		out, applied = sh, true
		return nil
	})
	return out, applied, err
}

func shiftStateError(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM shifts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("shift %s", id)
	}
	return apperr.InvalidState("shift %s has no open session", id)
}
