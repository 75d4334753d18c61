package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/apperr"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/model"

	"github.com/google/uuid"
)

const passColumns = `id, customer_name, vehicle_plate, phone, start_time, end_time, status`

func scanPass(s scanner) (model.MonthlyPass, error) {
	var p model.MonthlyPass
	err := s.Scan(&p.ID, &p.CustomerName, &p.Plate, &p.Phone, &p.StartTime, &p.EndTime, &p.Status)
	return p, err
}

func (r *Repo) CreatePass(ctx context.Context, p model.MonthlyPass) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO monthly_passes (`+passColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.CustomerName, p.Plate, p.Phone, p.StartTime, p.EndTime, p.Status)
	return translate("create pass", err)
}

func (r *Repo) GetPass(ctx context.Context, id uuid.UUID) (model.MonthlyPass, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	p, err := scanPass(r.db.QueryRowContext(ctx, `SELECT `+passColumns+` FROM monthly_passes WHERE id = $1`, id))
	if err != nil {
		return model.MonthlyPass{}, translate(fmt.Sprintf("pass %s", id), err)
	}
	return p, nil
}

// ListPasses returns every pass, or only those for plate when it is set.
func (r *Repo) ListPasses(ctx context.Context, plate string) ([]model.MonthlyPass, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + passColumns + ` FROM monthly_passes`
	var args []any
	if plate != "" {
		query += ` WHERE vehicle_plate = $1`
		args = append(args, plate)
	}
	query += ` ORDER BY end_time DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate("list passes", err)
	}
	defer rows.Close()

	var res []model.MonthlyPass
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, translate("list passes", err)
		}
		res = append(res, p)
	}
	return res, translate("list passes", rows.Err())
}

// RevokePass flips a non-revoked pass to revoked.
func (r *Repo) RevokePass(ctx context.Context, id uuid.UUID) (model.MonthlyPass, error) {
	var revoked model.MonthlyPass
	err := r.inTx(ctx, fmt.Sprintf("revoke pass %s", id), func(ctx context.Context, tx *sql.Tx) error {
		p, err := scanPass(tx.QueryRowContext(ctx, `
			UPDATE monthly_passes SET status = $2
			WHERE id = $1 AND status <> $2
			RETURNING `+passColumns, id, model.PassRevoked))
		if err == sql.ErrNoRows {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM monthly_passes WHERE id = $1)`, id).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return apperr.NotFound("pass %s", id)
			}
			return apperr.InvalidState("pass %s is already revoked", id)
		}
		revoked = p
		return err
	})
	return revoked, err
}
