package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/model"
)

const historyColumns = `license_plate, visit_count, total_spent, first_visit, last_visit, loyalty_points, tier`

func scanHistory(s scanner) (model.VehicleHistory, error) {
	var h model.VehicleHistory
	err := s.Scan(&h.Plate, &h.VisitCount, &h.TotalSpent, &h.FirstVisit, &h.LastVisit, &h.Points, &h.Tier)
	return h, err
}

func (r *Repo) GetVehicleHistory(ctx context.Context, plate string) (model.VehicleHistory, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	h, err := scanHistory(r.db.QueryRowContext(ctx, `SELECT `+historyColumns+` FROM vehicle_history WHERE license_plate = $1`, plate))
	if err != nil {
		return model.VehicleHistory{}, translate(fmt.Sprintf("history for %s", plate), err)
	}
	return h, nil
}

// ApplyVisit locks the plate's record, creating an empty one first seen at
// now, and lets update mutate it before writing it back. A non-empty key is
// applied at most once; repeats return the stored record and false.
func (r *Repo) ApplyVisit(ctx context.Context, key, plate string, now time.Time, update func(h *model.VehicleHistory)) (model.VehicleHistory, bool, error) {
	var (
		out     model.VehicleHistory
		applied bool
	)
	err := r.inTx(ctx, fmt.Sprintf("record visit for %s", plate), func(ctx context.Context, tx *sql.Tx) error {
		if key != "" {
			first, err := markApplied(ctx, tx, consumerLoyalty, key)
			if err != nil {
				return err
			}
			if !first {
				h, err := scanHistory(tx.QueryRowContext(ctx, `SELECT `+historyColumns+` FROM vehicle_history WHERE license_plate = $1`, plate))
				out = h
				return err
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO vehicle_history (`+historyColumns+`)
			VALUES ($1, 0, 0, $2, $2, 0, $3)
			ON CONFLICT (license_plate) DO NOTHING
		`, plate, now, model.TierRegular)
		if err != nil {
			return err
		}

		h, err := scanHistory(tx.QueryRowContext(ctx, `
			SELECT `+historyColumns+` FROM vehicle_history WHERE license_plate = $1 FOR UPDATE
		`, plate))
		if err != nil {
			return err
		}
		update(&h)

		_, err = tx.ExecContext(ctx, `
			UPDATE vehicle_history
			SET visit_count = $2, total_spent = $3, last_visit = $4, loyalty_points = $5, tier = $6
			WHERE license_plate = $1
		`, plate, h.VisitCount, h.TotalSpent, h.LastVisit, h.Points, h.Tier)
		if err != nil {
			return err
		}
		out, applied = h, true
		return nil
	})
	return out, applied, err
}
