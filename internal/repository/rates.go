package repository

import (
	"context"
	"fmt"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/apperr"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/model"
)

func (r *Repo) GetRate(ctx context.Context, vehicleType string) (model.ParkingRate, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var rate model.ParkingRate
	err := r.db.QueryRowContext(ctx, `
		SELECT vehicle_type, hourly_rate FROM parking_rates WHERE vehicle_type = $1
	`, vehicleType).Scan(&rate.VehicleType, &rate.HourlyRate)
	if err != nil {
		return model.ParkingRate{}, translate(fmt.Sprintf("rate for %s", vehicleType), err)
	}
	return rate, nil
}

func (r *Repo) ListRates(ctx context.Context) ([]model.ParkingRate, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT vehicle_type, hourly_rate FROM parking_rates ORDER BY vehicle_type`)
	if err != nil {
		return nil, translate("list rates", err)
	}
	defer rows.Close()

	var res []model.ParkingRate
	for rows.Next() {
		var rate model.ParkingRate
		if err := rows.Scan(&rate.VehicleType, &rate.HourlyRate); err != nil {
			return nil, translate("list rates", err)
		}
		res = append(res, rate)
	}
	return res, translate("list rates", rows.Err())
}

// CreateRate fails with apperr.ErrConflict when the vehicle type exists.
func (r *Repo) CreateRate(ctx context.Context, rate model.ParkingRate) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO parking_rates (vehicle_type, hourly_rate) VALUES ($1, $2)
	`, rate.VehicleType, rate.HourlyRate)
	return translate(fmt.Sprintf("create rate %s", rate.VehicleType), err)
}

func (r *Repo) UpsertRate(ctx context.Context, rate model.ParkingRate) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO parking_rates (vehicle_type, hourly_rate)
		VALUES ($1, $2)
		ON CONFLICT (vehicle_type) DO UPDATE
		  SET hourly_rate = EXCLUDED.hourly_rate
	`, rate.VehicleType, rate.HourlyRate)
	return translate(fmt.Sprintf("upsert rate %s", rate.VehicleType), err)
}

func (r *Repo) DeleteRate(ctx context.Context, vehicleType string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM parking_rates WHERE vehicle_type = $1`, vehicleType)
	if err != nil {
		return translate(fmt.Sprintf("delete rate %s", vehicleType), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translate(fmt.Sprintf("delete rate %s", vehicleType), err)
	}
	if n == 0 {
		return apperr.NotFound("rate for %s", vehicleType)
	}
	return nil
}
