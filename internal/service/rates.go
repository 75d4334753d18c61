package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/apperr"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/model"

	"golang.org/x/sync/singleflight"
)

// RateTable resolves hourly rates per vehicle type. Lookups go through the
// cache when one is configured; unconfigured types get the default rate.
type RateTable struct {
	repo        RateRepo
	rdb         RedisClient
	ttl         time.Duration
	defaultRate float64
	group       singleflight.Group
}

func NewRateTable(repo RateRepo, rdb RedisClient, defaultRate float64, ttl time.Duration) *RateTable {
	return &RateTable{repo: repo, rdb: rdb, defaultRate: defaultRate, ttl: ttl}
}

func cacheKeyRate(vehicleType string) string {
	return fmt.Sprintf("rate:%s", vehicleType)
}

func normalizeVehicleType(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func (t *RateTable) DefaultRate() float64 {
	return t.defaultRate
}

// GetRate returns the hourly rate for vehicleType.
func (t *RateTable) GetRate(ctx context.Context, vehicleType string) (float64, error) {
	vt := normalizeVehicleType(vehicleType)
	if vt == "" {
		return t.defaultRate, nil
	}

	if t.rdb != nil {
		if raw, err := t.rdb.Get(ctx, cacheKeyRate(vt)); err == nil {
			if rate, err := strconv.ParseFloat(raw, 64); err == nil {
				return rate, nil
			}
		}
	}

	v, err, _ := t.group.Do(vt, func() (interface{}, error) {
		r, err := t.repo.GetRate(ctx, vt)
		if errors.Is(err, apperr.ErrNotFound) {
			return t.defaultRate, nil
		}
		if err != nil {
			return nil, err
		}
		t.cache(ctx, vt, r.HourlyRate)
		return r.HourlyRate, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func (t *RateTable) cache(ctx context.Context, vt string, rate float64) {
	if t.rdb == nil {
		return
	}
	if err := t.rdb.Set(ctx, cacheKeyRate(vt), strconv.FormatFloat(rate, 'f', -1, 64), t.ttl); err != nil {
		slog.Warn("rate cache set failed", "vehicle_type", vt, "err", err)
	}
}

func (t *RateTable) invalidate(ctx context.Context, vt string) {
	if t.rdb == nil {
		return
	}
	if err := t.rdb.Del(ctx, cacheKeyRate(vt)); err != nil {
		slog.Warn("rate cache invalidation failed", "vehicle_type", vt, "err", err)
	}
}

func (t *RateTable) ListRates(ctx context.Context) ([]model.ParkingRate, error) {
	return t.repo.ListRates(ctx)
}

func validateRate(vehicleType string, hourlyRate float64) (model.ParkingRate, error) {
	vt := normalizeVehicleType(vehicleType)
	if vt == "" {
		return model.ParkingRate{}, apperr.Validation("vehicle type is required")
	}
	if hourlyRate < 0 || math.IsNaN(hourlyRate) || math.IsInf(hourlyRate, 0) {
		return model.ParkingRate{}, apperr.Validation("hourly rate must be a non-negative number")
	}
	return model.ParkingRate{VehicleType: vt, HourlyRate: hourlyRate}, nil
}

// CreateRate adds a rate for a vehicle type that has none yet.
func (t *RateTable) CreateRate(ctx context.Context, vehicleType string, hourlyRate float64) (model.ParkingRate, error) {
	rate, err := validateRate(vehicleType, hourlyRate)
	if err != nil {
		return model.ParkingRate{}, err
	}
	if err := t.repo.CreateRate(ctx, rate); err != nil {
		return model.ParkingRate{}, err
	}
	t.invalidate(ctx, rate.VehicleType)
	return rate, nil
}

// UpsertRate sets the rate for future tickets; issued tickets keep their price.
func (t *RateTable) UpsertRate(ctx context.Context, vehicleType string, hourlyRate float64) (model.ParkingRate, error) {
	rate, err := validateRate(vehicleType, hourlyRate)
	if err != nil {
		return model.ParkingRate{}, err
	}
	if err := t.repo.UpsertRate(ctx, rate); err != nil {
		return model.ParkingRate{}, err
	}
	t.invalidate(ctx, rate.VehicleType)
	return rate, nil
}

func (t *RateTable) DeleteRate(ctx context.Context, vehicleType string) error {
	vt := normalizeVehicleType(vehicleType)
	if vt == "" {
		return apperr.Validation("vehicle type is required")
	}
	if err := t.repo.DeleteRate(ctx, vt); err != nil {
		return err
	}
	t.invalidate(ctx, vt)
	return nil
}
