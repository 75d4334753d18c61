package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/apperr"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/model"
)

// Tier thresholds, checked from the top down.
const (
	PlatinumPoints = 1000
	GoldPoints     = 500
	SilverPoints   = 100
)

var discountPercent = map[model.Tier]float64{
	model.TierRegular:  0,
	model.TierSilver:   5,
	model.TierGold:     10,
	model.TierPlatinum: 15,
}

func TierFromPoints(points int64) model.Tier {
	switch {
	case points >= PlatinumPoints:
		return model.TierPlatinum
	case points >= GoldPoints:
		return model.TierGold
	case points >= SilverPoints:
		return model.TierSilver
	default:
		return model.TierRegular
	}
}

// PointsFor returns the points earned by spending amount: one per full 10.
func PointsFor(amount float64) int64 {
	if amount <= 0 {
		return 0
	}
	return int64(math.Floor(amount / 10))
}

func DiscountPercent(tier model.Tier) float64 {
	return discountPercent[tier]
}

// ApplyDiscount returns the discount granted to tier on amount and the
// amount left to pay, both rounded to whole units.
func ApplyDiscount(amount float64, tier model.Tier) (discount, final float64) {
	discount = math.Round(amount * DiscountPercent(tier) / 100)
	final = math.Round(amount - discount)
	return discount, final
}

type Quote struct {
	Plate    string     `json:"license_plate"`
	Tier     model.Tier `json:"tier"`
	Percent  float64    `json:"discount_percent"`
	Amount   float64    `json:"amount"`
	Discount float64    `json:"discount"`
	Final    float64    `json:"final"`
}

type LoyaltyService struct {
	repo HistoryRepo
}

func NewLoyaltyService(repo HistoryRepo) *LoyaltyService {
	return &LoyaltyService{repo: repo}
}

// RecordVisit adds a visit worth amountSpent to the plate's history.
func (s *LoyaltyService) RecordVisit(ctx context.Context, plate string, amountSpent float64, now time.Time) (model.VehicleHistory, error) {
	plate = model.NormalizePlate(plate)
	if plate == "" {
		return model.VehicleHistory{}, apperr.Validation("license plate is required")
	}
	if amountSpent < 0 || math.IsNaN(amountSpent) {
		return model.VehicleHistory{}, apperr.Validation("amount spent must be non-negative")
	}
	h, _, err := s.repo.ApplyVisit(ctx, "", plate, now, visitUpdate(amountSpent, now))
	return h, err
}

// HandleTicketSettled records the visit once per ticket.
func (s *LoyaltyService) HandleTicketSettled(ctx context.Context, e model.TicketSettled) error {
	_, _, err := s.repo.ApplyVisit(ctx, e.TicketID.String(), model.NormalizePlate(e.Plate), e.SettledAt, visitUpdate(e.Amount, e.SettledAt))
	return err
}

func visitUpdate(amount float64, now time.Time) func(h *model.VehicleHistory) {
	return func(h *model.VehicleHistory) {
		h.VisitCount++
		h.TotalSpent += amount
		h.Points += PointsFor(amount)
		h.Tier = TierFromPoints(h.Points)
		h.LastVisit = now
	}
}

func (s *LoyaltyService) History(ctx context.Context, plate string) (model.VehicleHistory, error) {
	plate = model.NormalizePlate(plate)
	if plate == "" {
		return model.VehicleHistory{}, apperr.Validation("license plate is required")
	}
	return s.repo.GetVehicleHistory(ctx, plate)
}

// Quote prices amount for the plate's current tier. Unknown plates are
// quoted as Regular.
func (s *LoyaltyService) Quote(ctx context.Context, plate string, amount float64) (Quote, error) {
	if amount < 0 || math.IsNaN(amount) {
		return Quote{}, apperr.Validation("amount must be non-negative")
	}
	tier := model.TierRegular
	h, err := s.History(ctx, plate)
	switch {
	case err == nil:
		tier = h.Tier
	case !errors.Is(err, apperr.ErrNotFound):
		return Quote{}, err
	}
	discount, final := ApplyDiscount(amount, tier)
	return Quote{
		Plate:    model.NormalizePlate(plate),
		Tier:     tier,
		Percent:  DiscountPercent(tier),
		Amount:   amount,
		Discount: discount,
		Final:    final,
	}, nil
}
