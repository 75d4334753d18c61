package service

import (
	"context"
	"time"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/model"

	"github.com/google/uuid"
)

type TicketRepo interface {
	CreateTicket(ctx context.Context, t model.Ticket) error
	GetTicket(ctx context.Context, id uuid.UUID) (model.Ticket, error)
	FindActiveTicketByPlate(ctx context.Context, plate string) (model.Ticket, error)
	ListTickets(ctx context.Context, f model.TicketFilter) ([]model.Ticket, error)
	CloseTicket(ctx context.Context, id uuid.UUID, status model.TicketStatus, fine float64, exit time.Time, shiftID *uuid.UUID) (model.Ticket, error)
	DeleteTicket(ctx context.Context, id uuid.UUID) (model.Ticket, error)
}

type RateRepo interface {
	GetRate(ctx context.Context, vehicleType string) (model.ParkingRate, error)
	ListRates(ctx context.Context) ([]model.ParkingRate, error)
	CreateRate(ctx context.Context, rate model.ParkingRate) error
	UpsertRate(ctx context.Context, rate model.ParkingRate) error
	DeleteRate(ctx context.Context, vehicleType string) error
}

type PassRepo interface {
	CreatePass(ctx context.Context, p model.MonthlyPass) error
	GetPass(ctx context.Context, id uuid.UUID) (model.MonthlyPass, error)
	ListPasses(ctx context.Context, plate string) ([]model.MonthlyPass, error)
	RevokePass(ctx context.Context, id uuid.UUID) (model.MonthlyPass, error)
}

type HistoryRepo interface {
	GetVehicleHistory(ctx context.Context, plate string) (model.VehicleHistory, error)
	ApplyVisit(ctx context.Context, key, plate string, now time.Time, update func(h *model.VehicleHistory)) (model.VehicleHistory, bool, error)
}

type ShiftRepo interface {
	CreateShift(ctx context.Context, s model.Shift) error
	GetShift(ctx context.Context, id uuid.UUID) (model.Shift, error)
	FindOpenShift(ctx context.Context, officerID string) (model.Shift, error)
	ListShifts(ctx context.Context, officerID string) ([]model.Shift, error)
	CloseShift(ctx context.Context, id uuid.UUID, end time.Time, summary model.ShiftSummary) (model.Shift, error)
	IncrementShift(ctx context.Context, id uuid.UUID, key string, delta model.ShiftDelta) (model.Shift, bool, error)
}

// Store is everything the services need from storage.
type Store interface {
	TicketRepo
	RateRepo
	PassRepo
	HistoryRepo
	ShiftRepo
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
}

// SettlementConsumer reacts to a settled ticket. Handling the same event
// twice must have no further effect.
type SettlementConsumer interface {
	HandleTicketSettled(ctx context.Context, e model.TicketSettled) error
}

// SpotObserver is told whenever a spot is claimed or released.
type SpotObserver interface {
	SpotChanged(u model.SpotUpdate)
}
