package service

import (
	"time"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/billing"
)

type Options struct {
	DefaultHourlyRate float64
	RateCacheTTL      time.Duration
	Policy            billing.Policy
}

// Service bundles the parking core. Settlements fan out to loyalty and
// shift accounting.
type Service struct {
	Rates   *RateTable
	Tickets *TicketService
	Loyalty *LoyaltyService
	Shifts  *ShiftService
	Passes  *PassService
}

// NewService wires the core over store. rdb may be nil to run without the
// rate cache.
func NewService(store Store, rdb RedisClient, opts Options) *Service {
	rates := NewRateTable(store, rdb, opts.DefaultHourlyRate, opts.RateCacheTTL)
	shifts := NewShiftService(store)
	passes := NewPassService(store)
	loyalty := NewLoyaltyService(store)

	tickets := NewTicketService(store, rates, passes, shifts, opts.Policy)
	tickets.Subscribe(loyalty)
	tickets.Subscribe(shifts)

	return &Service{
		Rates:   rates,
		Tickets: tickets,
		Loyalty: loyalty,
		Shifts:  shifts,
		Passes:  passes,
	}
}
