// Package billing computes ticket prices and overdue fines.
//
// Every amount is rounded up to the next whole currency unit. Callers pass
// the current time explicitly so results are reproducible.
package billing

import (
	"math"
	"time"
)

const (
	DefaultBaseFine   = 50
	DefaultHourlyFine = 20
)

// Policy holds the fine constants.
type Policy struct {
	BaseFine   float64
	HourlyFine float64
}

func DefaultPolicy() Policy {
	return Policy{BaseFine: DefaultBaseFine, HourlyFine: DefaultHourlyFine}
}

// Fine is the result of an overdue check. OverdueHours is the exact
// fractional overrun; use DisplayHours for presentation.
type Fine struct {
	Amount       float64 `json:"amount"`
	OverdueHours float64 `json:"overdue_hours"`
}

func (f Fine) DisplayHours() float64 {
	return math.Round(f.OverdueHours*10) / 10
}

// Price returns ceil(hours * hourlyRate).
func Price(hours, hourlyRate float64) float64 {
	return math.Ceil(hours * hourlyRate)
}

// Fine computes the fine for a ticket allowed allowedHours that started at
// entry. Elapsed time equal to the allowance is not overdue.
func (p Policy) Fine(allowedHours float64, entry, now time.Time) Fine {
	elapsed := now.Sub(entry).Hours()
	if elapsed <= allowedHours {
		return Fine{}
	}
	overdue := elapsed - allowedHours
	return Fine{
		Amount:       p.BaseFine + math.Ceil(overdue)*p.HourlyFine,
		OverdueHours: overdue,
	}
}

// Bill is the amount due on a ticket at a point in time.
type Bill struct {
	Price        float64 `json:"price"`
	Fine         float64 `json:"fine"`
	OverdueHours float64 `json:"overdue_hours"`
	Total        float64 `json:"total"`
}

func (p Policy) Bill(price, allowedHours float64, entry, now time.Time) Bill {
	f := p.Fine(allowedHours, entry, now)
	return Bill{
		Price:        price,
		Fine:         f.Amount,
		OverdueHours: f.DisplayHours(),
		Total:        price + f.Amount,
	}
}
