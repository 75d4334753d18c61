package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketActive  TicketStatus = "active"
	TicketPaid    TicketStatus = "paid"
	TicketExpired TicketStatus = "expired"
)

type Ticket struct {
	ID           uuid.UUID    `db:"id" json:"id"`
	Plate        string       `db:"license_plate" json:"license_plate"`
	VehicleType  string       `db:"vehicle_type" json:"vehicle_type"`
	Spot         string       `db:"spot" json:"spot"`
	Hours        float64      `db:"hours" json:"hours"`
	Price        float64      `db:"price" json:"price"`
	EntryTime    time.Time    `db:"entry_time" json:"entry_time"`
	ExitTime     *time.Time   `db:"exit_time" json:"exit_time,omitempty"`
	FineAmount   float64      `db:"fine_amount" json:"fine_amount"`
	Status       TicketStatus `db:"status" json:"status"`
	PassHolder   bool         `db:"pass_holder" json:"pass_holder"`
	CustomerName string       `db:"customer_name" json:"customer_name"`
	Phone        string       `db:"phone" json:"phone"`
	// ShiftID is the shift that collected payment.
	ShiftID      *uuid.UUID   `db:"shift_id" json:"shift_id,omitempty"`
}

func (t Ticket) IsActive() bool {
	return t.Status == TicketActive
}

type TicketFilter struct {
	Status      TicketStatus
	PlatePrefix string
	EnteredFrom *time.Time
	EnteredTo   *time.Time
}

// Match reports whether t satisfies every set field of the filter.
func (f TicketFilter) Match(t Ticket) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.PlatePrefix != "" && !strings.HasPrefix(t.Plate, NormalizePlate(f.PlatePrefix)) {
		return false
	}
	if f.EnteredFrom != nil && t.EntryTime.Before(*f.EnteredFrom) {
		return false
	}
	if f.EnteredTo != nil && t.EntryTime.After(*f.EnteredTo) {
		return false
	}
	return true
}

type PassStatus string

const (
	PassActive  PassStatus = "active"
	PassExpired PassStatus = "expired"
	PassRevoked PassStatus = "revoked"
)

type MonthlyPass struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	CustomerName string     `db:"customer_name" json:"customer_name"`
	Plate        string     `db:"vehicle_plate" json:"vehicle_plate"`
	Phone        string     `db:"phone" json:"phone"`
	StartTime    time.Time  `db:"start_time" json:"start_time"`
	EndTime      time.Time  `db:"end_time" json:"end_time"`
	Status       PassStatus `db:"status" json:"status"`
}

// StatusAt derives the pass status at now. Revocation is the only stored
// transition; expiry always follows the end timestamp.
func (p MonthlyPass) StatusAt(now time.Time) PassStatus {
	if p.Status == PassRevoked {
		return PassRevoked
	}
	if p.EndTime.Before(now) {
		return PassExpired
	}
	return PassActive
}

type ParkingRate struct {
	VehicleType string  `db:"vehicle_type" json:"vehicle_type"`
	HourlyRate  float64 `db:"hourly_rate" json:"hourly_rate"`
}

type Tier string

const (
	TierRegular  Tier = "regular"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

type VehicleHistory struct {
	Plate      string    `db:"license_plate" json:"license_plate"`
	VisitCount int       `db:"visit_count" json:"visit_count"`
	TotalSpent float64   `db:"total_spent" json:"total_spent"`
	FirstVisit time.Time `db:"first_visit" json:"first_visit"`
	LastVisit  time.Time `db:"last_visit" json:"last_visit"`
	Points     int64     `db:"loyalty_points" json:"loyalty_points"`
	Tier       Tier      `db:"tier" json:"tier"`
}

type Shift struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	OfficerID     string     `db:"officer_id" json:"officer_id"`
	StartTime     time.Time  `db:"start_time" json:"start_time"`
	EndTime       *time.Time `db:"end_time" json:"end_time,omitempty"`
	CashCollected float64    `db:"cash_collected" json:"cash_collected"`
	TicketsIssued int        `db:"tickets_issued" json:"tickets_issued"`
	Notes         string     `db:"notes" json:"notes"`
}

func (s Shift) IsOpen() bool {
	return s.EndTime == nil
}

// ShiftDelta is added to a shift's running totals.
type ShiftDelta struct {
	TicketsIssued int     `json:"tickets_issued"`
	CashCollected float64 `json:"cash_collected"`
}

// ShiftSummary replaces a shift's totals when it is closed.
type ShiftSummary struct {
	CashCollected float64 `json:"cash_collected"`
	TicketsIssued int     `json:"tickets_issued"`
	Notes         string  `json:"notes"`
}

// TicketSettled is emitted once a ticket reaches Paid.
type TicketSettled struct {
	TicketID  uuid.UUID  `json:"ticket_id"`
	Plate     string     `json:"license_plate"`
	Amount    float64    `json:"amount"`
	ShiftID   *uuid.UUID `json:"shift_id,omitempty"`
	SettledAt time.Time  `json:"settled_at"`
}

type SpotUpdate struct {
	Spot     string     `json:"spot"`
	Occupied bool       `json:"occupied"`
	TicketID *uuid.UUID `json:"ticket_id,omitempty"`
}

type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
}

// NormalizePlate trims and upper-cases a license plate.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}
