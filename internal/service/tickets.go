package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/apperr"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/billing"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/model"

	"github.com/google/uuid"
)

type IssueRequest struct {
	Plate        string     `json:"license_plate"`
	VehicleType  string     `json:"vehicle_type"`
	Spot         string     `json:"spot"`
	Hours        float64    `json:"hours"`
	CustomerName string     `json:"customer_name"`
	Phone        string     `json:"phone"`
	ShiftID      *uuid.UUID `json:"shift_id,omitempty"`
}

type SettlementResult struct {
	Ticket model.Ticket        `json:"ticket"`
	Bill   billing.Bill        `json:"bill"`
	Amount float64             `json:"amount"`
	Event  model.TicketSettled `json:"event"`
}

// PublicTicket is a ticket without the customer's contact details or the
// collecting shift.
type PublicTicket struct {
	ID          uuid.UUID          `json:"id"`
	Plate       string             `json:"license_plate"`
	VehicleType string             `json:"vehicle_type"`
	Spot        string             `json:"spot"`
	Hours       float64            `json:"hours"`
	Price       float64            `json:"price"`
	EntryTime   time.Time          `json:"entry_time"`
	Status      model.TicketStatus `json:"status"`
	PassHolder  bool               `json:"pass_holder"`
}

func publicTicket(t model.Ticket) *PublicTicket {
	return &PublicTicket{
		ID:          t.ID,
		Plate:       t.Plate,
		VehicleType: t.VehicleType,
		Spot:        t.Spot,
		Hours:       t.Hours,
		Price:       t.Price,
		EntryTime:   t.EntryTime,
		Status:      t.Status,
		PassHolder:  t.PassHolder,
	}
}

// PublicStatus is what the unauthenticated plate lookup returns. Ticket and
// Bill are nil when the plate has no active ticket.
type PublicStatus struct {
	Ticket *PublicTicket `json:"ticket"`
	Bill   *billing.Bill `json:"bill,omitempty"`
}

// SideEffectError reports that the primary write succeeded but a follow-up
// (shift accounting, settlement consumers) failed. Settlements can be
// redelivered with ReplaySettlement.
type SideEffectError struct {
	TicketID uuid.UUID
	Err      error
}

func (e *SideEffectError) Error() string {
	return fmt.Sprintf("ticket %s: follow-up failed: %v", e.TicketID, e.Err)
}

func (e *SideEffectError) Unwrap() error {
	return e.Err
}

// TicketService owns the ticket state machine:
// active -> paid (settle) and active -> expired (expire), both terminal.
type TicketService struct {
	repo      TicketRepo
	rates     *RateTable
	passes    *PassService
	shifts    *ShiftService
	policy    billing.Policy
	consumers []SettlementConsumer
	observers []SpotObserver
}

func NewTicketService(repo TicketRepo, rates *RateTable, passes *PassService, shifts *ShiftService, policy billing.Policy) *TicketService {
	return &TicketService{repo: repo, rates: rates, passes: passes, shifts: shifts, policy: policy}
}

// Subscribe registers a consumer of settlement events. Not safe to call
// once requests are being served.
func (s *TicketService) Subscribe(c SettlementConsumer) {
	s.consumers = append(s.consumers, c)
}

func (s *TicketService) ObserveSpots(o SpotObserver) {
	s.observers = append(s.observers, o)
}

func (s *TicketService) Policy() billing.Policy {
	return s.policy
}

// Issue prices and stores a new active ticket and claims its spot.
func (s *TicketService) Issue(ctx context.Context, req IssueRequest, now time.Time) (model.Ticket, error) {
	plate := model.NormalizePlate(req.Plate)
	spot := strings.TrimSpace(req.Spot)
	switch {
	case plate == "":
		return model.Ticket{}, apperr.Validation("license plate is required")
	case spot == "":
		return model.Ticket{}, apperr.Validation("spot is required")
	case !(req.Hours > 0) || math.IsInf(req.Hours, 0):
		return model.Ticket{}, apperr.Validation("hours must be > 0, got %v", req.Hours)
	}

	if req.ShiftID != nil {
		sh, err := s.shifts.Get(ctx, *req.ShiftID)
		if err != nil {
			return model.Ticket{}, err
		}
		if !sh.IsOpen() {
			return model.Ticket{}, apperr.InvalidState("shift %s has no open session", sh.ID)
		}
	}

	rate, err := s.rates.GetRate(ctx, req.VehicleType)
	if err != nil {
		return model.Ticket{}, err
	}

	passHolder := false
	if s.passes != nil {
		_, ok, err := s.passes.ActivePassFor(ctx, plate, now)
		if err != nil {
			return model.Ticket{}, err
		}
		passHolder = ok
	}

	t := model.Ticket{
		ID:           uuid.New(),
		Plate:        plate,
		VehicleType:  normalizeVehicleType(req.VehicleType),
		Spot:         spot,
		Hours:        req.Hours,
		Price:        billing.Price(req.Hours, rate),
		EntryTime:    now,
		Status:       model.TicketActive,
		PassHolder:   passHolder,
		CustomerName: strings.TrimSpace(req.CustomerName),
		Phone:        strings.TrimSpace(req.Phone),
	}
	if err := s.repo.CreateTicket(ctx, t); err != nil {
		return model.Ticket{}, err
	}
	s.spotChanged(t, true)

	if req.ShiftID != nil {
		if err := s.shifts.recordIssue(ctx, *req.ShiftID, t.ID); err != nil {
			slog.Error("shift accounting failed after issue", "ticket", t.ID, "shift", *req.ShiftID, "err", err)
			return t, &SideEffectError{TicketID: t.ID, Err: err}
		}
	}
	return t, nil
}

// CurrentBill is the amount due on t at now. Active tickets accrue a fine
// live; closed tickets report the fine fixed when they closed.
func (s *TicketService) CurrentBill(t model.Ticket, now time.Time) billing.Bill {
	if t.IsActive() {
		return s.policy.Bill(t.Price, t.Hours, t.EntryTime, now)
	}
	end := now
	if t.ExitTime != nil {
		end = *t.ExitTime
	}
	b := s.policy.Bill(t.Price, t.Hours, t.EntryTime, end)
	b.Fine = t.FineAmount
	b.Total = t.Price + t.FineAmount
	return b
}

func (s *TicketService) Bill(ctx context.Context, id uuid.UUID, now time.Time) (model.Ticket, billing.Bill, error) {
	t, err := s.repo.GetTicket(ctx, id)
	if err != nil {
		return model.Ticket{}, billing.Bill{}, err
	}
	return t, s.CurrentBill(t, now), nil
}

// Settle moves an active ticket to paid with the fine computed at now and
// credits shiftID, if any, with the payment. shiftID must still be open.
// Of two concurrent settlements exactly one succeeds; the other gets
// apperr.ErrInvalidState.
//
// A non-nil result with a *SideEffectError means the ticket is paid but a
// consumer failed.
func (s *TicketService) Settle(ctx context.Context, id uuid.UUID, shiftID *uuid.UUID, now time.Time) (SettlementResult, error) {
	t, err := s.repo.GetTicket(ctx, id)
	if err != nil {
		return SettlementResult{}, err
	}
	if !t.IsActive() {
		return SettlementResult{}, apperr.InvalidState("ticket %s is %s", id, t.Status)
	}
	if shiftID != nil {
		sh, err := s.shifts.Get(ctx, *shiftID)
		if err != nil {
			return SettlementResult{}, err
		}
		if !sh.IsOpen() {
			return SettlementResult{}, apperr.InvalidState("shift %s has no open session", sh.ID)
		}
	}

	fine := s.policy.Fine(t.Hours, t.EntryTime, now)
	paid, err := s.repo.CloseTicket(ctx, id, model.TicketPaid, fine.Amount, now, shiftID)
	if err != nil {
		return SettlementResult{}, err
	}
	s.spotChanged(paid, false)

	event := settledEvent(paid)
	res := SettlementResult{
		Ticket: paid,
		Bill:   s.CurrentBill(paid, now),
		Amount: event.Amount,
		Event:  event,
	}
	slog.Info("ticket settled", "ticket", paid.ID, "plate", paid.Plate, "amount", event.Amount)

	if err := s.publish(ctx, event); err != nil {
		return res, &SideEffectError{TicketID: paid.ID, Err: err}
	}
	return res, nil
}

func settledEvent(t model.Ticket) model.TicketSettled {
	e := model.TicketSettled{
		TicketID: t.ID,
		Plate:    t.Plate,
		Amount:   t.Price + t.FineAmount,
		ShiftID:  t.ShiftID,
	}
	if t.ExitTime != nil {
		e.SettledAt = *t.ExitTime
	}
	return e
}

func (s *TicketService) publish(ctx context.Context, e model.TicketSettled) error {
	var errs []error
	for _, c := range s.consumers {
		if err := c.HandleTicketSettled(ctx, e); err != nil {
			slog.Error("settlement consumer failed", "ticket", e.TicketID, "consumer", fmt.Sprintf("%T", c), "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ReplaySettlement redelivers the settlement event of a paid ticket.
// Consumers ignore events they have already applied.
func (s *TicketService) ReplaySettlement(ctx context.Context, id uuid.UUID) (model.TicketSettled, error) {
	t, err := s.repo.GetTicket(ctx, id)
	if err != nil {
		return model.TicketSettled{}, err
	}
	if t.Status != model.TicketPaid {
		return model.TicketSettled{}, apperr.InvalidState("ticket %s is %s, not paid", id, t.Status)
	}
	e := settledEvent(t)
	return e, s.publish(ctx, e)
}

// Expire closes an active ticket without payment. The fine accrued at now is
// recorded; no settlement event is emitted.
func (s *TicketService) Expire(ctx context.Context, id uuid.UUID, now time.Time) (model.Ticket, error) {
	t, err := s.repo.GetTicket(ctx, id)
	if err != nil {
		return model.Ticket{}, err
	}
	if !t.IsActive() {
		return model.Ticket{}, apperr.InvalidState("ticket %s is %s", id, t.Status)
	}
	fine := s.policy.Fine(t.Hours, t.EntryTime, now)
	expired, err := s.repo.CloseTicket(ctx, id, model.TicketExpired, fine.Amount, now, nil)
	if err != nil {
		return model.Ticket{}, err
	}
	s.spotChanged(expired, false)
	return expired, nil
}

// Revoke deletes a ticket. Its spot is freed if it was still active.
func (s *TicketService) Revoke(ctx context.Context, id uuid.UUID) (model.Ticket, error) {
	t, err := s.repo.DeleteTicket(ctx, id)
	if err != nil {
		return model.Ticket{}, err
	}
	if t.IsActive() {
		s.spotChanged(t, false)
	}
	return t, nil
}

func (s *TicketService) Get(ctx context.Context, id uuid.UUID) (model.Ticket, error) {
	return s.repo.GetTicket(ctx, id)
}

func (s *TicketService) List(ctx context.Context, f model.TicketFilter) ([]model.Ticket, error) {
	return s.repo.ListTickets(ctx, f)
}

// Lookup finds the active ticket for a plate. Settled tickets are only
// reachable by id.
func (s *TicketService) Lookup(ctx context.Context, plate string) (model.Ticket, error) {
	plate = model.NormalizePlate(plate)
	if plate == "" {
		return model.Ticket{}, apperr.Validation("license plate is required")
	}
	return s.repo.FindActiveTicketByPlate(ctx, plate)
}

// PublicStatus is the read-only plate lookup. No active ticket is an empty
// result, not an error.
func (s *TicketService) PublicStatus(ctx context.Context, plate string, now time.Time) (PublicStatus, error) {
	t, err := s.Lookup(ctx, plate)
	if errors.Is(err, apperr.ErrNotFound) {
		return PublicStatus{}, nil
	}
	if err != nil {
		return PublicStatus{}, err
	}
	b := s.CurrentBill(t, now)
	return PublicStatus{Ticket: publicTicket(t), Bill: &b}, nil
}

func (s *TicketService) spotChanged(t model.Ticket, occupied bool) {
	u := model.SpotUpdate{Spot: t.Spot, Occupied: occupied}
	if occupied {
		id := t.ID
		u.TicketID = &id
	}
	for _, o := range s.observers {
		o.SpotChanged(u)
	}
}
