package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/apperr"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/model"

	"github.com/google/uuid"
)

type ShiftService struct {
	repo ShiftRepo
}

func NewShiftService(repo ShiftRepo) *ShiftService {
	return &ShiftService{repo: repo}
}

// ClockIn opens a shift for the officer. An officer holds at most one open
// shift; the store enforces the same rule for concurrent callers.
func (s *ShiftService) ClockIn(ctx context.Context, officerID string, now time.Time) (model.Shift, error) {
	officerID = strings.TrimSpace(officerID)
	if officerID == "" {
		return model.Shift{}, apperr.Validation("officer id is required")
	}

	open, err := s.repo.FindOpenShift(ctx, officerID)
	if err == nil {
		return model.Shift{}, apperr.Conflict("officer %s already clocked in at %s", officerID, open.StartTime.Format(time.RFC3339))
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return model.Shift{}, err
	}

	shift := model.Shift{
		ID:        uuid.New(),
		OfficerID: officerID,
		StartTime: now,
	}
	if err := s.repo.CreateShift(ctx, shift); err != nil {
		return model.Shift{}, err
	}
	return shift, nil
}

// ClockOut closes the shift. The summary replaces the running totals; a nil
// summary keeps the totals accumulated so far.
func (s *ShiftService) ClockOut(ctx context.Context, shiftID uuid.UUID, summary *model.ShiftSummary, now time.Time) (model.Shift, error) {
	if summary == nil {
		current, err := s.repo.GetShift(ctx, shiftID)
		if err != nil {
			return model.Shift{}, err
		}
		if !current.IsOpen() {
			return model.Shift{}, apperr.InvalidState("shift %s has no open session", shiftID)
		}
		summary = &model.ShiftSummary{
			CashCollected: current.CashCollected,
			TicketsIssued: current.TicketsIssued,
			Notes:         current.Notes,
		}
	}
	if summary.CashCollected < 0 || summary.TicketsIssued < 0 {
		return model.Shift{}, apperr.Validation("shift totals must be non-negative")
	}
	return s.repo.CloseShift(ctx, shiftID, now, *summary)
}

// Accumulate adds delta to an open shift's totals.
func (s *ShiftService) Accumulate(ctx context.Context, shiftID uuid.UUID, delta model.ShiftDelta) (model.Shift, error) {
	if delta.TicketsIssued < 0 || delta.CashCollected < 0 {
		return model.Shift{}, apperr.Validation("shift deltas must be non-negative")
	}
	sh, _, err := s.repo.IncrementShift(ctx, shiftID, "", delta)
	return sh, err
}

func (s *ShiftService) recordIssue(ctx context.Context, shiftID, ticketID uuid.UUID) error {
	_, _, err := s.repo.IncrementShift(ctx, shiftID, "issue:"+ticketID.String(), model.ShiftDelta{TicketsIssued: 1})
	return err
}

// HandleTicketSettled credits the settled amount to the collecting shift.
func (s *ShiftService) HandleTicketSettled(ctx context.Context, e model.TicketSettled) error {
	if e.ShiftID == nil {
		return nil
	}
	_, _, err := s.repo.IncrementShift(ctx, *e.ShiftID, "settle:"+e.TicketID.String(), model.ShiftDelta{CashCollected: e.Amount})
	return err
}

func (s *ShiftService) Get(ctx context.Context, id uuid.UUID) (model.Shift, error) {
	return s.repo.GetShift(ctx, id)
}

func (s *ShiftService) OpenShift(ctx context.Context, officerID string) (model.Shift, error) {
	return s.repo.FindOpenShift(ctx, strings.TrimSpace(officerID))
}

func (s *ShiftService) List(ctx context.Context, officerID string) ([]model.Shift, error) {
	return s.repo.ListShifts(ctx, strings.TrimSpace(officerID))
}
