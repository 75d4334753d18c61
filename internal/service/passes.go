package service

import (
	"context"
	"strings"
	"time"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/apperr"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/model"

	"github.com/google/uuid"
)

type PassRequest struct {
	CustomerName string    `json:"customer_name"`
	Plate        string    `json:"vehicle_plate"`
	Phone        string    `json:"phone"`
	Months       int       `json:"months"`
	Start        time.Time `json:"start"`
}

// PassService manages monthly passes. Returned passes carry the status
// derived at the given time, never the stored one alone.
type PassService struct {
	repo PassRepo
}

func NewPassService(repo PassRepo) *PassService {
	return &PassService{repo: repo}
}

func (s *PassService) Issue(ctx context.Context, req PassRequest, now time.Time) (model.MonthlyPass, error) {
	name := strings.TrimSpace(req.CustomerName)
	plate := model.NormalizePlate(req.Plate)
	switch {
	case name == "":
		return model.MonthlyPass{}, apperr.Validation("customer name is required")
	case plate == "":
		return model.MonthlyPass{}, apperr.Validation("vehicle plate is required")
	case req.Months < 1:
		return model.MonthlyPass{}, apperr.Validation("months must be >= 1, got %d", req.Months)
	}

	start := req.Start
	if start.IsZero() {
		start = now
	}
	p := model.MonthlyPass{
		ID:           uuid.New(),
		CustomerName: name,
		Plate:        plate,
		Phone:        strings.TrimSpace(req.Phone),
		StartTime:    start,
		EndTime:      start.AddDate(0, req.Months, 0),
		Status:       model.PassActive,
	}
	if err := s.repo.CreatePass(ctx, p); err != nil {
		return model.MonthlyPass{}, err
	}
	p.Status = p.StatusAt(now)
	return p, nil
}

func (s *PassService) Get(ctx context.Context, id uuid.UUID, now time.Time) (model.MonthlyPass, error) {
	p, err := s.repo.GetPass(ctx, id)
	if err != nil {
		return model.MonthlyPass{}, err
	}
	p.Status = p.StatusAt(now)
	return p, nil
}

// List returns passes for plate (all when empty) whose derived status
// matches status (any when empty).
func (s *PassService) List(ctx context.Context, plate string, status model.PassStatus, now time.Time) ([]model.MonthlyPass, error) {
	passes, err := s.repo.ListPasses(ctx, model.NormalizePlate(plate))
	if err != nil {
		return nil, err
	}
	res := make([]model.MonthlyPass, 0, len(passes))
	for _, p := range passes {
		p.Status = p.StatusAt(now)
		if status == "" || p.Status == status {
			res = append(res, p)
		}
	}
	return res, nil
}

func (s *PassService) Revoke(ctx context.Context, id uuid.UUID) (model.MonthlyPass, error) {
	return s.repo.RevokePass(ctx, id)
}

// ActivePassFor reports whether plate holds a pass that is active at now.
func (s *PassService) ActivePassFor(ctx context.Context, plate string, now time.Time) (model.MonthlyPass, bool, error) {
	passes, err := s.List(ctx, plate, model.PassActive, now)
	if err != nil || len(passes) == 0 {
		return model.MonthlyPass{}, false, err
	}
	return passes[0], true, nil
}
