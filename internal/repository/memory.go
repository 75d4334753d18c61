package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/apperr"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/model"

	"github.com/google/uuid"
)

// MemoryStore keeps every record in process. A single mutex makes each call
// atomic, giving the same conditional-update guarantees as Repo.
type MemoryStore struct {
	mu sync.Mutex

	tickets map[uuid.UUID]model.Ticket
	spots   map[string]uuid.UUID
	rates   map[string]model.ParkingRate
	passes  map[uuid.UUID]model.MonthlyPass
	history map[string]model.VehicleHistory
	shifts  map[uuid.UUID]model.Shift
	users   map[string]model.User
	applied map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets: make(map[uuid.UUID]model.Ticket),
		spots:   make(map[string]uuid.UUID),
		rates:   make(map[string]model.ParkingRate),
		passes:  make(map[uuid.UUID]model.MonthlyPass),
		history: make(map[string]model.VehicleHistory),
		shifts:  make(map[uuid.UUID]model.Shift),
		users:   make(map[string]model.User),
		applied: make(map[string]struct{}),
	}
}

func (m *MemoryStore) markApplied(consumer, key string) bool {
	k := consumer + "/" + key
	if _, ok := m.applied[k]; ok {
		return false
	}
	m.applied[k] = struct{}{}
	return true
}

func (m *MemoryStore) CreateTicket(ctx context.Context, t model.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tickets[t.ID]; ok {
		return apperr.Conflict("ticket %s exists", t.ID)
	}
	if _, ok := m.spots[t.Spot]; ok {
		return apperr.Validation("spot %s is already occupied", t.Spot)
	}
	m.spots[t.Spot] = t.ID
	m.tickets[t.ID] = t
	return nil
}

func (m *MemoryStore) GetTicket(ctx context.Context, id uuid.UUID) (model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tickets[id]
	if !ok {
		return model.Ticket{}, apperr.NotFound("ticket %s", id)
	}
	return t, nil
}

func (m *MemoryStore) FindActiveTicketByPlate(ctx context.Context, plate string) (model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		found model.Ticket
		ok    bool
	)
	for _, t := range m.tickets {
		if t.Plate == plate && t.IsActive() && (!ok || t.EntryTime.After(found.EntryTime)) {
			found, ok = t, true
		}
	}
	if !ok {
		return model.Ticket{}, apperr.NotFound("active ticket for %s", plate)
	}
	return found, nil
}

func (m *MemoryStore) ListTickets(ctx context.Context, f model.TicketFilter) ([]model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res []model.Ticket
	for _, t := range m.tickets {
		if f.Match(t) {
			res = append(res, t)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].EntryTime.After(res[j].EntryTime) })
	return res, nil
}

func (m *MemoryStore) CloseTicket(ctx context.Context, id uuid.UUID, status model.TicketStatus, fine float64, exit time.Time, shiftID *uuid.UUID) (model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tickets[id]
	if !ok {
		return model.Ticket{}, apperr.NotFound("ticket %s", id)
	}
	if !t.IsActive() {
		return model.Ticket{}, apperr.InvalidState("ticket %s is %s", id, t.Status)
	}
	t.Status = status
	t.FineAmount = fine
	t.ExitTime = &exit
	if shiftID != nil {
		t.ShiftID = shiftID
	}
	m.tickets[id] = t
	m.releaseSpot(t)
	return t, nil
}

func (m *MemoryStore) DeleteTicket(ctx context.Context, id uuid.UUID) (model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tickets[id]
	if !ok {
		return model.Ticket{}, apperr.NotFound("ticket %s", id)
	}
	delete(m.tickets, id)
	m.releaseSpot(t)
	return t, nil
}

func (m *MemoryStore) releaseSpot(t model.Ticket) {
	if m.spots[t.Spot] == t.ID {
		delete(m.spots, t.Spot)
	}
}

func (m *MemoryStore) GetRate(ctx context.Context, vehicleType string) (model.ParkingRate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rates[vehicleType]
	if !ok {
		return model.ParkingRate{}, apperr.NotFound("rate for %s", vehicleType)
	}
	return r, nil
}

func (m *MemoryStore) ListRates(ctx context.Context) ([]model.ParkingRate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := make([]model.ParkingRate, 0, len(m.rates))
	for _, r := range m.rates {
		res = append(res, r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].VehicleType < res[j].VehicleType })
	return res, nil
}

func (m *MemoryStore) CreateRate(ctx context.Context, rate model.ParkingRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rates[rate.VehicleType]; ok {
		return apperr.Conflict("rate for %s already exists", rate.VehicleType)
	}
	m.rates[rate.VehicleType] = rate
	return nil
}

func (m *MemoryStore) UpsertRate(ctx context.Context, rate model.ParkingRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rates[rate.VehicleType] = rate
	return nil
}

func (m *MemoryStore) DeleteRate(ctx context.Context, vehicleType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rates[vehicleType]; !ok {
		return apperr.NotFound("rate for %s", vehicleType)
	}
	delete(m.rates, vehicleType)
	return nil
}

func (m *MemoryStore) CreatePass(ctx context.Context, p model.MonthlyPass) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.passes[p.ID] = p
	return nil
}

func (m *MemoryStore) GetPass(ctx context.Context, id uuid.UUID) (model.MonthlyPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.passes[id]
	if !ok {
		return model.MonthlyPass{}, apperr.NotFound("pass %s", id)
	}
	return p, nil
}

func (m *MemoryStore) ListPasses(ctx context.Context, plate string) ([]model.MonthlyPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res []model.MonthlyPass
	for _, p := range m.passes {
		if plate == "" || p.Plate == plate {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].EndTime.After(res[j].EndTime) })
	return res, nil
}

func (m *MemoryStore) RevokePass(ctx context.Context, id uuid.UUID) (model.MonthlyPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.passes[id]
	if !ok {
		return model.MonthlyPass{}, apperr.NotFound("pass %s", id)
	}
	if p.Status == model.PassRevoked {
		return model.MonthlyPass{}, apperr.InvalidState("pass %s is already revoked", id)
	}
	p.Status = model.PassRevoked
	m.passes[id] = p
	return p, nil
}

func (m *MemoryStore) GetVehicleHistory(ctx context.Context, plate string) (model.VehicleHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.history[plate]
	if !ok {
		return model.VehicleHistory{}, apperr.NotFound("history for %s", plate)
	}
	return h, nil
}

func (m *MemoryStore) ApplyVisit(ctx context.Context, key, plate string, now time.Time, update func(h *model.VehicleHistory)) (model.VehicleHistory, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if key != "" && !m.markApplied(consumerLoyalty, key) {
		return m.history[plate], false, nil
	}
	h, ok := m.history[plate]
	if !ok {
		h = model.VehicleHistory{Plate: plate, FirstVisit: now, LastVisit: now, Tier: model.TierRegular}
	}
	update(&h)
	m.history[plate] = h
	return h, true, nil
}

func (m *MemoryStore) CreateShift(ctx context.Context, s model.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, other := range m.shifts {
		if other.OfficerID == s.OfficerID && other.IsOpen() {
			return apperr.Conflict("officer %s already has an open shift", s.OfficerID)
		}
	}
	m.shifts[s.ID] = s
	return nil
}

func (m *MemoryStore) GetShift(ctx context.Context, id uuid.UUID) (model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.shifts[id]
	if !ok {
		return model.Shift{}, apperr.NotFound("shift %s", id)
	}
	return s, nil
}

func (m *MemoryStore) FindOpenShift(ctx context.Context, officerID string) (model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.shifts {
		if s.OfficerID == officerID && s.IsOpen() {
			return s, nil
		}
	}
	return model.Shift{}, apperr.NotFound("open shift for %s", officerID)
}

func (m *MemoryStore) ListShifts(ctx context.Context, officerID string) ([]model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res []model.Shift
	for _, s := range m.shifts {
		if officerID == "" || s.OfficerID == officerID {
			res = append(res, s)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].StartTime.After(res[j].StartTime) })
	return res, nil
}

func (m *MemoryStore) CloseShift(ctx context.Context, id uuid.UUID, end time.Time, summary model.ShiftSummary) (model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.shifts[id]
	if !ok {
		return model.Shift{}, apperr.NotFound("shift %s", id)
	}
	if !s.IsOpen() {
		return model.Shift{}, apperr.InvalidState("shift %s has no open session", id)
	}
	s.EndTime = &end
	s.CashCollected = summary.CashCollected
	s.TicketsIssued = summary.TicketsIssued
	s.Notes = summary.Notes
	m.shifts[id] = s
	return s, nil
}

func (m *MemoryStore) IncrementShift(ctx context.Context, id uuid.UUID, key string, delta model.ShiftDelta) (model.Shift, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.shifts[id]
	if !ok {
		return model.Shift{}, false, apperr.NotFound("shift %s", id)
	}
	if key != "" {
		if _, seen := m.applied[consumerShift+"/"+key]; seen {
			return s, false, nil
		}
	}
	if !s.IsOpen() {
		return model.Shift{}, false, apperr.InvalidState("shift %s has no open session", id)
	}
	if key != "" {
		m.markApplied(consumerShift, key)
	}
	s.TicketsIssued += delta.TicketsIssued
	s.CashCollected += delta.CashCollected
	m.shifts[id] = s
	return s, true, nil
}

func (m *MemoryStore) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[strings.ToLower(username)]
	if !ok {
		return model.User{}, apperr.NotFound("user %s", username)
	}
	return u, nil
}

func (m *MemoryStore) CreateUser(ctx context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(u.Username)
	if _, ok := m.users[key]; ok {
		return apperr.Conflict("user %s exists", u.Username)
	}
	m.users[key] = u
	return nil
}
