package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/apperr"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/auth"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/billing"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/model"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/rbac"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/repository"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clock = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	router  *gin.Engine
	svc     *service.Service
	officer string
	manager string
	admin   string
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	current := clock
	now = func() time.Time { return current }
	t.Cleanup(func() { now = time.Now })

	store := repository.NewMemoryStore()
	svc := service.NewService(store, nil, service.Options{
		DefaultHourlyRate: 20,
		RateCacheTTL:      time.Minute,
		Policy:            billing.DefaultPolicy(),
	})
	jwtSvc := auth.NewJWT([]byte("test-secret"))
	authn := auth.NewAuthenticator(store, jwtSvc, time.Hour)

	ctx := context.Background()
	tokens := map[rbac.Role]string{}
	for _, role := range []rbac.Role{rbac.Officer, rbac.Manager, rbac.Admin} {
		name := string(role)
		_, err := authn.EnsureUser(ctx, name, name+"-pw", role)
		require.NoError(t, err)
		tok, _, err := authn.Login(ctx, name, name+"-pw")
		require.NoError(t, err)
		tokens[role] = tok
	}

	router := gin.New()
	Register(router, Deps{Service: svc, Auth: authn, JWT: jwtSvc})
	return &testEnv{
		router:  router,
		svc:     svc,
		officer: tokens[rbac.Officer],
		manager: tokens[rbac.Manager],
		admin:   tokens[rbac.Admin],
	}
}

func (e *testEnv) advance(d time.Duration) {
	at := now().Add(d)
	now = func() time.Time { return at }
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperr.Validation("bad"), http.StatusBadRequest},
		{"invalid state", apperr.InvalidState("paid"), http.StatusConflict},
		{"conflict", apperr.Conflict("dup"), http.StatusConflict},
		{"not found", apperr.NotFound("ticket"), http.StatusNotFound},
		{"storage", apperr.Storage("get", context.DeadlineExceeded), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ctx, _ := gin.CreateTestContext(w)
			writeError(ctx, c.err)
			assert.Equal(t, c.want, w.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	env := setup(t)

	cases := []struct {
		name string
		body interface{}
		want int
	}{
		{"valid", loginReq{Username: "officer", Password: "Officer-pw"}, http.StatusOK},
		{"wrong password", loginReq{Username: "officer", Password: "nope"}, http.StatusUnauthorized},
		{"unknown user", loginReq{Username: "ghost", Password: "Officer-pw"}, http.StatusUnauthorized},
		{"bad body", "not an object", http.StatusBadRequest},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/login", "", c.body)
			assert.Equal(t, c.want, w.Code)
		})
	}
}

func TestRoutePermissions(t *testing.T) {
	env := setup(t)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		want   int
	}{
		{"anonymous api call", http.MethodGet, "/api/tickets", "", nil, http.StatusUnauthorized},
		{"officer lists tickets", http.MethodGet, "/api/tickets", env.officer, nil, http.StatusOK},
		{"officer cannot change rates", http.MethodPost, "/api/rates", env.officer, gin.H{"vehicle_type": "car", "hourly_rate": 25}, http.StatusForbidden},
		{"manager changes rates", http.MethodPost, "/api/rates", env.manager, gin.H{"vehicle_type": "car", "hourly_rate": 25}, http.StatusCreated},
		{"officer reads rates", http.MethodGet, "/api/rates", env.officer, nil, http.StatusOK},
		{"officer cannot delete tickets", http.MethodDelete, "/api/tickets/" + uuid.NewString(), env.officer, nil, http.StatusForbidden},
		{"admin deletes unknown ticket", http.MethodDelete, "/api/tickets/" + uuid.NewString(), env.admin, nil, http.StatusNotFound},
		{"officer cannot create passes", http.MethodPost, "/api/passes", env.officer, gin.H{}, http.StatusForbidden},
		{"public lookup needs no token", http.MethodGet, "/public/tickets/AB12", "", nil, http.StatusOK},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := env.do(t, c.method, c.path, c.token, c.body)
			assert.Equal(t, c.want, w.Code, w.Body.String())
		})
	}
}

func TestMyPermissions(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodGet, "/api/me/permissions", env.officer, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[struct {
		Role        rbac.Role         `json:"role"`
		Permissions []rbac.Permission `json:"permissions"`
	}](t, w)
	assert.Equal(t, rbac.Officer, body.Role)
	assert.Contains(t, body.Permissions, rbac.TicketsSettle)
	assert.NotContains(t, body.Permissions, rbac.RatesUpdate)
}

func TestTicketFlow(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/api/shifts/clock-in", env.officer, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	shift := decode[model.Shift](t, w)

	w = env.do(t, http.MethodPost, "/api/tickets", env.officer, gin.H{"license_plate": "ab12", "spot": "A1", "hours": 2, "customer_name": "Ada", "phone": "555-0100"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	issued := decode[struct {
		Ticket model.Ticket `json:"ticket"`
	}](t, w).Ticket
	assert.Equal(t, 40.0, issued.Price)

	w = env.do(t, http.MethodPost, "/api/tickets", env.officer, gin.H{"license_plate": "cd34", "spot": "A1", "hours": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code, "occupied spot")

	env.advance(2*time.Hour + 3*time.Minute)

	w = env.do(t, http.MethodGet, "/public/tickets/AB12", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	public := decode[service.PublicStatus](t, w)
	require.NotNil(t, public.Bill)
	assert.Equal(t, 110.0, public.Bill.Total)
	require.NotNil(t, public.Ticket)
	assert.Equal(t, issued.ID, public.Ticket.ID)
	raw := decode[map[string]map[string]interface{}](t, w)["ticket"]
	assert.NotContains(t, raw, "customer_name")
	assert.NotContains(t, raw, "phone")
	assert.NotContains(t, raw, "shift_id")

	path := "/api/tickets/" + issued.ID.String()
	w = env.do(t, http.MethodPost, path+"/settle", env.officer, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	settled := decode[struct {
		Settlement service.SettlementResult `json:"settlement"`
		Warning    string                   `json:"warning"`
	}](t, w)
	assert.Empty(t, settled.Warning)
	assert.Equal(t, 110.0, settled.Settlement.Amount)
	assert.Equal(t, model.TicketPaid, settled.Settlement.Ticket.Status)

	w = env.do(t, http.MethodPost, path+"/settle", env.officer, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, "/api/shifts/current", env.officer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	current := decode[model.Shift](t, w)
	assert.Equal(t, shift.ID, current.ID)
	assert.Equal(t, 1, current.TicketsIssued)
	assert.Equal(t, 110.0, current.CashCollected)

	w = env.do(t, http.MethodGet, "/api/vehicles/ab12", env.officer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[model.VehicleHistory](t, w)
	assert.Equal(t, int64(11), history.Points)

	w = env.do(t, http.MethodPost, path+"/replay", env.manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/api/vehicles/AB12", env.officer, nil)
	assert.Equal(t, 1, decode[model.VehicleHistory](t, w).VisitCount)

	w = env.do(t, http.MethodGet, "/public/tickets/AB12", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[service.PublicStatus](t, w).Ticket)

	w = env.do(t, http.MethodGet, "/api/tickets/not-a-uuid", env.officer, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/shifts/"+shift.ID.String()+"/clock-out", env.officer, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	closed := decode[model.Shift](t, w)
	assert.NotNil(t, closed.EndTime)
	assert.Equal(t, 110.0, closed.CashCollected)
}

func TestExpireTicket(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/api/tickets", env.officer, gin.H{"license_plate": "ab12", "spot": "A1", "hours": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	issued := decode[struct {
		Ticket model.Ticket `json:"ticket"`
	}](t, w).Ticket

	path := "/api/tickets/" + issued.ID.String() + "/expire"
	w = env.do(t, http.MethodPost, path, env.officer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	env.advance(3 * time.Hour)
	w = env.do(t, http.MethodPost, path, env.manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	expired := decode[model.Ticket](t, w)
	assert.Equal(t, model.TicketExpired, expired.Status)
	assert.Equal(t, 90.0, expired.FineAmount)

	w = env.do(t, http.MethodGet, "/api/tickets?status=expired", env.officer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Ticket](t, w), 1)

	w = env.do(t, http.MethodGet, "/api/tickets?status=lost", env.officer, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShiftScopes(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/api/shifts/clock-in", env.officer, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	shift := decode[model.Shift](t, w)

	w = env.do(t, http.MethodPost, "/api/shifts/clock-in", env.officer, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/shifts/clock-in", env.manager, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	managerShift := decode[model.Shift](t, w)

	w = env.do(t, http.MethodGet, "/api/shifts", env.officer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	own := decode[[]model.Shift](t, w)
	require.Len(t, own, 1)
	assert.Equal(t, shift.ID, own[0].ID)

	w = env.do(t, http.MethodGet, "/api/shifts?officer_id="+managerShift.OfficerID, env.officer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/shifts/"+managerShift.ID.String()+"/clock-out", env.officer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/shifts", env.manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Shift](t, w), 2)

	summary := model.ShiftSummary{CashCollected: 12.5, TicketsIssued: 3, Notes: "handover"}
	w = env.do(t, http.MethodPost, "/api/shifts/"+shift.ID.String()+"/clock-out", env.manager, summary)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	closed := decode[model.Shift](t, w)
	assert.Equal(t, 3, closed.TicketsIssued)
	assert.Equal(t, "handover", closed.Notes)

	w = env.do(t, http.MethodGet, "/api/shifts/current", env.officer, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIssueCreditsOnlyOwnShift(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/api/shifts/clock-in", env.manager, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	managerShift := decode[model.Shift](t, w)

	w = env.do(t, http.MethodPost, "/api/shifts/clock-in", env.officer, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	officerShift := decode[model.Shift](t, w)

	cases := []struct {
		name  string
		token string
		shift uuid.UUID
		spot  string
		want  int
	}{
		{"officer names another officer's shift", env.officer, managerShift.ID, "C1", http.StatusForbidden},
		{"officer names own shift", env.officer, officerShift.ID, "C2", http.StatusCreated},
		{"manager names another officer's shift", env.manager, officerShift.ID, "C3", http.StatusCreated},
		{"unknown shift", env.officer, uuid.New(), "C4", http.StatusNotFound},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			body := gin.H{"license_plate": "ZZ" + c.spot, "spot": c.spot, "hours": 1, "shift_id": c.shift}
			w := env.do(t, http.MethodPost, "/api/tickets", c.token, body)
			assert.Equal(t, c.want, w.Code, w.Body.String())
		})
	}

	ctx := context.Background()
	sh, err := env.svc.Shifts.Get(ctx, managerShift.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, sh.TicketsIssued)

	sh, err = env.svc.Shifts.Get(ctx, officerShift.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sh.TicketsIssued)

	w = env.do(t, http.MethodGet, "/api/tickets?plate=ZZC1", env.officer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]model.Ticket](t, w))
}

func TestPassesAndRates(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/api/passes", env.manager, gin.H{"customer_name": "Ada", "vehicle_plate": "ab12", "months": 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	pass := decode[model.MonthlyPass](t, w)

	w = env.do(t, http.MethodPost, "/api/tickets", env.officer, gin.H{"license_plate": "AB12", "spot": "B2", "hours": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decode[struct {
		Ticket model.Ticket `json:"ticket"`
	}](t, w).Ticket.PassHolder)

	w = env.do(t, http.MethodDelete, "/api/passes/"+pass.ID.String(), env.manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodDelete, "/api/passes/"+pass.ID.String(), env.manager, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, "/api/passes?status=revoked", env.officer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.MonthlyPass](t, w), 1)

	w = env.do(t, http.MethodPut, "/api/rates/Truck", env.manager, gin.H{"hourly_rate": 45})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/api/rates/truck", env.officer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 45.0, decode[map[string]interface{}](t, w)["hourly_rate"])

	w = env.do(t, http.MethodPut, "/api/rates/truck", env.manager, gin.H{"hourly_rate": -3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, http.MethodDelete, "/api/rates/bus", env.manager, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodDelete, "/api/rates/truck", env.manager, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/vehicles/AB12/quote?amount=100", env.officer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100.0, decode[service.Quote](t, w).Final)
	w = env.do(t, http.MethodGet, "/api/vehicles/AB12/quote", env.officer, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
