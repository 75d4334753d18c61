package handlers

import (
	"net/http"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/apperr"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/model"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/rbac"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

// IssueTicketHandler issues a ticket. When the body names no shift, the
// caller's open shift is credited with the issue. Naming another officer's
// shift needs shifts.view_all.
func IssueTicketHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		var req service.IssueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		ctx := c.Request.Context()
		if req.ShiftID == nil {
			shiftID, err := callerShift(ctx, svc, id)
			if err != nil {
				writeError(c, err)
				return
			}
			req.ShiftID = shiftID
		} else {
			sh, err := svc.Shifts.Get(ctx, *req.ShiftID)
			if err != nil {
				writeError(c, err)
				return
			}
			if sh.OfficerID != id.UserID && !rbac.HasPermission(id.Role, rbac.ShiftsViewAll) {
				c.JSON(http.StatusForbidden, gin.H{"error": "not your shift"})
				return
			}
		}

		t, err := svc.Tickets.Issue(ctx, req, now())
		warning, err := followUpWarning(err)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, withWarning(gin.H{"ticket": t}, warning))
	}
}

func ListTicketsHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := model.TicketFilter{
			Status:      model.TicketStatus(c.Query("status")),
			PlatePrefix: c.Query("plate"),
		}
		switch f.Status {
		case "", model.TicketActive, model.TicketPaid, model.TicketExpired:
		default:
			writeError(c, apperr.Validation("unknown status %q", f.Status))
			return
		}
		var err error
		if f.EnteredFrom, err = parseTime(c.Query("from")); err != nil {
			writeError(c, err)
			return
		}
		if f.EnteredTo, err = parseTime(c.Query("to")); err != nil {
			writeError(c, err)
			return
		}

		tickets, err := svc.Tickets.List(c.Request.Context(), f)
		if err != nil {
			writeError(c, err)
			return
		}
		if tickets == nil {
			tickets = []model.Ticket{}
		}
		c.JSON(http.StatusOK, tickets)
	}
}

func GetTicketHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		t, err := svc.Tickets.Get(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

func TicketBillHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		t, bill, err := svc.Tickets.Bill(c.Request.Context(), id, now())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ticket": t, "bill": bill})
	}
}

// SettleTicketHandler settles a ticket and credits the caller's open shift.
func SettleTicketHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := identity(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		shiftID, err := callerShift(ctx, svc, caller)
		if err != nil {
			writeError(c, err)
			return
		}

		res, err := svc.Tickets.Settle(ctx, id, shiftID, now())
		warning, err := followUpWarning(err)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, withWarning(gin.H{"settlement": res}, warning))
	}
}

func ExpireTicketHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		t, err := svc.Tickets.Expire(c.Request.Context(), id, now())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

func ReplaySettlementHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		e, err := svc.Tickets.ReplaySettlement(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"event": e})
	}
}

func RevokeTicketHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		t, err := svc.Tickets.Revoke(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// PublicTicketHandler is the unauthenticated plate lookup.
func PublicTicketHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := svc.Tickets.PublicStatus(c.Request.Context(), c.Param("plate"), now())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}
