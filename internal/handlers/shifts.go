package handlers

import (
	"net/http"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/model"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/rbac"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

// ClockInHandler opens a shift for the caller.
func ClockInHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		sh, err := svc.Shifts.ClockIn(c.Request.Context(), id.UserID, now())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, sh)
	}
}

// ClockOutHandler closes a shift. An empty body keeps the running totals;
// otherwise the body is the closing summary. Only the owning officer or a
// role with shifts.view_all may close a shift.
func ClockOutHandler(svc *service.Service) gin.HandlerFunc {
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
		sh, err := svc.Shifts.Get(ctx, id)
		if err != nil {
			writeError(c, err)
			return
		}
		if sh.OfficerID != caller.UserID && !rbac.HasPermission(caller.Role, rbac.ShiftsViewAll) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your shift"})
			return
		}

		var summary *model.ShiftSummary
		if c.Request.ContentLength != 0 {
			summary = &model.ShiftSummary{}
			if err := c.ShouldBindJSON(summary); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid summary"})
				return
			}
		}
		closed, err := svc.Shifts.ClockOut(ctx, id, summary, now())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, closed)
	}
}

func CurrentShiftHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		sh, err := svc.Shifts.OpenShift(c.Request.Context(), id.UserID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, sh)
	}
}

// ListShiftsHandler lists the caller's shifts. Roles with shifts.view_all may
// pass ?officer_id=, or omit it to list every officer.
func ListShiftsHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			return
		}
		officer := c.Query("officer_id")
		if !rbac.HasPermission(id.Role, rbac.ShiftsViewAll) {
			if officer != "" && officer != id.UserID {
				c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "permission": rbac.ShiftsViewAll})
				return
			}
			officer = id.UserID
		}
		shifts, err := svc.Shifts.List(c.Request.Context(), officer)
		if err != nil {
			writeError(c, err)
			return
		}
		if shifts == nil {
			shifts = []model.Shift{}
		}
		c.JSON(http.StatusOK, shifts)
	}
}
