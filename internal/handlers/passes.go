package handlers

import (
	"net/http"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/apperr"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/model"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

func IssuePassHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.PassRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		p, err := svc.Passes.Issue(c.Request.Context(), req, now())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

func ListPassesHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := model.PassStatus(c.Query("status"))
		switch status {
		case "", model.PassActive, model.PassExpired, model.PassRevoked:
		default:
			writeError(c, apperr.Validation("unknown status %q", status))
			return
		}
		passes, err := svc.Passes.List(c.Request.Context(), c.Query("plate"), status, now())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, passes)
	}
}

func GetPassHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		p, err := svc.Passes.Get(c.Request.Context(), id, now())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func RevokePassHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		p, err := svc.Passes.Revoke(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}
