package handlers

import (
	"net/http"
	"strconv"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

func VehicleHistoryHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		h, err := svc.Loyalty.History(c.Request.Context(), c.Param("plate"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, h)
	}
}

// QuoteHandler prices ?amount= for the plate's loyalty tier.
func QuoteHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		amount, err := strconv.ParseFloat(c.Query("amount"), 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount required"})
			return
		}
		q, err := svc.Loyalty.Quote(c.Request.Context(), c.Param("plate"), amount)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, q)
	}
}
