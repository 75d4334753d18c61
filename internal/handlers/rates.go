package handlers

import (
	"net/http"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/model"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type rateReq struct {
	VehicleType string   `json:"vehicle_type"`
	HourlyRate  *float64 `json:"hourly_rate"`
}

func ListRatesHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		rates, err := svc.Rates.ListRates(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		if rates == nil {
			rates = []model.ParkingRate{}
		}
		c.JSON(http.StatusOK, rates)
	}
}

// GetRateHandler returns the rate a new ticket of this type would be priced
// at, falling back to the default.
func GetRateHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		rate, err := svc.Rates.GetRate(c.Request.Context(), c.Param("type"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"vehicle_type": c.Param("type"), "hourly_rate": rate})
	}
}

func CreateRateHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var r rateReq
		if err := c.ShouldBindJSON(&r); err != nil || r.HourlyRate == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "vehicle_type and hourly_rate required"})
			return
		}
		rate, err := svc.Rates.CreateRate(c.Request.Context(), r.VehicleType, *r.HourlyRate)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, rate)
	}
}

func UpsertRateHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var r rateReq
		if err := c.ShouldBindJSON(&r); err != nil || r.HourlyRate == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hourly_rate required"})
			return
		}
		rate, err := svc.Rates.UpsertRate(c.Request.Context(), c.Param("type"), *r.HourlyRate)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rate)
	}
}

func DeleteRateHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Rates.DeleteRate(c.Request.Context(), c.Param("type")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
