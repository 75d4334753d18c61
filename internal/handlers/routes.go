package handlers

import (
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/auth"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/rbac"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	Service *service.Service
	Auth    *auth.Authenticator
	JWT     *auth.JWTService
	// Spots serves the occupancy feed; nil leaves /ws/spots unregistered.
	Spots   gin.HandlerFunc
}

// Register mounts every route on router, each gated by its permission.
func Register(router gin.IRouter, d Deps) {
	svc := d.Service
	need := auth.RequirePermission

	router.POST("/login", LoginHandler(d.Auth))
	router.GET("/public/tickets/:plate", PublicTicketHandler(svc))

	if d.Spots != nil {
		router.GET("/ws/spots", auth.JWTMiddleware(d.JWT), need(rbac.MapView), d.Spots)
	}

	api := router.Group("/api")
	api.Use(auth.JWTMiddleware(d.JWT))
	{
		api.GET("/me/permissions", PermissionsHandler())

		api.POST("/tickets", need(rbac.TicketsCreate), IssueTicketHandler(svc))
		api.GET("/tickets", need(rbac.TicketsView), ListTicketsHandler(svc))
		api.GET("/tickets/:id", need(rbac.TicketsView), GetTicketHandler(svc))
		api.GET("/tickets/:id/bill", need(rbac.TicketsView), TicketBillHandler(svc))
		api.POST("/tickets/:id/settle", need(rbac.TicketsSettle), SettleTicketHandler(svc))
		api.POST("/tickets/:id/expire", need(rbac.TicketsUpdate), ExpireTicketHandler(svc))
		api.POST("/tickets/:id/replay", need(rbac.TicketsUpdate), ReplaySettlementHandler(svc))
		api.DELETE("/tickets/:id", need(rbac.TicketsDelete), RevokeTicketHandler(svc))

		api.GET("/rates", need(rbac.RatesView), ListRatesHandler(svc))
		api.GET("/rates/:type", need(rbac.RatesView), GetRateHandler(svc))
		api.POST("/rates", need(rbac.RatesUpdate), CreateRateHandler(svc))
		api.PUT("/rates/:type", need(rbac.RatesUpdate), UpsertRateHandler(svc))
		api.DELETE("/rates/:type", need(rbac.RatesUpdate), DeleteRateHandler(svc))

		api.GET("/passes", need(rbac.PassesView), ListPassesHandler(svc))
		api.GET("/passes/:id", need(rbac.PassesView), GetPassHandler(svc))
		api.POST("/passes", need(rbac.PassesCreate), IssuePassHandler(svc))
		api.DELETE("/passes/:id", need(rbac.PassesDelete), RevokePassHandler(svc))

		api.GET("/vehicles/:plate", need(rbac.VehiclesView), VehicleHistoryHandler(svc))
		api.GET("/vehicles/:plate/quote", need(rbac.VehiclesView), QuoteHandler(svc))

		api.POST("/shifts/clock-in", need(rbac.ShiftsManage), ClockInHandler(svc))
		api.POST("/shifts/:id/clock-out", need(rbac.ShiftsManage), ClockOutHandler(svc))
		api.GET("/shifts/current", need(rbac.ShiftsManage), CurrentShiftHandler(svc))
		api.GET("/shifts", auth.RequireAnyPermission(rbac.ShiftsView, rbac.ShiftsViewAll), ListShiftsHandler(svc))
	}
}
