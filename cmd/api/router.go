package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"inventory-engine/internal/shared/middleware"
	"inventory-engine/internal/shared/response"
	"inventory-engine/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
	)

	actor := middleware.ActorAuth(c.JWTManager)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupLedgerRoutes(v1, c, actor)
		setupPutawayRoutes(v1, c, actor)
		setupPickingRoutes(v1, c, actor)
		setupSlottingRoutes(v1, c)
	}

	return router
}

// ========================================
// LEDGER ROUTES
// ========================================
func setupLedgerRoutes(v1 *gin.RouterGroup, c *container.Container, actor gin.HandlerFunc) {
	v1.POST("/transactions", actor, c.LedgerHandler.ApplyTransaction)
	v1.GET("/transactions", c.LedgerHandler.ListEntries)
	v1.GET("/balances", c.LedgerHandler.ListBalances)
	v1.GET("/balances/export", c.ExportHandler.ExportBalances)
}

// ========================================
// PUTAWAY ROUTES
// ========================================
func setupPutawayRoutes(v1 *gin.RouterGroup, c *container.Container, actor gin.HandlerFunc) {
	putaway := v1.Group("/putaway")
	{
		putaway.POST("/suggest", c.PutawayHandler.Suggest)
		putaway.POST("/execute", actor, c.PutawayHandler.Execute)
	}
}

// ========================================
// PICKING ROUTES
// ========================================
func setupPickingRoutes(v1 *gin.RouterGroup, c *container.Container, actor gin.HandlerFunc) {
	sites := v1.Group("/sites/:site_id")
	{
		sites.POST("/waves", actor, c.PickingHandler.CreateWave)
		sites.POST("/pick-lists", c.PickingHandler.GeneratePickList)
		sites.POST("/pick-tasks", actor, c.PickingHandler.CreatePickTask)
	}

	v1.GET("/pick-tasks/:id", c.PickingHandler.GetPickTask)
	v1.POST("/pick-lines/:id/confirm", actor, c.PickingHandler.ConfirmPick)
}

// ========================================
// SLOTTING ROUTES
// ========================================
func setupSlottingRoutes(v1 *gin.RouterGroup, c *container.Container) {
	slotting := v1.Group("/sites/:site_id/slotting")
	{
		slotting.GET("/metrics", c.SlottingHandler.Metrics)
		slotting.GET("/recommendations", c.SlottingHandler.Recommendations)
		slotting.GET("/abc", c.SlottingHandler.ABC)
	}
}

// ========================================
// HEALTH CHECK
// ========================================
// Postgres is required; Redis only degrades the response.
func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
		defer cancel()

		status := gin.H{
			"service":  c.Config.App.Name,
			"version":  c.Config.App.Version,
			"database": "up",
			"redis":    "up",
		}

		if err := c.DB.HealthCheck(checkCtx); err != nil {
			status["database"] = "down"
			response.ErrorWithDetails(ctx, http.StatusServiceUnavailable, "UNHEALTHY", "database unavailable", status)
			return
		}
		if err := c.Redis.HealthCheck(checkCtx); err != nil {
			status["redis"] = "degraded"
		}

		response.Success(ctx, http.StatusOK, status)
	}
}
