package main

import (
	"fmt"

	"github.com/hibiken/asynq"

	ledgerJob "inventory-engine/internal/domains/ledger/job"
	slottingJob "inventory-engine/internal/domains/slotting/job"
	"inventory-engine/internal/infrastructure/queue"
	"inventory-engine/internal/shared"
	"inventory-engine/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	// Ledger
	stockSync *ledgerJob.StockSyncHandler

	// Slotting
	analyzeSite     *slottingJob.AnalyzeSiteHandler
	analyzeAllSites *slottingJob.AnalyzeAllSitesHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) (*HandlerRegistry, error) {
	sites, err := c.SlottingSites()
	if err != nil {
		return nil, fmt.Errorf("JOB_SLOTTING_SITES: %w", err)
	}

	return &HandlerRegistry{
		stockSync: ledgerJob.NewStockSyncHandler(c.Store.Reader().Balances(), c.Cache),

		analyzeSite:     slottingJob.NewAnalyzeSiteHandler(c.SlottingService, c.VelocityCache),
		analyzeAllSites: slottingJob.NewAnalyzeAllSitesHandler(sites, c.AsynqClient),
	}, nil
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.Use(queue.LoggingMiddleware)

	// Ledger tasks
	mux.HandleFunc(shared.TypeSyncItemStock, h.stockSync.ProcessTask)

	// Slotting tasks
	mux.HandleFunc(shared.TypeAnalyzeSlotting, h.analyzeSite.ProcessTask)
	mux.HandleFunc(shared.TypeAnalyzeAllSites, h.analyzeAllSites.ProcessTask)
}
