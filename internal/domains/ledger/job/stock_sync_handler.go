package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"inventory-engine/internal/domains/ledger/model"
	"inventory-engine/internal/shared"
	"inventory-engine/pkg/cache"
	"inventory-engine/pkg/logger"
)

// BalanceReader is the slice of the balance store the sync job needs.
type BalanceReader interface {
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.Balance, error)
}

// StockSyncHandler refreshes the cached stock summary of one item.
type StockSyncHandler struct {
	balances BalanceReader
	cache    cache.Cache
}

func NewStockSyncHandler(balances BalanceReader, cache cache.Cache) *StockSyncHandler {
	return &StockSyncHandler{
		balances: balances,
		cache:    cache,
	}
}

// ItemStockSummary is the JSON stored at inventory:item:{id}:stock.
type ItemStockSummary struct {
	ItemID             string          `json:"item_id"`
	TotalOnHand        decimal.Decimal `json:"total_on_hand"`
	LocationCount      int             `json:"location_count"`
	LocationsWithStock []string        `json:"locations_with_stock"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ProcessTask handles shared.TypeSyncItemStock.
// 1. Parse payload.
// 2. Read every balance row of the item.
// 3. Write the summary to Redis without TTL; the next posting overwrites it.
func (h *StockSyncHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.ItemStockSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Error("StockSync: failed to unmarshal payload", err)
		return fmt.Errorf("unmarshal stock sync payload: %w: %w", err, asynq.SkipRetry)
	}

	itemID, err := uuid.Parse(payload.ItemID)
	if err != nil {
		logger.Error("StockSync: invalid item_id", err)
		return fmt.Errorf("stock sync item_id %q: %w", payload.ItemID, asynq.SkipRetry)
	}

	rows, err := h.balances.ListByItem(ctx, itemID)
	if err != nil {
		// Database errors are retried by asynq
		logger.Error("StockSync: ListByItem failed", err)
		return err
	}

	summary := Summarize(itemID, rows, time.Now().UTC())

	key := fmt.Sprintf(shared.ItemStockKeyFormat, itemID)
	if err := h.cache.Set(ctx, key, summary, 0); err != nil {
		logger.Error("StockSync: failed to set cache", err)
		return err
	}

	logger.Info("StockSync: cache updated", map[string]interface{}{
		"item_id":     payload.ItemID,
		"total":       summary.TotalOnHand.String(),
		"locations":   summary.LocationCount,
		"entry_id":    payload.EntryID,
		"source":      payload.Source,
		"correlation": payload.CorrelationID,
	})
	return nil
}

// Summarize folds balance rows into the cached summary. Locations at or below
// zero count toward the total but are not listed as holding stock.
func Summarize(itemID uuid.UUID, rows []model.Balance, at time.Time) ItemStockSummary {
	s := ItemStockSummary{
		ItemID:             itemID.String(),
		TotalOnHand:        decimal.Zero,
		LocationsWithStock: []string{},
		UpdatedAt:          at,
	}
	for _, b := range rows {
		s.TotalOnHand = s.TotalOnHand.Add(b.QtyBase)
		if b.QtyBase.IsPositive() {
			s.LocationsWithStock = append(s.LocationsWithStock, b.LocationID.String())
		}
	}
	s.LocationCount = len(s.LocationsWithStock)
	return s
}
