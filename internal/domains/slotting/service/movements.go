package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"inventory-engine/internal/storage"
)

// LedgerMovements counts RECEIVE, MOVE and ISSUE entries in the ledger.
type LedgerMovements struct {
	store storage.Store
}

func NewLedgerMovements(store storage.Store) *LedgerMovements {
	return &LedgerMovements{store: store}
}

func (m *LedgerMovements) CountMovements(ctx context.Context, locationIDs []uuid.UUID, since time.Time) (map[uuid.UUID]int, error) {
	return m.store.Reader().Transactions().CountMovements(ctx, locationIDs, since)
}
