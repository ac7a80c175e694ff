package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"inventory-engine/internal/domains/ledger/model"
)

// BalanceRepository is the Balance Store. Only the ledger writes through it.
type BalanceRepository interface {
	// GetForUpdate reads and locks one balance row for the rest of the unit of
	// work. Returns (nil, nil) if the pair has never received stock.
	GetForUpdate(ctx context.Context, itemID, locationID uuid.UUID) (*model.Balance, error)

	// Upsert writes the balance row, creating it on first movement.
	Upsert(ctx context.Context, b model.Balance) error

	ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.Balance, error)
	ListByLocations(ctx context.Context, locationIDs []uuid.UUID) ([]model.Balance, error)
	ListAll(ctx context.Context) ([]model.Balance, error)
}

// TransactionRepository is the append-only ledger.
type TransactionRepository interface {
	Append(ctx context.Context, e *model.Entry) error

	// FindByIdempotencyKey returns (nil, nil) when the key has not been used.
	FindByIdempotencyKey(ctx context.Context, key string) (*model.Entry, error)

	// List returns entries newest first.
	List(ctx context.Context, filter model.EntryFilter) ([]model.Entry, error)

	// ListAll returns every entry in posting order, for replay.
	ListAll(ctx context.Context) ([]model.Entry, error)

	// CountMovements counts RECEIVE, MOVE and ISSUE entries per item that
	// touch any of locationIDs since the given time.
	CountMovements(ctx context.Context, locationIDs []uuid.UUID, since time.Time) (map[uuid.UUID]int, error)
}
