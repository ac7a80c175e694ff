package service

import (
	"context"

	"github.com/google/uuid"

	"inventory-engine/internal/domains/ledger/model"
	"inventory-engine/internal/storage"
)

// ServiceInterface is the Transaction Ledger: the single writer of balances.
type ServiceInterface interface {
	// Apply posts txn atomically: every balance change and the ledger entry
	// commit together or not at all.
	// Returns ErrInsufficientStock when a MOVE or ISSUE would leave a balance negative
	// Returns ErrConversionNotFound when the entered UOM has no factor to base
	// Returns ErrConcurrencyConflict when the serialization retry budget runs out
	// A repeated idempotency key returns the originally posted entry unchanged.
	Apply(ctx context.Context, txn model.Transaction) (*model.Entry, error)

	// ApplyInTx posts txn inside a unit of work owned by the caller. The caller
	// must call AfterCommit with the returned entry once its unit commits.
	ApplyInTx(ctx context.Context, uow storage.UnitOfWork, txn model.Transaction) (*model.Entry, error)

	// AfterCommit runs post-commit side effects (stock cache sync).
	AfterCommit(ctx context.Context, entry model.Entry)

	// ListEntries returns ledger entries newest first.
	ListEntries(ctx context.Context, filter model.EntryFilter) ([]model.Entry, error)

	// ListBalances returns balances of one item, one location, or both.
	ListBalances(ctx context.Context, itemID, locationID *uuid.UUID) ([]model.Balance, error)

	// Verify replays the whole ledger and reports balance rows that differ.
	Verify(ctx context.Context) (*model.VerifyReport, error)
}

// Notifier is told about every newly committed entry. Errors are logged and
// never fail the posting.
type Notifier interface {
	EntryPosted(ctx context.Context, entry model.Entry) error
}
