// Package storage defines the unit of work shared by the ledger and the
// picking planner. Every balance write happens inside WithinTx.
package storage

import (
	"context"
	"errors"
	"time"

	ledgerRepo "inventory-engine/internal/domains/ledger/repository"
	pickingRepo "inventory-engine/internal/domains/picking/repository"
	"inventory-engine/internal/shared/apperr"
	"inventory-engine/pkg/database"
)

// UnitOfWork exposes repositories bound to one atomic scope.
type UnitOfWork interface {
	Balances() ledgerRepo.BalanceRepository
	Transactions() ledgerRepo.TransactionRepository
	Orders() pickingRepo.OrderRepository
	Waves() pickingRepo.WaveRepository
	PickTasks() pickingRepo.TaskRepository
}

// TxFunc may run more than once: on a serialization conflict the whole unit
// of work is discarded and fn is called again.
type TxFunc func(ctx context.Context, uow UnitOfWork) error

type Store interface {
	// WithinTx runs fn atomically. All writes made through uow commit together
	// or not at all.
	WithinTx(ctx context.Context, fn TxFunc) error

	// Reader returns repositories that read committed state outside any
	// unit of work. Do not call it from inside WithinTx.
	Reader() UnitOfWork
}

// Options shared by store implementations.
type Options struct {
	Retry   database.RetryPolicy
	Timeout time.Duration
}

func DefaultOptions() Options {
	return Options{Retry: database.DefaultRetryPolicy(), Timeout: 10 * time.Second}
}

// Run applies the timeout and retry policy around attempt and maps an
// exhausted retry budget to a concurrency conflict.
func Run(ctx context.Context, opts Options, retryable func(error) bool, attempt func(ctx context.Context) error) error {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	err := database.Retry(ctx, opts.Retry, retryable, func(ctx context.Context, _ int) error {
		return attempt(ctx)
	})

	var exhausted *database.ExhaustedError
	if errors.As(err, &exhausted) {
		return apperr.ConcurrencyConflict(exhausted.Attempts, exhausted.Last)
	}
	return err
}
