// Package memory is an in-process implementation of storage.Store and the
// catalog repository. A unit of work runs against a private copy of the state
// which replaces the committed state only when the work succeeds.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	ledgerModel "inventory-engine/internal/domains/ledger/model"
	ledgerRepo "inventory-engine/internal/domains/ledger/repository"
	pickingModel "inventory-engine/internal/domains/picking/model"
	pickingRepo "inventory-engine/internal/domains/picking/repository"
	"inventory-engine/internal/storage"
)

// ErrConflict simulates a serialization failure. It is retryable.
var ErrConflict = errors.New("memory store: serialization conflict")

type Store struct {
	mu        sync.RWMutex
	data      *state
	opts      storage.Options
	conflicts int
}

func NewStore(opts storage.Options) *Store {
	return &Store{data: newState(), opts: opts}
}

// InjectConflicts makes the next n commits fail with ErrConflict.
func (s *Store) InjectConflicts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflicts = n
}

func isConflict(err error) bool { return errors.Is(err, ErrConflict) }

func (s *Store) WithinTx(ctx context.Context, fn storage.TxFunc) error {
	return storage.Run(ctx, s.opts, isConflict, func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		work := s.data.clone()
		uow := newUnitOfWork(func(_ bool, f func(*state) error) error { return f(work) })
		if err := fn(ctx, uow); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.conflicts > 0 {
			s.conflicts--
			return ErrConflict
		}

		s.data = work
		return nil
	})
}

func (s *Store) Reader() storage.UnitOfWork {
	return newUnitOfWork(func(write bool, f func(*state) error) error {
		if write {
			s.mu.Lock()
			defer s.mu.Unlock()
		} else {
			s.mu.RLock()
			defer s.mu.RUnlock()
		}
		return f(s.data)
	})
}

// SeedOrder stores a sales order as-is. Used for fixtures and local runs.
func (s *Store) SeedOrder(o pickingModel.SalesOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.orders[o.ID] = copyOrder(o)
}

// ========================================
// STATE
// ========================================

type state struct {
	balances map[ledgerModel.BalanceKey]ledgerModel.Balance
	entries  []ledgerModel.Entry
	byKey    map[string]int
	orders   map[uuid.UUID]pickingModel.SalesOrder
	waves    map[uuid.UUID]pickingModel.Wave
	tasks    map[uuid.UUID]pickingModel.PickTask
	lineTask map[uuid.UUID]uuid.UUID
}

func newState() *state {
	return &state{
		balances: make(map[ledgerModel.BalanceKey]ledgerModel.Balance),
		byKey:    make(map[string]int),
		orders:   make(map[uuid.UUID]pickingModel.SalesOrder),
		waves:    make(map[uuid.UUID]pickingModel.Wave),
		tasks:    make(map[uuid.UUID]pickingModel.PickTask),
		lineTask: make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *state) clone() *state {
	c := &state{
		balances: make(map[ledgerModel.BalanceKey]ledgerModel.Balance, len(s.balances)),
		entries:  make([]ledgerModel.Entry, len(s.entries)),
		byKey:    make(map[string]int, len(s.byKey)),
		orders:   make(map[uuid.UUID]pickingModel.SalesOrder, len(s.orders)),
		waves:    make(map[uuid.UUID]pickingModel.Wave, len(s.waves)),
		tasks:    make(map[uuid.UUID]pickingModel.PickTask, len(s.tasks)),
		lineTask: make(map[uuid.UUID]uuid.UUID, len(s.lineTask)),
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	copy(c.entries, s.entries)
	for k, v := range s.byKey {
		c.byKey[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = copyOrder(v)
	}
	for k, v := range s.waves {
		v.OrderIDs = append([]uuid.UUID(nil), v.OrderIDs...)
		c.waves[k] = v
	}
	for k, v := range s.tasks {
		c.tasks[k] = copyTask(v)
	}
	for k, v := range s.lineTask {
		c.lineTask[k] = v
	}
	return c
}

func copyOrder(o pickingModel.SalesOrder) pickingModel.SalesOrder {
	o.Lines = append([]pickingModel.SalesOrderLine(nil), o.Lines...)
	return o
}

func copyTask(t pickingModel.PickTask) pickingModel.PickTask {
	t.Lines = append([]pickingModel.PickTaskLine(nil), t.Lines...)
	return t
}

// ========================================
// UNIT OF WORK
// ========================================

// accessor runs f against the state the repository is bound to.
type accessor func(write bool, f func(*state) error) error

type unitOfWork struct {
	balances     *balanceRepository
	transactions *transactionRepository
	orders       *orderRepository
	waves        *waveRepository
	tasks        *taskRepository
}

func newUnitOfWork(access accessor) *unitOfWork {
	return &unitOfWork{
		balances:     &balanceRepository{access: access},
		transactions: &transactionRepository{access: access},
		orders:       &orderRepository{access: access},
		waves:        &waveRepository{access: access},
		tasks:        &taskRepository{access: access},
	}
}

func (u *unitOfWork) Balances() ledgerRepo.BalanceRepository         { return u.balances }
func (u *unitOfWork) Transactions() ledgerRepo.TransactionRepository { return u.transactions }
func (u *unitOfWork) Orders() pickingRepo.OrderRepository            { return u.orders }
func (u *unitOfWork) Waves() pickingRepo.WaveRepository              { return u.waves }
func (u *unitOfWork) PickTasks() pickingRepo.TaskRepository          { return u.tasks }
