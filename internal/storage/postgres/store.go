package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	ledgerRepo "inventory-engine/internal/domains/ledger/repository"
	pickingRepo "inventory-engine/internal/domains/picking/repository"
	"inventory-engine/internal/storage"
	"inventory-engine/pkg/database"
)

// Store runs units of work as SERIALIZABLE transactions on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
	opts storage.Options
}

func NewStore(pool *pgxpool.Pool, opts storage.Options) *Store {
	return &Store{pool: pool, opts: opts}
}

func (s *Store) WithinTx(ctx context.Context, fn storage.TxFunc) error {
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	return storage.Run(ctx, s.opts, retryable, func(ctx context.Context) error {
		return database.WithTransactionOptions(ctx, s.pool, txOpts, func(tx pgx.Tx) error {
			return fn(ctx, newUnitOfWork(tx))
		})
	})
}

func (s *Store) Reader() storage.UnitOfWork {
	return newUnitOfWork(s.pool)
}

// retryable: serialization failures, deadlocks, and a concurrent insert of
// the same idempotency key (the next attempt finds the committed entry).
func retryable(err error) bool {
	return database.IsSerializationFailure(err) ||
		database.IsUniqueViolation(err, ledgerRepo.IdempotencyConstraint)
}

type unitOfWork struct {
	balances     ledgerRepo.BalanceRepository
	transactions ledgerRepo.TransactionRepository
	orders       pickingRepo.OrderRepository
	waves        pickingRepo.WaveRepository
	tasks        pickingRepo.TaskRepository
}

func newUnitOfWork(db database.DBTX) *unitOfWork {
	return &unitOfWork{
		balances:     ledgerRepo.NewBalanceRepository(db),
		transactions: ledgerRepo.NewTransactionRepository(db),
		orders:       pickingRepo.NewOrderRepository(db),
		waves:        pickingRepo.NewWaveRepository(db),
		tasks:        pickingRepo.NewTaskRepository(db),
	}
}

func (u *unitOfWork) Balances() ledgerRepo.BalanceRepository         { return u.balances }
func (u *unitOfWork) Transactions() ledgerRepo.TransactionRepository { return u.transactions }
func (u *unitOfWork) Orders() pickingRepo.OrderRepository            { return u.orders }
func (u *unitOfWork) Waves() pickingRepo.WaveRepository              { return u.waves }
func (u *unitOfWork) PickTasks() pickingRepo.TaskRepository          { return u.tasks }
