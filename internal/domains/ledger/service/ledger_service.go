package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogModel "inventory-engine/internal/domains/catalog/model"
	catalogRepo "inventory-engine/internal/domains/catalog/repository"
	"inventory-engine/internal/domains/ledger/model"
	"inventory-engine/internal/domains/uom"
	"inventory-engine/internal/shared/apperr"
	"inventory-engine/internal/storage"
	"inventory-engine/pkg/logger"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type LedgerService struct {
	store    storage.Store
	catalog  catalogRepo.Repository
	resolver *uom.Resolver
	notifier Notifier
	now      func() time.Time
}

type Option func(*LedgerService)

// WithClock replaces time.Now for entry and balance timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

// NewService creates the ledger. notifier may be nil.
func NewService(
	store storage.Store,
	catalog catalogRepo.Repository,
	resolver *uom.Resolver,
	notifier Notifier,
	opts ...Option,
) *LedgerService {
	s := &LedgerService{
		store:    store,
		catalog:  catalog,
		resolver: resolver,
		notifier: notifier,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// prepared is a validated transaction with catalog lookups and the base
// quantity resolved, ready to post.
type prepared struct {
	txn     model.Transaction
	item    catalogModel.Item
	uom     string
	qtyBase decimal.Decimal
}

// Apply implements ServiceInterface.Apply
func (s *LedgerService) Apply(ctx context.Context, txn model.Transaction) (*model.Entry, error) {
	if err := txn.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}

	// Fast path: an exact replay needs no catalog work. Anything else is
	// settled by post once the base quantity is known.
	if key := txn.Head().IdempotencyKey; key != "" {
		prior, err := s.store.Reader().Transactions().FindByIdempotencyKey(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("lookup idempotency key: %w", err)
		}
		if prior != nil && prior.Describes(txn) {
			logger.Debug("ledger: idempotent replay", map[string]interface{}{"idempotency_key": key, "entry_id": prior.ID})
			return prior, nil
		}
	}

	p, err := s.prepare(ctx, txn)
	if err != nil {
		return nil, err
	}

	var (
		entry *model.Entry
		fresh bool
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, uow storage.UnitOfWork) error {
		e, created, err := s.post(ctx, uow, p)
		if err != nil {
			return err
		}
		entry, fresh = e, created
		return nil
	})
	if err != nil {
		return nil, err
	}

	if fresh {
		s.AfterCommit(ctx, *entry)
	}
	return entry, nil
}

// ApplyInTx implements ServiceInterface.ApplyInTx
func (s *LedgerService) ApplyInTx(ctx context.Context, uow storage.UnitOfWork, txn model.Transaction) (*model.Entry, error) {
	if err := txn.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}
	p, err := s.prepare(ctx, txn)
	if err != nil {
		return nil, err
	}
	entry, _, err := s.post(ctx, uow, p)
	return entry, err
}

// AfterCommit implements ServiceInterface.AfterCommit
func (s *LedgerService) AfterCommit(ctx context.Context, entry model.Entry) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.EntryPosted(ctx, entry); err != nil {
		logger.ErrorWithFields("ledger: post-commit notification failed", err, map[string]interface{}{
			"entry_id": entry.ID,
			"item_id":  entry.ItemID,
		})
	}
}

func (s *LedgerService) prepare(ctx context.Context, txn model.Transaction) (*prepared, error) {
	h := txn.Head()

	item, err := s.catalog.GetItem(ctx, h.ItemID)
	if err != nil {
		return nil, err
	}
	for _, locID := range txn.Locations() {
		if _, err := s.catalog.GetLocation(ctx, locID); err != nil {
			return nil, err
		}
	}

	code := uom.Normalize(h.UOM)
	if code == "" {
		code = uom.Normalize(item.BaseUOM)
	}
	qtyBase, err := s.resolver.ToBase(ctx, *item, h.Quantity, code)
	if err != nil {
		return nil, err
	}

	return &prepared{txn: txn, item: *item, uom: code, qtyBase: qtyBase}, nil
}

// post writes the balances and the entry through uow. created is false when
// the idempotency key was already used.
func (s *LedgerService) post(ctx context.Context, uow storage.UnitOfWork, p *prepared) (*model.Entry, bool, error) {
	now := s.now().UTC()
	entry := model.NewEntry(uuid.New(), p.txn, p.uom, p.qtyBase, now)

	if key := p.txn.Head().IdempotencyKey; key != "" {
		prior, err := uow.Transactions().FindByIdempotencyKey(ctx, key)
		if err != nil {
			return nil, false, fmt.Errorf("lookup idempotency key: %w", err)
		}
		if prior != nil {
			if !prior.SameMovement(entry) {
				logger.Warn("ledger: idempotency key reused for a different movement", map[string]interface{}{
					"idempotency_key": key,
					"entry_id":        prior.ID,
					"prior_type":      prior.Type,
					"type":            entry.Type,
				})
				return nil, false, apperr.IdempotencyKeyReused(key, prior.ID)
			}
			return prior, false, nil
		}
	}

	postings := entry.Postings()
	next := make([]model.Balance, 0, len(postings))
	for _, posting := range postings {
		current, err := uow.Balances().GetForUpdate(ctx, entry.ItemID, posting.LocationID)
		if err != nil {
			return nil, false, fmt.Errorf("lock balance: %w", err)
		}

		bal := model.Balance{ItemID: entry.ItemID, LocationID: posting.LocationID, QtyBase: decimal.Zero, CreatedAt: now}
		if current != nil {
			bal = *current
		}

		qty := bal.QtyBase.Add(posting.Delta)
		if posting.Guarded && qty.IsNegative() {
			return nil, false, apperr.InsufficientStock(entry.ItemID, posting.LocationID, posting.Delta.Neg(), bal.QtyBase)
		}
		bal.QtyBase = qty
		bal.UpdatedAt = now
		next = append(next, bal)
	}

	for _, bal := range next {
		if err := uow.Balances().Upsert(ctx, bal); err != nil {
			return nil, false, fmt.Errorf("write balance: %w", err)
		}
	}
	if err := uow.Transactions().Append(ctx, &entry); err != nil {
		return nil, false, fmt.Errorf("append ledger entry: %w", err)
	}

	logger.Info("✅ ledger entry posted", map[string]interface{}{
		"entry_id": entry.ID,
		"type":     entry.Type,
		"item_id":  entry.ItemID,
		"sku":      p.item.SKU,
		"qty_base": entry.QtyBase.String(),
		"uom":      entry.UOMEntered,
	})
	return &entry, true, nil
}

// ListEntries implements ServiceInterface.ListEntries
func (s *LedgerService) ListEntries(ctx context.Context, filter model.EntryFilter) ([]model.Entry, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	entries, err := s.store.Reader().Transactions().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return entries, nil
}

// ListBalances implements ServiceInterface.ListBalances
func (s *LedgerService) ListBalances(ctx context.Context, itemID, locationID *uuid.UUID) ([]model.Balance, error) {
	repo := s.store.Reader().Balances()

	switch {
	case itemID != nil:
		rows, err := repo.ListByItem(ctx, *itemID)
		if err != nil {
			return nil, fmt.Errorf("list balances: %w", err)
		}
		if locationID == nil {
			return rows, nil
		}
		out := rows[:0]
		for _, b := range rows {
			if b.LocationID == *locationID {
				out = append(out, b)
			}
		}
		return out, nil
	case locationID != nil:
		rows, err := repo.ListByLocations(ctx, []uuid.UUID{*locationID})
		if err != nil {
			return nil, fmt.Errorf("list balances: %w", err)
		}
		return rows, nil
	default:
		return nil, apperr.Invalid("item_id or location_id is required", map[string]string{
			"item_id":     "required without location_id",
			"location_id": "required without item_id",
		})
	}
}

// Verify implements ServiceInterface.Verify
func (s *LedgerService) Verify(ctx context.Context) (*model.VerifyReport, error) {
	var report model.VerifyReport

	err := s.store.WithinTx(ctx, func(ctx context.Context, uow storage.UnitOfWork) error {
		entries, err := uow.Transactions().ListAll(ctx)
		if err != nil {
			return fmt.Errorf("load ledger: %w", err)
		}
		balances, err := uow.Balances().ListAll(ctx)
		if err != nil {
			return fmt.Errorf("load balances: %w", err)
		}

		replayed := model.Replay(entries)
		report = model.VerifyReport{Entries: len(entries), Balances: len(balances), Drifts: []model.Drift{}}

		for _, b := range balances {
			want := replayed[b.Key()]
			if !want.Equal(b.QtyBase) {
				report.Drifts = append(report.Drifts, model.Drift{
					ItemID: b.ItemID, LocationID: b.LocationID, Stored: b.QtyBase, Replayed: want,
				})
			}
			delete(replayed, b.Key())
		}
		// Replayed rows with no stored balance at all
		for k, qty := range replayed {
			if !qty.IsZero() {
				report.Drifts = append(report.Drifts, model.Drift{
					ItemID: k.ItemID, LocationID: k.LocationID, Stored: decimal.Zero, Replayed: qty,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(report.Drifts, func(i, j int) bool {
		a, b := report.Drifts[i], report.Drifts[j]
		if c := bytes.Compare(a.ItemID[:], b.ItemID[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(a.LocationID[:], b.LocationID[:]) < 0
	})

	if len(report.Drifts) > 0 {
		logger.Warn("⚠️ ledger verify found drift", map[string]interface{}{"drifts": len(report.Drifts)})
	}
	return &report, nil
}
