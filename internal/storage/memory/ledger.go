package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"inventory-engine/internal/domains/ledger/model"
)

type balanceRepository struct {
	access accessor
}

func (r *balanceRepository) GetForUpdate(_ context.Context, itemID, locationID uuid.UUID) (*model.Balance, error) {
	var out *model.Balance
	err := r.access(false, func(st *state) error {
		if b, ok := st.balances[model.BalanceKey{ItemID: itemID, LocationID: locationID}]; ok {
			out = &b
		}
		return nil
	})
	return out, err
}

func (r *balanceRepository) Upsert(_ context.Context, b model.Balance) error {
	return r.access(true, func(st *state) error {
		st.balances[b.Key()] = b
		return nil
	})
}

func (r *balanceRepository) ListByItem(_ context.Context, itemID uuid.UUID) ([]model.Balance, error) {
	return r.list(func(b model.Balance) bool { return b.ItemID == itemID }, byUpdated)
}

func (r *balanceRepository) ListByLocations(_ context.Context, locationIDs []uuid.UUID) ([]model.Balance, error) {
	want := make(map[uuid.UUID]struct{}, len(locationIDs))
	for _, id := range locationIDs {
		want[id] = struct{}{}
	}
	return r.list(func(b model.Balance) bool {
		_, ok := want[b.LocationID]
		return ok
	}, byUpdated)
}

func (r *balanceRepository) ListAll(_ context.Context) ([]model.Balance, error) {
	return r.list(func(model.Balance) bool { return true }, byKey)
}

func (r *balanceRepository) list(keep func(model.Balance) bool, less func(a, b model.Balance) bool) ([]model.Balance, error) {
	var out []model.Balance
	err := r.access(false, func(st *state) error {
		for _, b := range st.balances {
			if keep(b) {
				out = append(out, b)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, err
}

func byUpdated(a, b model.Balance) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.Before(b.UpdatedAt)
	}
	return bytes.Compare(a.LocationID[:], b.LocationID[:]) < 0
}

func byKey(a, b model.Balance) bool {
	if c := bytes.Compare(a.ItemID[:], b.ItemID[:]); c != 0 {
		return c < 0
	}
	return bytes.Compare(a.LocationID[:], b.LocationID[:]) < 0
}

type transactionRepository struct {
	access accessor
}

func (r *transactionRepository) Append(_ context.Context, e *model.Entry) error {
	return r.access(true, func(st *state) error {
		if e.IdempotencyKey != nil {
			if _, dup := st.byKey[*e.IdempotencyKey]; dup {
				return fmt.Errorf("append ledger entry: duplicate idempotency key %q", *e.IdempotencyKey)
			}
			st.byKey[*e.IdempotencyKey] = len(st.entries)
		}
		st.entries = append(st.entries, *e)
		return nil
	})
}

func (r *transactionRepository) FindByIdempotencyKey(_ context.Context, key string) (*model.Entry, error) {
	var out *model.Entry
	err := r.access(false, func(st *state) error {
		if i, ok := st.byKey[key]; ok {
			e := st.entries[i]
			out = &e
		}
		return nil
	})
	return out, err
}

func (r *transactionRepository) List(_ context.Context, filter model.EntryFilter) ([]model.Entry, error) {
	var out []model.Entry
	err := r.access(false, func(st *state) error {
		for i := len(st.entries) - 1; i >= 0; i-- {
			e := st.entries[i]
			if filter.ItemID != nil && e.ItemID != *filter.ItemID {
				continue
			}
			if filter.LocationID != nil && !touches(e, map[uuid.UUID]struct{}{*filter.LocationID: {}}) {
				continue
			}
			if filter.Since != nil && e.CreatedAt.Before(*filter.Since) {
				continue
			}
			out = append(out, e)
			if filter.Limit > 0 && len(out) == filter.Limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *transactionRepository) ListAll(_ context.Context) ([]model.Entry, error) {
	var out []model.Entry
	err := r.access(false, func(st *state) error {
		out = append(out, st.entries...)
		return nil
	})
	return out, err
}

func (r *transactionRepository) CountMovements(_ context.Context, locationIDs []uuid.UUID, since time.Time) (map[uuid.UUID]int, error) {
	locs := make(map[uuid.UUID]struct{}, len(locationIDs))
	for _, id := range locationIDs {
		locs[id] = struct{}{}
	}

	out := make(map[uuid.UUID]int)
	err := r.access(false, func(st *state) error {
		for _, e := range st.entries {
			if e.Type == model.TypeAdjust || e.CreatedAt.Before(since) || !touches(e, locs) {
				continue
			}
			out[e.ItemID]++
		}
		return nil
	})
	return out, err
}

func touches(e model.Entry, locs map[uuid.UUID]struct{}) bool {
	if e.FromLocationID != nil {
		if _, ok := locs[*e.FromLocationID]; ok {
			return true
		}
	}
	if e.ToLocationID != nil {
		if _, ok := locs[*e.ToLocationID]; ok {
			return true
		}
	}
	return false
}
