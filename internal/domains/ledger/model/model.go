package model

import (
	"bytes"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the kind of stock movement recorded in the ledger.
type TransactionType string

const (
	TypeReceive TransactionType = "RECEIVE"
	TypeMove    TransactionType = "MOVE"
	TypeIssue   TransactionType = "ISSUE"
	TypeAdjust  TransactionType = "ADJUST"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TypeReceive, TypeMove, TypeIssue, TypeAdjust:
		return true
	}
	return false
}

func (t TransactionType) String() string { return string(t) }

// AdjustDirection applies to ADJUST only.
type AdjustDirection string

const (
	DirectionAdd      AdjustDirection = "ADD"
	DirectionSubtract AdjustDirection = "SUBTRACT"
)

func (d AdjustDirection) IsValid() bool {
	return d == DirectionAdd || d == DirectionSubtract
}

// Balance is the on-hand quantity of one item at one location, in base UOM.
// Rows are created on first movement and never deleted.
type Balance struct {
	ItemID     uuid.UUID       `json:"item_id"`
	LocationID uuid.UUID       `json:"location_id"`
	QtyBase    decimal.Decimal `json:"qty_base"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// BalanceKey identifies a balance row.
type BalanceKey struct {
	ItemID     uuid.UUID
	LocationID uuid.UUID
}

func (b Balance) Key() BalanceKey {
	return BalanceKey{ItemID: b.ItemID, LocationID: b.LocationID}
}

// Entry is an immutable ledger record.
type Entry struct {
	ID             uuid.UUID        `json:"id"`
	Type           TransactionType  `json:"type"`
	ItemID         uuid.UUID        `json:"item_id"`
	QtyEntered     decimal.Decimal  `json:"qty_entered"`
	UOMEntered     string           `json:"uom_entered"`
	QtyBase        decimal.Decimal  `json:"qty_base"`
	FromLocationID *uuid.UUID       `json:"from_location_id,omitempty"`
	ToLocationID   *uuid.UUID       `json:"to_location_id,omitempty"`
	Direction      *AdjustDirection `json:"direction,omitempty"`
	Reason         *string          `json:"reason,omitempty"`
	ActorID        uuid.UUID        `json:"actor_id"`
	IdempotencyKey *string          `json:"idempotency_key,omitempty"`
	LotNumber      *string          `json:"lot_number,omitempty"`
	Reference      *string          `json:"reference,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// Posting is one balance delta produced by an entry.
// Guarded postings must not leave the balance negative.
type Posting struct {
	LocationID uuid.UUID
	Delta      decimal.Decimal
	Guarded    bool
}

// Postings returns the balance deltas of the entry ordered by location id,
// which is also the row lock order.
func (e Entry) Postings() []Posting {
	var out []Posting
	switch e.Type {
	case TypeReceive:
		out = append(out, Posting{LocationID: *e.ToLocationID, Delta: e.QtyBase})
	case TypeMove:
		out = append(out,
			Posting{LocationID: *e.FromLocationID, Delta: e.QtyBase.Neg(), Guarded: true},
			Posting{LocationID: *e.ToLocationID, Delta: e.QtyBase},
		)
	case TypeIssue:
		out = append(out, Posting{LocationID: *e.FromLocationID, Delta: e.QtyBase.Neg(), Guarded: true})
	case TypeAdjust:
		if e.Direction != nil && *e.Direction == DirectionSubtract {
			out = append(out, Posting{LocationID: *e.FromLocationID, Delta: e.QtyBase.Neg()})
		} else {
			out = append(out, Posting{LocationID: *e.ToLocationID, Delta: e.QtyBase})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].LocationID[:], out[j].LocationID[:]) < 0
	})
	return out
}

// Replay folds entries into balances. Entries must be in posting order.
func Replay(entries []Entry) map[BalanceKey]decimal.Decimal {
	out := make(map[BalanceKey]decimal.Decimal)
	for _, e := range entries {
		for _, p := range e.Postings() {
			k := BalanceKey{ItemID: e.ItemID, LocationID: p.LocationID}
			out[k] = out[k].Add(p.Delta)
		}
	}
	return out
}

// Drift is a balance row whose stored quantity differs from the ledger replay.
type Drift struct {
	ItemID     uuid.UUID       `json:"item_id"`
	LocationID uuid.UUID       `json:"location_id"`
	Stored     decimal.Decimal `json:"stored"`
	Replayed   decimal.Decimal `json:"replayed"`
}

// VerifyReport is the outcome of comparing balances to the ledger.
type VerifyReport struct {
	Entries  int     `json:"entries"`
	Balances int     `json:"balances"`
	Drifts   []Drift `json:"drifts"`
}

// EntryFilter narrows ledger queries. Zero values mean "any".
type EntryFilter struct {
	ItemID     *uuid.UUID
	LocationID *uuid.UUID
	Since      *time.Time
	Limit      int
}
