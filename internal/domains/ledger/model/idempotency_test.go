package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-engine/internal/shared/apperr"
)

func TestIsReservedKey(t *testing.T) {
	assert.True(t, IsReservedKey(PickKey(uuid.New())))
	assert.True(t, IsReservedKey("  PICK:abc"))
	assert.False(t, IsReservedKey("picking-42"))
	assert.False(t, IsReservedKey(""))
}

func TestDescribes(t *testing.T) {
	loc, other := uuid.New(), uuid.New()
	h := header(4)
	posted := Receive{Header: h, ToLocationID: loc}
	entry := NewEntry(uuid.New(), posted, "EA", decimal.NewFromInt(4), time.Now())

	lower := h
	lower.UOM = "ea"
	noUnit := h
	noUnit.UOM = ""
	more := h
	more.Quantity = decimal.NewFromInt(5)

	tests := []struct {
		name string
		txn  Transaction
		want bool
	}{
		{"same request", posted, true},
		{"unit case ignored", Receive{Header: lower, ToLocationID: loc}, true},
		{"unit omitted", Receive{Header: noUnit, ToLocationID: loc}, false},
		{"other quantity", Receive{Header: more, ToLocationID: loc}, false},
		{"other location", Receive{Header: h, ToLocationID: other}, false},
		{"other type", Issue{Header: h, FromLocationID: loc}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, entry.Describes(tt.txn))
		})
	}
}

func TestSameMovement_AdjustDirection(t *testing.T) {
	loc := uuid.New()
	h := header(2)
	up := NewEntry(uuid.New(), Adjust{Header: h, LocationID: loc, Direction: DirectionAdd, Reason: "count"}, "EA", decimal.NewFromInt(2), time.Now())
	down := NewEntry(uuid.New(), Adjust{Header: h, LocationID: loc, Direction: DirectionSubtract, Reason: "count"}, "EA", decimal.NewFromInt(2), time.Now())

	assert.True(t, up.SameMovement(up))
	assert.False(t, up.SameMovement(down))
}

func TestToTransaction_ReservedKey(t *testing.T) {
	loc := uuid.New()
	req := ApplyTransactionRequest{
		Type:           TypeReceive,
		ItemID:         uuid.New(),
		Quantity:       decimal.NewFromInt(1),
		ToLocationID:   &loc,
		IdempotencyKey: PickKey(uuid.New()),
	}
	_, err := req.ToTransaction(uuid.New())
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}
