package model

import (
	"strings"

	"github.com/google/uuid"
)

// PickKeyPrefix marks idempotency keys written by pick confirmation. Client
// requests may not use it.
const PickKeyPrefix = "pick:"

// PickKey is the idempotency key of the ISSUE posted for one pick line.
func PickKey(lineID uuid.UUID) string {
	return PickKeyPrefix + lineID.String()
}

// IsReservedKey reports whether key lies in an engine-owned namespace.
func IsReservedKey(key string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(key)), PickKeyPrefix)
}

// SameMovement reports whether e and other record the same stock movement:
// kind, item, base quantity, locations and adjust direction.
func (e Entry) SameMovement(other Entry) bool {
	return e.Type == other.Type &&
		e.ItemID == other.ItemID &&
		e.QtyBase.Equal(other.QtyBase) &&
		sameID(e.FromLocationID, other.FromLocationID) &&
		sameID(e.ToLocationID, other.ToLocationID) &&
		sameDirection(e.Direction, other.Direction)
}

// Describes reports whether e was posted for txn, judged without the catalog.
// The entered quantity and unit must match exactly; a request that omits its
// unit is never matched here and needs the base quantity to decide.
func (e Entry) Describes(txn Transaction) bool {
	h := txn.Head()
	unit := strings.ToUpper(strings.TrimSpace(h.UOM))
	if unit == "" || unit != e.UOMEntered || !e.QtyEntered.Equal(h.Quantity) {
		return false
	}
	return e.SameMovement(NewEntry(e.ID, txn, e.UOMEntered, e.QtyBase, e.CreatedAt))
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameDirection(a, b *AdjustDirection) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
