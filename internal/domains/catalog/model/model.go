package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LocationType classifies a storage position inside a site.
type LocationType string

const (
	LocationTypeStock     LocationType = "STOCK"
	LocationTypeReceiving LocationType = "RECEIVING"
	LocationTypeStaging   LocationType = "STAGING"
	LocationTypeShipping  LocationType = "SHIPPING"
)

func (t LocationType) IsValid() bool {
	switch t {
	case LocationTypeStock, LocationTypeReceiving, LocationTypeStaging, LocationTypeShipping:
		return true
	}
	return false
}

// Item is catalog master data. Balances are always kept in BaseUOM.
type Item struct {
	ID        uuid.UUID       `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	BaseUOM   string          `json:"base_uom"`
	Category  string          `json:"category"`
	CostBase  decimal.Decimal `json:"cost_base"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Location is a bin inside a site. Read-only to the engine.
type Location struct {
	ID        uuid.UUID    `json:"id"`
	SiteID    uuid.UUID    `json:"site_id"`
	Label     string       `json:"label"`
	Zone      string       `json:"zone"`
	Bin       string       `json:"bin"`
	Type      LocationType `json:"type"`
	CreatedAt time.Time    `json:"created_at"`
}

// IsStorage reports whether putaway and picking may use the location.
func (l Location) IsStorage() bool {
	return l.Type == LocationTypeStock
}

// BinNumber returns the trailing numeric run of the bin label ("R2-B14" -> 14),
// or 0 when the label has no digits.
func (l Location) BinNumber() int {
	end := len(l.Bin)
	for end > 0 && !isDigit(l.Bin[end-1]) {
		end--
	}
	start := end
	for start > 0 && isDigit(l.Bin[start-1]) {
		start--
	}
	if start == end {
		return 0
	}
	n, err := strconv.Atoi(l.Bin[start:end])
	if err != nil {
		return 0
	}
	return n
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// UOMConversion is a per-item multiplicative factor: qty[To] = qty[From] * Factor.
type UOMConversion struct {
	ItemID  uuid.UUID       `json:"item_id"`
	FromUOM string          `json:"from_uom"`
	ToUOM   string          `json:"to_uom"`
	Factor  decimal.Decimal `json:"factor"`
}
