package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Class is an ABC velocity band. A moves fastest.
type Class string

const (
	ClassA Class = "A"
	ClassB Class = "B"
	ClassC Class = "C"
)

// ItemVelocity is one item's movement count over the analysis window.
type ItemVelocity struct {
	ItemID    uuid.UUID `json:"item_id"`
	SKU       string    `json:"sku"`
	Category  string    `json:"category"`
	Movements int       `json:"movements"`
	Class     Class     `json:"class"`
}

// ABCClassification is the result of performABCAnalysis. Items are ordered by
// movement count, fastest first.
type ABCClassification struct {
	SiteID      uuid.UUID      `json:"site_id"`
	Policy      string         `json:"policy"`
	WindowDays  int            `json:"window_days"`
	Since       time.Time      `json:"since"`
	Items       []ItemVelocity `json:"items"`
	ClassCounts map[Class]int  `json:"class_counts"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Classes returns the class of every item keyed by item id.
func (a ABCClassification) Classes() map[uuid.UUID]Class {
	out := make(map[uuid.UUID]Class, len(a.Items))
	for _, it := range a.Items {
		out[it.ItemID] = it.Class
	}
	return out
}

type Metrics struct {
	SiteID              uuid.UUID       `json:"site_id"`
	Policy              string          `json:"policy"`
	WindowDays          int             `json:"window_days"`
	ItemCount           int             `json:"item_count"`
	ClassCounts         map[Class]int   `json:"class_counts"`
	FragmentedItems     int             `json:"fragmented_items"`
	MisplacedItems      int             `json:"misplaced_items"`
	AvgLocationsPerItem decimal.Decimal `json:"avg_locations_per_item"`
	StockLocations      int             `json:"stock_locations"`
	OccupiedLocations   int             `json:"occupied_locations"`
	LocationUtilization decimal.Decimal `json:"location_utilization"`
	GeneratedAt         time.Time       `json:"generated_at"`
}

type RecommendationType string

const (
	RecommendRelocate    RecommendationType = "RELOCATE"
	RecommendConsolidate RecommendationType = "CONSOLIDATE"
)

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// PriorityFor maps a velocity class to recommendation priority.
func PriorityFor(c Class) Priority {
	switch c {
	case ClassA:
		return PriorityHigh
	case ClassB:
		return PriorityMedium
	}
	return PriorityLow
}

type Recommendation struct {
	Type           RecommendationType `json:"type"`
	Priority       Priority           `json:"priority"`
	ItemID         uuid.UUID          `json:"item_id"`
	SKU            string             `json:"sku"`
	Class          Class              `json:"class"`
	FromLocationID uuid.UUID          `json:"from_location_id"`
	FromLabel      string             `json:"from_label"`
	ToLocationID   *uuid.UUID         `json:"to_location_id,omitempty"`
	ToLabel        string             `json:"to_label,omitempty"`
	Quantity       decimal.Decimal    `json:"quantity"`
	CurrentZone    string             `json:"current_zone"`
	TargetZone     string             `json:"target_zone"`
	Reason         string             `json:"reason"`
}

// VelocitySnapshot is cached per site for the putaway planner.
type VelocitySnapshot struct {
	SiteID      uuid.UUID        `json:"site_id"`
	Policy      string           `json:"policy"`
	Classes     map[string]Class `json:"classes"`
	GeneratedAt time.Time        `json:"generated_at"`
}
