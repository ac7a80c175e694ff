package service

import (
	"github.com/shopspring/decimal"

	"inventory-engine/internal/domains/putaway/model"
)

// ScoringWeights parameterize the DIRECTED score:
//
//	Base + HoldsItem*[holds item] + ZoneMatch*[zone matches category]
//	     - QtyPenalty*currentQty - BinPenalty*binNumber
type ScoringWeights struct {
	Base       decimal.Decimal
	HoldsItem  decimal.Decimal
	ZoneMatch  decimal.Decimal
	QtyPenalty decimal.Decimal
	BinPenalty decimal.Decimal
}

func DefaultWeights() ScoringWeights {
	return ScoringWeights{
		Base:       decimal.NewFromInt(100),
		HoldsItem:  decimal.NewFromInt(50),
		ZoneMatch:  decimal.NewFromInt(30),
		QtyPenalty: decimal.RequireFromString("0.1"),
		BinPenalty: decimal.RequireFromString("0.5"),
	}
}

// Settings configure the planner.
type Settings struct {
	DefaultStrategy model.Strategy
	Weights         ScoringWeights

	// CategoryZones maps an item category to its preferred zone.
	CategoryZones map[string]string
	// DefaultZone is used by VELOCITY when neither velocity nor category decide.
	DefaultZone string
	// VelocityZones maps an ABC class to a zone.
	VelocityZones map[string]string
}

func DefaultSettings() Settings {
	return Settings{
		DefaultStrategy: model.StrategyDirected,
		Weights:         DefaultWeights(),
		CategoryZones:   map[string]string{},
		DefaultZone:     "C",
		VelocityZones:   map[string]string{"A": "A", "B": "B", "C": "C"},
	}
}
