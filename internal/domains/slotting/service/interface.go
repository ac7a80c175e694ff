package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"inventory-engine/internal/domains/slotting/model"
)

// ServiceInterface is the Slotting Analyzer. policy selects the ABC cutoff
// rule by name; empty means the configured default.
type ServiceInterface interface {
	PerformABCAnalysis(ctx context.Context, siteID uuid.UUID, policy string) (*model.ABCClassification, error)
	AnalyzeSlotting(ctx context.Context, siteID uuid.UUID, policy string) (*model.Metrics, error)
	RecommendSlotting(ctx context.Context, siteID uuid.UUID, policy string) ([]model.Recommendation, error)
}

// MovementSource counts observed movements per item that touched any of the
// given locations since a point in time.
type MovementSource interface {
	CountMovements(ctx context.Context, locationIDs []uuid.UUID, since time.Time) (map[uuid.UUID]int, error)
}
