package service

import (
	"context"

	"github.com/google/uuid"

	ledgerModel "inventory-engine/internal/domains/ledger/model"
	"inventory-engine/internal/domains/putaway/model"
)

// ServiceInterface plans and executes putaway.
type ServiceInterface interface {
	// Suggest ranks storage locations of the site for the incoming quantity.
	// Returns ErrNoCandidateLocation when the strategy finds nothing.
	Suggest(ctx context.Context, req model.SuggestRequest) (*model.Suggestion, error)

	// Execute posts the MOVE from the receiving location to the destination.
	Execute(ctx context.Context, actorID uuid.UUID, req model.ExecuteRequest) (*ledgerModel.Entry, error)
}

// VelocitySource reports the cached ABC class of an item at a site.
// ok is false when no analysis has been cached yet.
type VelocitySource interface {
	VelocityClass(ctx context.Context, siteID, itemID uuid.UUID) (class string, ok bool, err error)
}
