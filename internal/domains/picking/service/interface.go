package service

import (
	"context"

	"github.com/google/uuid"

	"inventory-engine/internal/domains/picking/model"
)

// ServiceInterface is the Picking Planner.
type ServiceInterface interface {
	// CreateWave greedily admits eligible orders oldest-first. An order that
	// would breach any limit is skipped, never partially admitted.
	CreateWave(ctx context.Context, siteID, actorID uuid.UUID, cfg model.WaveConfig) (*model.WaveResult, error)

	// GeneratePickList allocates supply FIFO and sequences the result.
	// Uncovered quantity is reported as shortages, not as an error.
	GeneratePickList(ctx context.Context, siteID uuid.UUID, req model.GeneratePickListRequest) (*model.PickList, error)

	CreatePickTask(ctx context.Context, siteID uuid.UUID, req model.CreatePickTaskRequest) (*model.PickTask, error)

	// ConfirmPick records a pick and posts the ISSUE in the same unit of work.
	// Picking less than planned marks the line SHORT with a warning.
	ConfirmPick(ctx context.Context, lineID, actorID uuid.UUID, req model.ConfirmPickRequest) (*model.ConfirmResult, error)

	GetPickTask(ctx context.Context, id uuid.UUID) (*model.PickTask, error)
}
