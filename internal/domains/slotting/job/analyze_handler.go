package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"inventory-engine/internal/domains/slotting/model"
	"inventory-engine/internal/shared"
	"inventory-engine/internal/shared/apperr"
	"inventory-engine/pkg/logger"
)

// Analyzer is the part of the slotting service the job runs.
type Analyzer interface {
	PerformABCAnalysis(ctx context.Context, siteID uuid.UUID, policy string) (*model.ABCClassification, error)
}

// SnapshotStore caches a site's velocity classes.
type SnapshotStore interface {
	Store(ctx context.Context, abc *model.ABCClassification) error
}

// AnalyzeSiteHandler classifies one site and caches the result for putaway.
type AnalyzeSiteHandler struct {
	analyzer  Analyzer
	snapshots SnapshotStore
}

func NewAnalyzeSiteHandler(analyzer Analyzer, snapshots SnapshotStore) *AnalyzeSiteHandler {
	return &AnalyzeSiteHandler{analyzer: analyzer, snapshots: snapshots}
}

// ProcessTask handles shared.TypeAnalyzeSlotting
func (h *AnalyzeSiteHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.SlottingAnalysisPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Error("SlottingAnalysis: failed to unmarshal payload", err)
		return fmt.Errorf("unmarshal slotting payload: %w: %w", err, asynq.SkipRetry)
	}
	siteID, err := uuid.Parse(payload.SiteID)
	if err != nil {
		logger.Error("SlottingAnalysis: invalid site_id", err)
		return fmt.Errorf("slotting site_id %q: %w", payload.SiteID, asynq.SkipRetry)
	}

	start := time.Now()
	abc, err := h.analyzer.PerformABCAnalysis(ctx, siteID, payload.Policy)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidInput) {
			return fmt.Errorf("slotting analysis: %w: %w", err, asynq.SkipRetry)
		}
		logger.Error("SlottingAnalysis: analysis failed", err)
		return err
	}

	if err := h.snapshots.Store(ctx, abc); err != nil {
		logger.Error("SlottingAnalysis: failed to cache snapshot", err)
		return err
	}

	logger.Info("✅ SlottingAnalysis: snapshot cached", map[string]interface{}{
		"site_id":  siteID,
		"policy":   abc.Policy,
		"items":    len(abc.Items),
		"duration": time.Since(start).String(),
	})
	return nil
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AnalyzeAllSitesHandler fans the nightly run out to one task per site.
type AnalyzeAllSitesHandler struct {
	sites  []uuid.UUID
	client Enqueuer
}

func NewAnalyzeAllSitesHandler(sites []uuid.UUID, client Enqueuer) *AnalyzeAllSitesHandler {
	return &AnalyzeAllSitesHandler{sites: sites, client: client}
}

// ProcessTask handles shared.TypeAnalyzeAllSites. The payload policy, if
// any, is passed through to every site.
func (h *AnalyzeAllSitesHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var in shared.SlottingAnalysisPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &in); err != nil {
			return fmt.Errorf("unmarshal slotting fan-out payload: %w: %w", err, asynq.SkipRetry)
		}
	}

	var failed int
	for _, site := range h.sites {
		payload, err := json.Marshal(shared.SlottingAnalysisPayload{SiteID: site.String(), Policy: in.Policy})
		if err != nil {
			return err
		}
		_, err = h.client.EnqueueContext(ctx, asynq.NewTask(shared.TypeAnalyzeSlotting, payload),
			asynq.Queue(shared.QueueLow),
			asynq.MaxRetry(3),
			asynq.Timeout(10*time.Minute),
		)
		if err != nil {
			failed++
			logger.ErrorWithFields("SlottingAnalysis: enqueue failed", err, map[string]interface{}{"site_id": site})
		}
	}

	if failed > 0 {
		return fmt.Errorf("enqueue slotting analysis: %d of %d sites failed", failed, len(h.sites))
	}
	logger.Info("SlottingAnalysis: sites enqueued", map[string]interface{}{"count": len(h.sites)})
	return nil
}
