package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"inventory-engine/internal/domains/slotting/model"
	"inventory-engine/internal/shared"
	"inventory-engine/internal/shared/apperr"
)

type mockAnalyzer struct{ mock.Mock }

func (m *mockAnalyzer) PerformABCAnalysis(ctx context.Context, siteID uuid.UUID, policy string) (*model.ABCClassification, error) {
	args := m.Called(ctx, siteID, policy)
	abc, _ := args.Get(0).(*model.ABCClassification)
	return abc, args.Error(1)
}

type mockSnapshots struct{ mock.Mock }

func (m *mockSnapshots) Store(ctx context.Context, abc *model.ABCClassification) error {
	return m.Called(ctx, abc).Error(0)
}

type mockEnqueuer struct{ mock.Mock }

func (m *mockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, opts)
	info, _ := args.Get(0).(*asynq.TaskInfo)
	return info, args.Error(1)
}

func analyzeTask(t *testing.T, site, policy string) *asynq.Task {
	t.Helper()
	b, err := json.Marshal(shared.SlottingAnalysisPayload{SiteID: site, Policy: policy})
	require.NoError(t, err)
	return asynq.NewTask(shared.TypeAnalyzeSlotting, b)
}

func TestAnalyzeSiteHandler_CachesSnapshot(t *testing.T) {
	site := uuid.New()
	abc := &model.ABCClassification{SiteID: site, Policy: "percentile"}

	analyzer := &mockAnalyzer{}
	analyzer.On("PerformABCAnalysis", mock.Anything, site, "percentile").Return(abc, nil).Once()
	snaps := &mockSnapshots{}
	snaps.On("Store", mock.Anything, abc).Return(nil).Once()

	h := NewAnalyzeSiteHandler(analyzer, snaps)
	require.NoError(t, h.ProcessTask(context.Background(), analyzeTask(t, site.String(), "percentile")))
	analyzer.AssertExpectations(t)
	snaps.AssertExpectations(t)
}

func TestAnalyzeSiteHandler_Errors(t *testing.T) {
	site := uuid.New()
	analyzer := &mockAnalyzer{}
	snaps := &mockSnapshots{}
	h := NewAnalyzeSiteHandler(analyzer, snaps)

	err := h.ProcessTask(context.Background(), analyzeTask(t, "bad", ""))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	analyzer.On("PerformABCAnalysis", mock.Anything, site, "pareto").
		Return(nil, apperr.Invalid("unknown ABC policy", nil)).Once()
	err = h.ProcessTask(context.Background(), analyzeTask(t, site.String(), "pareto"))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	boom := errors.New("db down")
	analyzer.On("PerformABCAnalysis", mock.Anything, site, "").Return(nil, boom).Once()
	err = h.ProcessTask(context.Background(), analyzeTask(t, site.String(), ""))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
	snaps.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
}

func TestAnalyzeAllSitesHandler_FansOut(t *testing.T) {
	sites := []uuid.UUID{uuid.New(), uuid.New()}
	enq := &mockEnqueuer{}
	for _, s := range sites {
		site := s.String()
		enq.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
			var p shared.SlottingAnalysisPayload
			return task.Type() == shared.TypeAnalyzeSlotting &&
				json.Unmarshal(task.Payload(), &p) == nil && p.SiteID == site && p.Policy == "threshold"
		}), mock.Anything).Return(&asynq.TaskInfo{}, nil).Once()
	}

	payload, _ := json.Marshal(shared.SlottingAnalysisPayload{Policy: "threshold"})
	h := NewAnalyzeAllSitesHandler(sites, enq)
	require.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeAnalyzeAllSites, payload)))
	enq.AssertExpectations(t)
}

func TestAnalyzeAllSitesHandler_ReportsFailures(t *testing.T) {
	enq := &mockEnqueuer{}
	enq.On("EnqueueContext", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("redis down"))

	h := NewAnalyzeAllSitesHandler([]uuid.UUID{uuid.New()}, enq)
	err := h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeAnalyzeAllSites, nil))
	assert.ErrorContains(t, err, "1 of 1 sites failed")
}
