package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogModel "inventory-engine/internal/domains/catalog/model"
	ledgerModel "inventory-engine/internal/domains/ledger/model"
	ledgerService "inventory-engine/internal/domains/ledger/service"
	"inventory-engine/internal/domains/slotting/model"
	"inventory-engine/internal/domains/slotting/service"
	"inventory-engine/internal/domains/uom"
	"inventory-engine/internal/storage"
	"inventory-engine/internal/storage/memory"
)

type counts map[uuid.UUID]int

func (c counts) CountMovements(context.Context, []uuid.UUID, time.Time) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out, nil
}

type env struct {
	router *gin.Engine
	site   uuid.UUID
	mover  uuid.UUID
}

// setup stocks ten items moving 100, 90 ... 10 times. SKU-04 (60 moves) sits
// in zone C: class A under the threshold policy, class B under percentile.
func setup(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cat := memory.NewCatalog()
	store := memory.NewStore(storage.DefaultOptions())
	e := &env{site: uuid.New()}
	var c01 uuid.UUID
	for _, zone := range []string{"A", "B", "C"} {
		loc := catalogModel.Location{ID: uuid.New(), SiteID: e.site, Label: zone + "-01", Zone: zone, Bin: "01", Type: catalogModel.LocationTypeStock}
		cat.AddLocation(loc)
		if zone == "C" {
			c01 = loc.ID
		}
	}

	moves := counts{}
	for i := 0; i < 10; i++ {
		it := catalogModel.Item{ID: uuid.New(), SKU: fmt.Sprintf("SKU-%02d", i), BaseUOM: "EA"}
		cat.AddItem(it)
		moves[it.ID] = 100 - i*10
		if i == 4 {
			e.mover = it.ID
		}
	}

	ledger := ledgerService.NewService(store, cat, uom.NewResolver(cat), nil)
	_, err := ledger.Apply(context.Background(), ledgerModel.Receive{
		Header:       ledgerModel.Header{ItemID: e.mover, Quantity: decimal.NewFromInt(12), ActorID: uuid.New()},
		ToLocationID: c01,
	})
	require.NoError(t, err)

	h := NewHandler(service.NewService(cat, store, moves, service.DefaultSettings()))
	r := gin.New()
	slotting := r.Group("/api/v1/sites/:site_id/slotting")
	slotting.GET("/metrics", h.Metrics)
	slotting.GET("/recommendations", h.Recommendations)
	slotting.GET("/abc", h.ABC)
	e.router = r
	return e
}

func (e *env) get(t *testing.T, path string, out interface{}) int {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

func (e *env) path(rest string) string {
	return "/api/v1/sites/" + e.site.String() + "/slotting" + rest
}

type envelope[T any] struct {
	Data  T          `json:"data"`
	Meta  *metaBody  `json:"meta"`
	Error *errorBody `json:"error"`
}

type metaBody struct {
	Count int `json:"count"`
}

type errorBody struct {
	Code string `json:"code"`
}

func TestABC_PolicyQuery(t *testing.T) {
	e := setup(t)

	var def envelope[model.ABCClassification]
	require.Equal(t, http.StatusOK, e.get(t, e.path("/abc"), &def))
	assert.Equal(t, service.PolicyThreshold, def.Data.Policy)
	assert.Equal(t, map[model.Class]int{model.ClassA: 5, model.ClassB: 3, model.ClassC: 2}, def.Data.ClassCounts)

	var pct envelope[model.ABCClassification]
	require.Equal(t, http.StatusOK, e.get(t, e.path("/abc?policy=percentile"), &pct))
	assert.Equal(t, service.PolicyPercentile, pct.Data.Policy)
	assert.Equal(t, map[model.Class]int{model.ClassA: 2, model.ClassB: 3, model.ClassC: 5}, pct.Data.ClassCounts)
	require.Len(t, pct.Data.Items, 10)
	assert.Equal(t, "SKU-00", pct.Data.Items[0].SKU)
}

func TestMetrics_PolicyQuery(t *testing.T) {
	e := setup(t)

	var got envelope[model.Metrics]
	require.Equal(t, http.StatusOK, e.get(t, e.path("/metrics?policy=percentile"), &got))
	assert.Equal(t, service.PolicyPercentile, got.Data.Policy)
	assert.Equal(t, 10, got.Data.ItemCount)
	assert.Equal(t, 3, got.Data.StockLocations)
	assert.Equal(t, 1, got.Data.OccupiedLocations)
}

func TestRecommendations_FollowPolicy(t *testing.T) {
	e := setup(t)

	var def envelope[[]model.Recommendation]
	require.Equal(t, http.StatusOK, e.get(t, e.path("/recommendations"), &def))
	require.Len(t, def.Data, 1)
	require.NotNil(t, def.Meta)
	assert.Equal(t, 1, def.Meta.Count)
	assert.Equal(t, e.mover, def.Data[0].ItemID)
	assert.Equal(t, model.RecommendRelocate, def.Data[0].Type)
	assert.Equal(t, "A", def.Data[0].TargetZone)

	var pct envelope[[]model.Recommendation]
	require.Equal(t, http.StatusOK, e.get(t, e.path("/recommendations?policy=percentile"), &pct))
	require.Len(t, pct.Data, 1)
	assert.Equal(t, model.ClassB, pct.Data[0].Class)
	assert.Equal(t, "B", pct.Data[0].TargetZone)
}

func TestSlottingHandlers_BadInput(t *testing.T) {
	e := setup(t)

	for _, path := range []string{
		e.path("/abc?policy=pareto"),
		e.path("/metrics?policy=PERCENTILE"),
		e.path("/recommendations?policy=pareto"),
		"/api/v1/sites/not-a-uuid/slotting/abc",
		"/api/v1/sites/" + uuid.Nil.String() + "/slotting/metrics",
	} {
		var body envelope[map[string]interface{}]
		assert.Equal(t, http.StatusBadRequest, e.get(t, path, &body), path)
		require.NotNil(t, body.Error, path)
		assert.Equal(t, "INVALID_INPUT", body.Error.Code, path)
	}
}
