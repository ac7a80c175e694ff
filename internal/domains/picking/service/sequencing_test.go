package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"inventory-engine/internal/domains/picking/model"
)

func pick(order, sku, zone, bin string) model.PickItem {
	return model.PickItem{OrderNumber: order, SKU: sku, Zone: zone, Bin: bin, LocationLabel: zone + "-" + bin}
}

func walk(items []model.PickItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.LocationLabel
	}
	return out
}

func sample() []model.PickItem {
	return []model.PickItem{
		pick("SO-3", "WIDGET", "C", "05"),
		pick("SO-1", "BOLT", "A", "03"),
		pick("SO-2", "CABLE", "B", "01"),
		pick("SO-1", "WIDGET", "C", "01"),
		pick("SO-3", "BOLT", "B", "02"),
		pick("SO-2", "ANCHOR", "A", "01"),
	}
}

func TestSequence(t *testing.T) {
	tests := []struct {
		name     string
		strategy model.Strategy
		want     []string
	}{
		{"serpentine reverses odd zones", model.StrategyWave, []string{"A-01", "A-03", "B-02", "B-01", "C-01", "C-05"}},
		{"empty strategy is serpentine", "", []string{"A-01", "A-03", "B-02", "B-01", "C-01", "C-05"}},
		{"zone then bin", model.StrategyZone, []string{"A-01", "A-03", "B-01", "B-02", "C-01", "C-05"}},
		{"sku then location", model.StrategyBatch, []string{"A-01", "A-03", "B-02", "B-01", "C-01", "C-05"}},
		{"location label", model.StrategyCluster, []string{"A-01", "A-03", "B-01", "B-02", "C-01", "C-05"}},
		{"order number keeps input order within an order", model.StrategyDiscrete, []string{"A-03", "C-01", "B-01", "A-01", "C-05", "B-02"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Sequence(sample(), tc.strategy)
			assert.Equal(t, tc.want, walk(got))
			for i, it := range got {
				assert.Equal(t, i+1, it.Sequence)
			}
		})
	}
}

func TestSequence_Empty(t *testing.T) {
	assert.Empty(t, Sequence(nil, model.StrategyWave))
}
