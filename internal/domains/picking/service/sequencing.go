package service

import (
	"sort"

	"inventory-engine/internal/domains/picking/model"
)

// Sequence orders items for walking and numbers them from 1. The input slice
// is reordered in place.
func Sequence(items []model.PickItem, strategy model.Strategy) []model.PickItem {
	switch strategy {
	case model.StrategyZone:
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i], items[j]
			if a.Zone != b.Zone {
				return a.Zone < b.Zone
			}
			if a.Bin != b.Bin {
				return a.Bin < b.Bin
			}
			return a.LocationLabel < b.LocationLabel
		})
	case model.StrategyBatch:
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].SKU != items[j].SKU {
				return items[i].SKU < items[j].SKU
			}
			return items[i].LocationLabel < items[j].LocationLabel
		})
	case model.StrategyCluster:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].LocationLabel < items[j].LocationLabel
		})
	case model.StrategyDiscrete:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].OrderNumber < items[j].OrderNumber
		})
	default:
		serpentine(items)
	}

	for i := range items {
		items[i].Sequence = i + 1
	}
	return items
}

// serpentine walks zones in order, ascending bins in even-indexed zones and
// descending bins in odd-indexed ones.
func serpentine(items []model.PickItem) {
	zones := make(map[string]int)
	for _, it := range items {
		zones[it.Zone] = 0
	}
	names := make([]string, 0, len(zones))
	for z := range zones {
		names = append(names, z)
	}
	sort.Strings(names)
	for i, z := range names {
		zones[z] = i
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Zone != b.Zone {
			return zones[a.Zone] < zones[b.Zone]
		}
		if a.Bin != b.Bin {
			if zones[a.Zone]%2 == 1 {
				return a.Bin > b.Bin
			}
			return a.Bin < b.Bin
		}
		return a.LocationLabel < b.LocationLabel
	})
}
