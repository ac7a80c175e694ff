package service

import (
	"sort"

	"github.com/shopspring/decimal"

	"inventory-engine/internal/domains/slotting/model"
)

const (
	PolicyThreshold  = "threshold"
	PolicyPercentile = "percentile"
)

// Policy assigns an ABC class to every item.
type Policy interface {
	Name() string
	// Classify sets Class on items sorted by movements, fastest first.
	Classify(items []model.ItemVelocity)
}

// ThresholdPolicy: A above A movements, B above B, C otherwise.
type ThresholdPolicy struct {
	A int
	B int
}

func (ThresholdPolicy) Name() string { return PolicyThreshold }

func (p ThresholdPolicy) Classify(items []model.ItemVelocity) {
	for i := range items {
		switch {
		case items[i].Movements > p.A:
			items[i].Class = model.ClassA
		case items[i].Movements > p.B:
			items[i].Class = model.ClassB
		default:
			items[i].Class = model.ClassC
		}
	}
}

// PercentilePolicy: the top A share of items is A, the next B share is B.
// Counts round up, so 10 items at 0.20/0.30 split 2/3/5.
type PercentilePolicy struct {
	A decimal.Decimal
	B decimal.Decimal
}

func (PercentilePolicy) Name() string { return PolicyPercentile }

func (p PercentilePolicy) Classify(items []model.ItemVelocity) {
	n := decimal.NewFromInt(int64(len(items)))
	aCount := int(n.Mul(p.A).Ceil().IntPart())
	bCount := int(n.Mul(p.A.Add(p.B)).Ceil().IntPart()) - aCount

	for i := range items {
		switch {
		case i < aCount:
			items[i].Class = model.ClassA
		case i < aCount+bCount:
			items[i].Class = model.ClassB
		default:
			items[i].Class = model.ClassC
		}
	}
}

// sortByVelocity orders fastest first, ties by SKU.
func sortByVelocity(items []model.ItemVelocity) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Movements != items[j].Movements {
			return items[i].Movements > items[j].Movements
		}
		return items[i].SKU < items[j].SKU
	})
}
