package reconciliation

import (
	"slices"
	"time"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/types"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/batch"
)

// Aggregate is the global view of one product over a snapshot of open batches.
// It is derived on every read and never stored.
type Aggregate struct {
	ProductID      id.ID       `json:"productId"`
	TotalRemaining int64       `json:"totalRemaining"`
	TotalValue     types.Money `json:"totalValue"`
	AvgPrice       types.Money `json:"avgPrice"`
	BatchCount     int         `json:"batchCount"`
	// NearestDaysLeft is the smallest days_left among batches still holding stock.
	NearestDaysLeft *int `json:"nearestDaysLeft,omitempty"`
}

// Project aggregates batches of a single product.
// avg price is weighted by remaining quantity.
func Project(productID id.ID, batches []batch.Batch, today time.Time) Aggregate {
	agg := Aggregate{ProductID: productID, TotalValue: types.Zero(), AvgPrice: types.Zero()}
	value := types.Zero()
	for i := range batches {
		b := &batches[i]
		agg.BatchCount++
		agg.TotalRemaining += b.RemainingQuantity
		value = value.Add(b.PricePerUnit.Mul(types.MoneyFromInt(b.RemainingQuantity)))

		if b.RemainingQuantity == 0 {
			continue
		}
		if left := b.DaysLeft(today); left != nil {
			if agg.NearestDaysLeft == nil || *left < *agg.NearestDaysLeft {
				agg.NearestDaysLeft = left
			}
		}
	}
	agg.TotalValue = types.RoundMoney(value)
	agg.AvgPrice = types.WeightedAverage(value, agg.TotalRemaining)
	return agg
}

// ProjectAll groups a snapshot by product and aggregates each group.
// Aggregates are ordered by product id.
func ProjectAll(batches []batch.Batch, today time.Time) []Aggregate {
	groups := make(map[id.ID][]batch.Batch)
	var order []id.ID
	for _, b := range batches {
		if _, seen := groups[b.ProductID]; !seen {
			order = append(order, b.ProductID)
		}
		groups[b.ProductID] = append(groups[b.ProductID], b)
	}

	out := make([]Aggregate, 0, len(order))
	for _, productID := range order {
		out = append(out, Project(productID, groups[productID], today))
	}
	slices.SortStableFunc(out, func(a, b Aggregate) int { return id.Compare(a.ProductID, b.ProductID) })
	return out
}
