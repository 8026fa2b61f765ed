// Package reconciliation compares system quantities with physical counts,
// prices the implied loss and, on apply, writes the corrections back to
// the batch store.
package reconciliation

import (
	"time"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/types"
)

// Mode tells what a line targets.
type Mode string

const (
	// ModeReception reconciles individual batches of one reception.
	ModeReception Mode = "reception"
	// ModeGlobal reconciles products aggregated over all open batches.
	ModeGlobal Mode = "global"
)

// BatchCount is a counted quantity for one batch.
type BatchCount struct {
	BatchID        id.ID
	ActualQuantity int64
}

// ProductCount is a counted quantity for one product across its open batches.
type ProductCount struct {
	ProductID      id.ID
	ActualQuantity int64
}

// Line is one row of a reconciliation result.
type Line struct {
	// BatchID is set in reception mode only.
	BatchID        *id.ID      `json:"batchId,omitempty"`
	ProductID      id.ID       `json:"productId"`
	SystemQuantity int64       `json:"systemQuantity"`
	ActualQuantity int64       `json:"actualQuantity"`
	Difference     int64       `json:"difference"`
	UnitPrice      types.Money `json:"unitPrice"`
	LossAmount     types.Money `json:"lossAmount"`
	// Assumed marks lines whose actual quantity was not supplied by the caller.
	Assumed bool `json:"assumed,omitempty"`
}

func newLine(productID id.ID, system, actual int64, price types.Money) Line {
	diff := actual - system
	return Line{
		ProductID:      productID,
		SystemQuantity: system,
		ActualQuantity: actual,
		Difference:     diff,
		UnitPrice:      price,
		LossAmount:     types.LossFor(diff, price),
	}
}

// Result is the outcome of a check, or of an apply once committed.
type Result struct {
	Mode        Mode        `json:"mode"`
	ReceptionID *id.ID      `json:"receptionId,omitempty"`
	Lines       []Line      `json:"lines"`
	TotalLoss   types.Money `json:"totalLoss"`
}

func newResult(mode Mode, receptionID *id.ID, lines []Line) *Result {
	total := types.Zero()
	for _, l := range lines {
		total = total.Add(l.LossAmount)
	}
	return &Result{Mode: mode, ReceptionID: receptionID, Lines: lines, TotalLoss: total}
}

// Changed reports whether any line differs from the system quantity.
func (r *Result) Changed() bool {
	for _, l := range r.Lines {
		if l.Difference != 0 {
			return true
		}
	}
	return false
}

// Session is the journal record of an applied reconciliation.
type Session struct {
	ID          id.ID       `json:"id"`
	Mode        Mode        `json:"mode"`
	ReceptionID *id.ID      `json:"receptionId,omitempty"`
	Lines       []Line      `json:"lines"`
	TotalLoss   types.Money `json:"totalLoss"`
	AppliedBy   *string     `json:"appliedBy,omitempty"`
	AppliedAt   time.Time   `json:"appliedAt"`
}
