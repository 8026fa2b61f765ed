// Package writeoff is the ledger of manual, reasoned stock reductions
// (spoilage, damage) recorded independently of sales and reconciliation.
package writeoff

import (
	"time"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/types"
)

// Reason is why stock was written off.
type Reason string

const (
	ReasonWilted Reason = "wilted"
	ReasonBroken Reason = "broken"
	ReasonDefect Reason = "defect"
	ReasonOther  Reason = "other"
)

// Reasons lists accepted reasons.
var Reasons = []Reason{ReasonWilted, ReasonBroken, ReasonDefect, ReasonOther}

// IsValid reports whether r is an accepted reason.
func (r Reason) IsValid() bool {
	switch r {
	case ReasonWilted, ReasonBroken, ReasonDefect, ReasonOther:
		return true
	}
	return false
}

// WriteOff is immutable once created.
// Its loss is not stored: it is always Quantity × the batch unit price.
type WriteOff struct {
	ID          id.ID     `db:"id" json:"id"`
	BatchID     id.ID     `db:"batch_id" json:"batchId"`
	ReceptionID id.ID     `db:"reception_id" json:"receptionId"`
	ProductID   id.ID     `db:"product_id" json:"productId"`
	Quantity    int64     `db:"quantity" json:"quantity"`
	Reason      Reason    `db:"reason" json:"reason"`
	Comment     *string   `db:"comment" json:"comment,omitempty"`
	CreatedBy   *string   `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Loss prices the written-off quantity.
func (w *WriteOff) Loss(pricePerUnit types.Money) types.Money {
	return types.Amount(w.Quantity, pricePerUnit)
}

// Entry is a write-off read together with the price of its batch.
type Entry struct {
	WriteOff
	PricePerUnit types.Money `db:"price_per_unit" json:"pricePerUnit"`
}

// LossAmount is the loss of the entry at its batch price.
func (e *Entry) LossAmount() types.Money {
	return e.Loss(e.PricePerUnit)
}

// Result is returned by a successful write-off.
type Result struct {
	WriteOff       WriteOff
	PricePerUnit   types.Money
	LossAmount     types.Money
	RemainingAfter int64
}
