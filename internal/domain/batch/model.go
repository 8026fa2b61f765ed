// Package batch is the stock batch store: priced, dated lots of a product
// received together ("reception items") and the history of every change
// to their remaining quantity.
package batch

import (
	"time"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/types"
)

// Batch is one lot of a product inside a reception.
//
// Invariant: 0 <= RemainingQuantity <= QuantityInitial.
type Batch struct {
	ID                id.ID       `db:"id" json:"id"`
	ReceptionID       id.ID       `db:"reception_id" json:"receptionId"`
	ProductID         id.ID       `db:"product_id" json:"productId"`
	QuantityInitial   int64       `db:"quantity_initial" json:"quantityInitial"`
	RemainingQuantity int64       `db:"remaining_quantity" json:"remainingQuantity"`
	PricePerUnit      types.Money `db:"price_per_unit" json:"pricePerUnit"`
	ArrivalDate       *time.Time  `db:"arrival_date" json:"arrivalDate,omitempty"`
	ShelfLifeDays     int         `db:"shelf_life_days" json:"shelfLifeDays"`
	SoldQuantity      int64       `db:"sold_quantity" json:"soldQuantity"`
	SoldAmount        types.Money `db:"sold_amount" json:"soldAmount"`
	CreatedAt         time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time   `db:"updated_at" json:"updatedAt"`
}

// DaysLeft returns shelf life minus days since arrival, nil when arrival is unknown.
// The value goes negative once the batch is past its shelf life.
func (b *Batch) DaysLeft(today time.Time) *int {
	if b.ArrivalDate == nil {
		return nil
	}
	left := b.ShelfLifeDays - types.DaysBetween(*b.ArrivalDate, today)
	return &left
}

// RemainingValue is remaining quantity priced at the batch unit price.
func (b *Batch) RemainingValue() types.Money {
	return types.Amount(b.RemainingQuantity, b.PricePerUnit)
}

// CheckRemaining verifies that v is a storable remaining quantity for b.
func (b *Batch) CheckRemaining(v int64) error {
	if v < 0 {
		return apperror.NewInvariantViolation("remaining quantity cannot be negative").
			WithDetail("batch_id", b.ID).
			WithDetail("remaining_quantity", v)
	}
	if v > b.QuantityInitial {
		return apperror.NewInvariantViolation("remaining quantity cannot exceed initial quantity").
			WithDetail("batch_id", b.ID).
			WithDetail("remaining_quantity", v).
			WithDetail("quantity_initial", b.QuantityInitial)
	}
	return nil
}

// effectiveArrival is the arrival date, or the creation day when unknown.
func (b *Batch) effectiveArrival() time.Time {
	if b.ArrivalDate != nil {
		return types.DateOf(*b.ArrivalDate)
	}
	return types.DateOf(b.CreatedAt)
}

// CompareArrival orders batches oldest first: arrival date, then creation
// time, then id (UUIDv7, so creation order again).
func CompareArrival(a, b *Batch) int {
	if c := a.effectiveArrival().Compare(b.effectiveArrival()); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return id.Compare(a.ID, b.ID)
}

// TotalRemaining sums remaining quantity over batches.
func TotalRemaining(batches []Batch) int64 {
	var total int64
	for i := range batches {
		total += batches[i].RemainingQuantity
	}
	return total
}

// Cause tags why a batch's remaining quantity changed.
type Cause string

const (
	CauseSale           Cause = "sale"
	CauseWriteOff       Cause = "write_off"
	CauseReconciliation Cause = "reconciliation"
)

// IsValid reports whether c is a known cause.
func (c Cause) IsValid() bool {
	switch c {
	case CauseSale, CauseWriteOff, CauseReconciliation:
		return true
	}
	return false
}

// decreaseOnly reports whether the cause may only lower remaining quantity.
func (c Cause) decreaseOnly() bool {
	return c == CauseSale || c == CauseWriteOff
}

// Reason describes a remaining-quantity change request.
type Reason struct {
	Cause Cause
	// ReferenceID links the write-off, reconciliation session or order that caused the change.
	ReferenceID *id.ID
	Note        *string
}

// Change is one entry of a batch's change history.
type Change struct {
	ID             id.ID     `db:"id" json:"id"`
	BatchID        id.ID     `db:"batch_id" json:"batchId"`
	ProductID      id.ID     `db:"product_id" json:"productId"`
	ReceptionID    id.ID     `db:"reception_id" json:"receptionId"`
	Cause          Cause     `db:"cause" json:"cause"`
	QuantityBefore int64     `db:"quantity_before" json:"quantityBefore"`
	QuantityAfter  int64     `db:"quantity_after" json:"quantityAfter"`
	ReferenceID    *id.ID    `db:"reference_id" json:"referenceId,omitempty"`
	Note           *string   `db:"note" json:"note,omitempty"`
	PerformedBy    *string   `db:"performed_by" json:"performedBy,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// Delta is the signed quantity change.
func (c Change) Delta() int64 {
	return c.QuantityAfter - c.QuantityBefore
}

// CreateInput describes a batch to be received.
type CreateInput struct {
	ReceptionID     id.ID
	ProductID       id.ID
	QuantityInitial int64
	ArrivalDate     *time.Time
	// ShelfLifeDays falls back to the product default when nil.
	ShelfLifeDays *int
	PricePerUnit  types.Money
}

func (in CreateInput) validate() error {
	if in.QuantityInitial < 1 {
		return apperror.NewValidation("quantity_initial must be at least 1").
			WithDetail("quantity_initial", in.QuantityInitial)
	}
	if in.ShelfLifeDays != nil && *in.ShelfLifeDays < 1 {
		return apperror.NewValidation("shelf_life_days must be at least 1").
			WithDetail("shelf_life_days", *in.ShelfLifeDays)
	}
	return validatePrice("price_per_unit", in.PricePerUnit)
}

func validatePrice(field string, price types.Money) error {
	if price.IsNegative() {
		return apperror.NewValidation(field+" cannot be negative").
			WithDetail(field, price.String())
	}
	if !types.PriceFits(price) {
		return apperror.NewValidation(field+" must be below 10000000000 with at most 4 decimals").
			WithDetail(field, price.String())
	}
	return nil
}
