package dto

import (
	"time"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/types"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/batch"
)

// --- Request DTOs ---

type CreateItemsRequest struct {
	Items []CreateItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateItemRequest receives one batch. Product is a product id or an exact product name.
type CreateItemRequest struct {
	Product       string  `json:"product" binding:"required"`
	Quantity      int64   `json:"quantity" binding:"required,min=1"`
	PricePerUnit  string  `json:"pricePerUnit" binding:"required,nonnegative_decimal"`
	ShelfLifeDays *int    `json:"shelfLifeDays,omitempty" binding:"omitempty,min=1"`
	ArrivalDate   *string `json:"arrivalDate,omitempty"`
}

// ProductResolver maps a product reference to its id.
type ProductResolver func(ref string) (id.ID, error)

func (r *CreateItemsRequest) ToInputs(resolve ProductResolver) ([]batch.CreateInput, error) {
	inputs := make([]batch.CreateInput, len(r.Items))
	for i, item := range r.Items {
		in, err := item.toInput(resolve)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return nil, appErr.WithDetail("line", i)
			}
			return nil, err
		}
		inputs[i] = in
	}
	return inputs, nil
}

func (r *CreateItemRequest) toInput(resolve ProductResolver) (batch.CreateInput, error) {
	productID, err := resolve(r.Product)
	if err != nil {
		return batch.CreateInput{}, err
	}
	price, err := ParseMoney("pricePerUnit", r.PricePerUnit)
	if err != nil {
		return batch.CreateInput{}, err
	}
	arrival, err := ParseDate("arrivalDate", r.ArrivalDate)
	if err != nil {
		return batch.CreateInput{}, err
	}
	return batch.CreateInput{
		ProductID:       productID,
		QuantityInitial: r.Quantity,
		PricePerUnit:    price,
		ShelfLifeDays:   r.ShelfLifeDays,
		ArrivalDate:     arrival,
	}, nil
}

type SaleRequest struct {
	Quantity  int64   `json:"quantity" binding:"required,min=1"`
	UnitPrice string  `json:"unitPrice" binding:"required,nonnegative_decimal"`
	OrderRef  *string `json:"orderRef,omitempty" binding:"omitempty,max=200"`
}

// --- Response DTOs ---

type BatchResponse struct {
	ID                 string  `json:"id"`
	ReceptionID        string  `json:"receptionId"`
	ProductID          string  `json:"productId"`
	ProductName        string  `json:"productName,omitempty"`
	QuantityInitial    int64   `json:"quantityInitial"`
	RemainingQuantity  int64   `json:"remainingQuantity"`
	PricePerUnit       string  `json:"pricePerUnit"`
	RemainingValue     string  `json:"remainingValue"`
	ArrivalDate        *string `json:"arrivalDate,omitempty"`
	ShelfLifeDays      int     `json:"shelfLifeDays"`
	DaysLeft           *int    `json:"daysLeft"`
	SoldQuantity       int64   `json:"soldQuantity"`
	SoldAmount         string  `json:"soldAmount"`
	WrittenOffQuantity int64   `json:"writtenOffQuantity"`
}

func FromBatch(b *batch.Batch, today time.Time) BatchResponse {
	return BatchResponse{
		ID:                b.ID.String(),
		ReceptionID:       b.ReceptionID.String(),
		ProductID:         b.ProductID.String(),
		QuantityInitial:   b.QuantityInitial,
		RemainingQuantity: b.RemainingQuantity,
		PricePerUnit:      Price(b.PricePerUnit),
		RemainingValue:    Amount(b.RemainingValue()),
		ArrivalDate:       types.FormatDate(b.ArrivalDate),
		ShelfLifeDays:     b.ShelfLifeDays,
		DaysLeft:          b.DaysLeft(today),
		SoldQuantity:      b.SoldQuantity,
		SoldAmount:        Amount(b.SoldAmount),
	}
}

func FromBatches(items []batch.Batch, today time.Time) []BatchResponse {
	out := make([]BatchResponse, len(items))
	for i := range items {
		out[i] = FromBatch(&items[i], today)
	}
	return out
}

// ReceptionInventoryResponse is the stock view of one reception.
type ReceptionInventoryResponse struct {
	Reception       ReceptionResponse `json:"reception"`
	Items           []BatchResponse   `json:"items"`
	TotalRemaining  int64             `json:"totalRemaining"`
	TotalValue      string            `json:"totalValue"`
	TotalWrittenOff int64             `json:"totalWrittenOff"`
}

type ChangeResponse struct {
	ID             string    `json:"id"`
	Cause          string    `json:"cause"`
	QuantityBefore int64     `json:"quantityBefore"`
	QuantityAfter  int64     `json:"quantityAfter"`
	Delta          int64     `json:"delta"`
	ReferenceID    *string   `json:"referenceId,omitempty"`
	Note           *string   `json:"note,omitempty"`
	PerformedBy    *string   `json:"performedBy,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func FromChanges(items []batch.Change) []ChangeResponse {
	out := make([]ChangeResponse, len(items))
	for i, c := range items {
		out[i] = ChangeResponse{
			ID:             c.ID.String(),
			Cause:          string(c.Cause),
			QuantityBefore: c.QuantityBefore,
			QuantityAfter:  c.QuantityAfter,
			Delta:          c.Delta(),
			ReferenceID:    IDString(c.ReferenceID),
			Note:           c.Note,
			PerformedBy:    c.PerformedBy,
			CreatedAt:      c.CreatedAt,
		}
	}
	return out
}
