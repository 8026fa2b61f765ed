package dto

import (
	"time"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/writeoff"
)

type WriteOffRequest struct {
	Quantity int64   `json:"quantity" binding:"required,min=1"`
	Reason   string  `json:"reason" binding:"required,writeoff_reason"`
	Comment  *string `json:"comment,omitempty" binding:"omitempty,max=500"`
}

type WriteOffResponse struct {
	ID           string    `json:"id"`
	BatchID      string    `json:"batchId"`
	ReceptionID  string    `json:"receptionId"`
	ProductID    string    `json:"productId"`
	Quantity     int64     `json:"quantity"`
	Reason       string    `json:"reason"`
	Comment      *string   `json:"comment,omitempty"`
	PricePerUnit string    `json:"pricePerUnit"`
	LossAmount   string    `json:"lossAmount"`
	CreatedBy    *string   `json:"createdBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// WriteOffResultResponse adds the batch state after the write-off.
type WriteOffResultResponse struct {
	WriteOffResponse
	RemainingAfter int64 `json:"remainingAfter"`
}

func FromWriteOffResult(r *writeoff.Result) WriteOffResultResponse {
	entry := writeoff.Entry{WriteOff: r.WriteOff, PricePerUnit: r.PricePerUnit}
	return WriteOffResultResponse{
		WriteOffResponse: FromWriteOffEntry(&entry),
		RemainingAfter:   r.RemainingAfter,
	}
}

func FromWriteOffEntry(e *writeoff.Entry) WriteOffResponse {
	return WriteOffResponse{
		ID:           e.ID.String(),
		BatchID:      e.BatchID.String(),
		ReceptionID:  e.ReceptionID.String(),
		ProductID:    e.ProductID.String(),
		Quantity:     e.Quantity,
		Reason:       string(e.Reason),
		Comment:      e.Comment,
		PricePerUnit: Price(e.PricePerUnit),
		LossAmount:   Amount(e.LossAmount()),
		CreatedBy:    e.CreatedBy,
		CreatedAt:    e.CreatedAt,
	}
}

func FromWriteOffEntries(items []writeoff.Entry) []WriteOffResponse {
	out := make([]WriteOffResponse, len(items))
	for i := range items {
		out[i] = FromWriteOffEntry(&items[i])
	}
	return out
}

// WriteOffListResponse carries the total loss of the listed write-offs.
type WriteOffListResponse struct {
	Items     []WriteOffResponse `json:"items"`
	Count     int                `json:"count"`
	TotalLoss string             `json:"totalLoss"`
}
