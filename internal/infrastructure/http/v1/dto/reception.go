package dto

import (
	"time"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/types"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/reception"
)

// --- Request DTOs ---

type CreateReceptionRequest struct {
	Name          string  `json:"name" binding:"required,max=200"`
	ReceptionDate *string `json:"receptionDate,omitempty"`
	Supplier      *string `json:"supplier,omitempty"`
	InvoiceRef    *string `json:"invoiceRef,omitempty"`
}

func (r *CreateReceptionRequest) ToDetails() (reception.Details, error) {
	date, err := ParseDate("receptionDate", r.ReceptionDate)
	if err != nil {
		return reception.Details{}, err
	}
	return reception.Details{
		Name:          r.Name,
		ReceptionDate: date,
		Supplier:      r.Supplier,
		InvoiceRef:    r.InvoiceRef,
	}, nil
}

// UpdateReceptionRequest is a partial update: absent fields keep their value.
// An empty receptionDate clears the date.
type UpdateReceptionRequest struct {
	Name          *string `json:"name,omitempty" binding:"omitempty,max=200"`
	ReceptionDate *string `json:"receptionDate,omitempty"`
	Supplier      *string `json:"supplier,omitempty"`
	InvoiceRef    *string `json:"invoiceRef,omitempty"`
}

func (r *UpdateReceptionRequest) ApplyTo(current *reception.Reception) (reception.Details, error) {
	d := reception.Details{
		Name:          current.Name,
		ReceptionDate: current.ReceptionDate,
		Supplier:      current.Supplier,
		InvoiceRef:    current.InvoiceRef,
	}
	if r.Name != nil {
		d.Name = *r.Name
	}
	if r.ReceptionDate != nil {
		date, err := ParseDate("receptionDate", r.ReceptionDate)
		if err != nil {
			return d, err
		}
		d.ReceptionDate = date
	}
	if r.Supplier != nil {
		d.Supplier = r.Supplier
	}
	if r.InvoiceRef != nil {
		d.InvoiceRef = r.InvoiceRef
	}
	return d, nil
}

// --- Response DTOs ---

type ReceptionResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	ReceptionDate *string    `json:"receptionDate,omitempty"`
	Supplier      *string    `json:"supplier,omitempty"`
	InvoiceRef    *string    `json:"invoiceRef,omitempty"`
	IsClosed      bool       `json:"isClosed"`
	ClosedAt      *time.Time `json:"closedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func FromReception(r *reception.Reception) ReceptionResponse {
	return ReceptionResponse{
		ID:            r.ID.String(),
		Name:          r.Name,
		ReceptionDate: types.FormatDate(r.ReceptionDate),
		Supplier:      r.Supplier,
		InvoiceRef:    r.InvoiceRef,
		IsClosed:      r.IsClosed,
		ClosedAt:      r.ClosedAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func FromReceptions(items []reception.Reception) []ReceptionResponse {
	out := make([]ReceptionResponse, len(items))
	for i := range items {
		out[i] = FromReception(&items[i])
	}
	return out
}
