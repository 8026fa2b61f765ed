// Package reception manages delivery events that group stock batches.
// A reception is either open (its batches take part in global stock) or closed.
package reception

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
)

const (
	maxNameLength      = 200
	maxReferenceLength = 200
)

// Reception is one logged delivery.
type Reception struct {
	ID            id.ID      `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	ReceptionDate *time.Time `db:"reception_date" json:"receptionDate,omitempty"`
	Supplier      *string    `db:"supplier" json:"supplier,omitempty"`
	InvoiceRef    *string    `db:"invoice_ref" json:"invoiceRef,omitempty"`
	IsClosed      bool       `db:"is_closed" json:"isClosed"`
	ClosedAt      *time.Time `db:"closed_at" json:"closedAt,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

// Details are the editable attributes of a reception.
type Details struct {
	Name          string
	ReceptionDate *time.Time
	Supplier      *string
	InvoiceRef    *string
}

// New creates an open reception.
func New(d Details, now time.Time) (*Reception, error) {
	r := &Reception{
		ID:        id.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.apply(d); err != nil {
		return nil, err
	}
	return r, nil
}

// Close marks the reception closed. Closing a closed reception is a no-op.
func (r *Reception) Close(now time.Time) bool {
	if r.IsClosed {
		return false
	}
	r.IsClosed = true
	r.ClosedAt = &now
	r.UpdatedAt = now
	return true
}

// Reopen marks the reception open again. Reopening an open reception is a no-op.
func (r *Reception) Reopen(now time.Time) bool {
	if !r.IsClosed {
		return false
	}
	r.IsClosed = false
	r.ClosedAt = nil
	r.UpdatedAt = now
	return true
}

// Update replaces the editable attributes.
func (r *Reception) Update(d Details, now time.Time) error {
	if err := r.apply(d); err != nil {
		return err
	}
	r.UpdatedAt = now
	return nil
}

func (r *Reception) apply(d Details) error {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return apperror.NewValidation("reception name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return apperror.NewValidation("reception name is too long").WithDetail("max", maxNameLength)
	}
	supplier, err := optionalText("supplier", d.Supplier)
	if err != nil {
		return err
	}
	invoice, err := optionalText("invoice_ref", d.InvoiceRef)
	if err != nil {
		return err
	}

	r.Name = name
	r.Supplier = supplier
	r.InvoiceRef = invoice
	r.ReceptionDate = nil
	if d.ReceptionDate != nil {
		day := time.Date(d.ReceptionDate.Year(), d.ReceptionDate.Month(), d.ReceptionDate.Day(), 0, 0, 0, 0, time.UTC)
		r.ReceptionDate = &day
	}
	return nil
}

func optionalText(field string, v *string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(s) > maxReferenceLength {
		return nil, apperror.NewValidation(field+" is too long").WithDetail("max", maxReferenceLength)
	}
	return &s, nil
}
