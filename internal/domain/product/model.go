// Package product holds the catalog of stocked goods (flower and material types).
package product

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
)

const maxNameLength = 200

// Product is a stocked item type. Batches reference it, never copy it.
type Product struct {
	ID                   id.ID     `db:"id" json:"id"`
	Name                 string    `db:"name" json:"name"`
	DefaultShelfLifeDays *int      `db:"default_shelf_life_days" json:"defaultShelfLifeDays,omitempty"`
	CreatedAt            time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a validated product.
func New(name string, defaultShelfLifeDays *int, now time.Time) (*Product, error) {
	p := &Product{
		ID:                   id.New(),
		Name:                 strings.TrimSpace(name),
		DefaultShelfLifeDays: defaultShelfLifeDays,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks product invariants.
func (p *Product) Validate() error {
	if p.Name == "" {
		return apperror.NewValidation("product name is required")
	}
	if utf8.RuneCountInString(p.Name) > maxNameLength {
		return apperror.NewValidation("product name is too long").WithDetail("max", maxNameLength)
	}
	if p.DefaultShelfLifeDays != nil && *p.DefaultShelfLifeDays < 1 {
		return apperror.NewValidation("default shelf life must be at least 1 day")
	}
	return nil
}
