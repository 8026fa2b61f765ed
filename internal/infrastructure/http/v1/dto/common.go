// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/types"
)

// IDResponse is returned by create endpoints that only echo the new id.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse acknowledges an operation without payload.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// NewListResponse never renders items as null.
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Count: len(items)}
}

// --- Money and dates ---

// Amount renders a monetary amount with exactly two decimals.
func Amount(m types.Money) string {
	return m.StringFixed(types.MoneyScale)
}

// Price renders a unit price without trailing zeros.
func Price(m types.Money) string {
	return m.String()
}

// ParseMoney parses a decimal string field.
func ParseMoney(field, s string) (types.Money, error) {
	m, err := types.NewMoneyFromString(s)
	if err != nil {
		return types.Zero(), apperror.NewValidation("invalid decimal value").
			WithDetail("field", field).
			WithDetail("value", s)
	}
	return m, nil
}

// ParseDate parses an optional YYYY-MM-DD field.
func ParseDate(field string, s *string) (*time.Time, error) {
	d, err := types.ParseDatePtr(s)
	if err != nil {
		return nil, apperror.NewValidation(err.Error()).WithDetail("field", field)
	}
	return d, nil
}

// ParseID parses an id field.
func ParseID(field, s string) (id.ID, error) {
	v, err := id.Parse(s)
	if err != nil {
		return id.ID{}, apperror.NewValidation("invalid id format").
			WithDetail("field", field).
			WithDetail("value", s)
	}
	return v, nil
}

// IDString renders an optional id.
func IDString(v *id.ID) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}
