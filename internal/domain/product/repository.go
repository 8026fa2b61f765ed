package product

import (
	"context"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
)

// Repository persists products.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	// GetByID returns NotFound when absent.
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	// GetByName matches the exact (trimmed) name, NotFound when absent.
	GetByName(ctx context.Context, name string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
}
