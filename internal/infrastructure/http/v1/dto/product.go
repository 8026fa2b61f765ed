package dto

import (
	"time"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/product"
)

type CreateProductRequest struct {
	Name                 string `json:"name" binding:"required,max=200"`
	DefaultShelfLifeDays *int   `json:"defaultShelfLifeDays,omitempty" binding:"omitempty,min=1"`
}

type ProductResponse struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	DefaultShelfLifeDays *int      `json:"defaultShelfLifeDays,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
}

func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{
		ID:                   p.ID.String(),
		Name:                 p.Name,
		DefaultShelfLifeDays: p.DefaultShelfLifeDays,
		CreatedAt:            p.CreatedAt,
	}
}

func FromProducts(items []product.Product) []ProductResponse {
	out := make([]ProductResponse, len(items))
	for i := range items {
		out[i] = FromProduct(&items[i])
	}
	return out
}
