package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/product"
)

// ProductRepo implements product.Repository.
type ProductRepo struct{ s *Store }

var _ product.Repository = (*ProductRepo)(nil)

func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	return r.s.write(ctx, func() error {
		for _, existing := range r.s.products {
			if existing.Name == p.Name {
				return apperror.NewDuplicate("product", "name", p.Name)
			}
		}
		r.s.products[p.ID] = *p
		return nil
	})
}

func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	var (
		p  product.Product
		ok bool
	)
	r.s.read(ctx, func() { p, ok = r.s.products[productID] })
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return &p, nil
}

func (r *ProductRepo) GetByName(ctx context.Context, name string) (*product.Product, error) {
	name = strings.TrimSpace(name)
	var found *product.Product
	r.s.read(ctx, func() {
		for _, p := range r.s.products {
			if p.Name == name {
				found = &p
				return
			}
		}
	})
	if found == nil {
		return nil, apperror.NewNotFound("product", name)
	}
	return found, nil
}

func (r *ProductRepo) List(ctx context.Context) ([]product.Product, error) {
	var out []product.Product
	r.s.read(ctx, func() {
		out = make([]product.Product, 0, len(r.s.products))
		for _, p := range r.s.products {
			out = append(out, p)
		}
	})
	slices.SortFunc(out, func(a, b product.Product) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}
