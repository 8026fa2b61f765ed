// Package catalog_repo provides PostgreSQL implementations for catalog repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/product"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

var productColumns = postgres.ExtractDBColumns[product.Product]()

// ProductRepo implements product.Repository.
type ProductRepo struct {
	postgres.BaseRepo
}

var _ product.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{BaseRepo: postgres.NewBaseRepo(txManager)}
}

// Create inserts a product. A taken name is reported as a duplicate.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	if err := r.InsertStruct(ctx, productsTable, productColumns, p); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("product", "name", p.Name).WithCause(err)
		}
		return err
	}
	return nil
}

// GetByID returns a product by id.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	return r.getOne(ctx, squirrel.Eq{"id": productID}, productID)
}

// GetByName returns the product with exactly this name.
func (r *ProductRepo) GetByName(ctx context.Context, name string) (*product.Product, error) {
	return r.getOne(ctx, squirrel.Eq{"name": name}, name)
}

// List returns all products ordered by name.
func (r *ProductRepo) List(ctx context.Context) ([]product.Product, error) {
	q := r.Builder().Select(productColumns...).From(productsTable).OrderBy("name")

	var products []product.Product
	if err := r.Select(ctx, &products, q); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return products, nil
}

func (r *ProductRepo) getOne(ctx context.Context, where squirrel.Eq, key any) (*product.Product, error) {
	q := r.Builder().Select(productColumns...).From(productsTable).Where(where).Limit(1)

	var p product.Product
	if err := r.Get(ctx, &p, q); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", key)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}
