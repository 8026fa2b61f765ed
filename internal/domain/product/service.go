package product

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/pkg/logger"
)

// Service provides catalog operations for products.
type Service struct {
	repo  Repository
	clock func() time.Time
}

// NewService creates a new product service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// Create registers a new product. Names are unique.
func (s *Service) Create(ctx context.Context, name string, defaultShelfLifeDays *int) (*Product, error) {
	p, err := New(name, defaultShelfLifeDays, s.clock().UTC())
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByName(ctx, p.Name)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("check product name: %w", err)
	}
	if existing != nil {
		return nil, apperror.NewDuplicate("product", "name", p.Name)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	logger.Info(ctx, "product created", "product_id", p.ID, "name", p.Name)
	return p, nil
}

// Get returns a product by id.
func (s *Service) Get(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// List returns all products ordered by name.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

// Resolve finds a product by id string or, failing that, by exact name.
func (s *Service) Resolve(ctx context.Context, ref string) (*Product, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, apperror.NewValidation("product reference is empty")
	}
	if productID, err := id.Parse(ref); err == nil {
		return s.repo.GetByID(ctx, productID)
	}
	return s.repo.GetByName(ctx, ref)
}
