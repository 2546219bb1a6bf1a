package products

import (
	"context"
	"fmt"

	"github.com/mercantil-erp/mercantil-erp/internal/masterdata/shared"
	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, fmt.Errorf("%w: invalid product id", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Lookup serves the catalog-item selection used when staging a note line.
func (s *Service) Lookup(ctx context.Context, id int64) (LookupResult, error) {
	if id <= 0 {
		return LookupResult{}, fmt.Errorf("%w: invalid product id", httpx.ErrValidation)
	}
	return s.repo.Lookup(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateProductRequest) (Product, error) {
	product := Product{
		Code:       req.Code,
		Name:       req.Name,
		UnitID:     req.UnitID,
		BrandID:    req.BrandID,
		CategoryID: req.CategoryID,
		CostPrice:  req.CostPrice,
		SalePrice:  req.SalePrice,
		IsActive:   true,
	}
	id, err := s.repo.Create(ctx, product)
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateProductRequest) (Product, error) {
	if id <= 0 {
		return Product{}, fmt.Errorf("%w: invalid product id", httpx.ErrValidation)
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.UnitID != nil {
		updates["unit_id"] = *req.UnitID
	}
	if req.BrandID != nil {
		updates["brand_id"] = *req.BrandID
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.CostPrice != nil {
		updates["cost_price"] = *req.CostPrice
	}
	if req.SalePrice != nil {
		updates["sale_price"] = *req.SalePrice
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return Product{}, fmt.Errorf("update product: %w", err)
		}
	}
	return s.repo.Get(ctx, id)
}

// Delete deactivates the product; catalog items referenced by notes are never
// physically removed.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid product id", httpx.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}
