package brands

import (
	"context"
	"fmt"
	"strings"

	"github.com/mercantil-erp/mercantil-erp/internal/masterdata/shared"
	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Brand, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Brand, error) {
	if id <= 0 {
		return Brand{}, fmt.Errorf("%w: invalid brand id", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, brand Brand) (Brand, error) {
	if strings.TrimSpace(brand.Name) == "" {
		return Brand{}, httpx.NewFieldError("name", "brand name is required")
	}
	brand.IsActive = true
	return s.repo.Create(ctx, brand)
}

func (s *Service) Update(ctx context.Context, id int64, brand Brand) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid brand id", httpx.ErrValidation)
	}
	if strings.TrimSpace(brand.Name) == "" {
		return httpx.NewFieldError("name", "brand name is required")
	}
	return s.repo.Update(ctx, id, brand)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid brand id", httpx.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}
