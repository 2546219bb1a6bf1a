package paymentterms

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
)

// Service provides business logic for payment-terms templates.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
	group  singleflight.Group
}

// NewService constructs the payment-terms service. The cache may be nil;
// reads then go straight to the repository.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

func (s *Service) ListMethods(ctx context.Context) ([]PaymentMethod, error) {
	return s.repo.ListMethods(ctx)
}

func (s *Service) ListTemplates(ctx context.Context, activeOnly bool) ([]Template, error) {
	return s.repo.ListTemplates(ctx, activeOnly)
}

// GetTemplate resolves a template through the versioned cache.
func (s *Service) GetTemplate(ctx context.Context, id int64) (Template, error) {
	if id <= 0 {
		return Template{}, fmt.Errorf("%w: invalid template id", httpx.ErrValidation)
	}

	key, err := s.cache.BuildKey(ctx, keyTemplate(id))
	if err != nil {
		s.logger.Warn("payment terms cache key", slog.Any("error", err))
		return s.repo.GetTemplate(ctx, id)
	}

	// Concurrent misses for the same template collapse into one load. Every
	// note form mount reads its counterparty's default template, so cold-cache
	// stampedes are the common case here.
	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		var tpl Template
		err := s.cache.FetchJSON(ctx, key, &tpl, func(ctx context.Context) (interface{}, error) {
			return s.repo.GetTemplate(ctx, id)
		})
		return tpl, err
	})
	if err != nil {
		return Template{}, err
	}
	return result.(Template), nil
}

func (s *Service) CreateTemplate(ctx context.Context, t Template) (Template, error) {
	if strings.TrimSpace(t.Name) == "" {
		return Template{}, httpx.NewFieldError("name", "template name is required")
	}
	if err := ValidateInstallments(t.Installments); err != nil {
		return Template{}, err
	}

	t.IsActive = true
	id, err := s.repo.CreateTemplate(ctx, t)
	if err != nil {
		return Template{}, fmt.Errorf("create payment terms: %w", err)
	}
	s.invalidate(ctx)
	return s.repo.GetTemplate(ctx, id)
}

func (s *Service) UpdateTemplate(ctx context.Context, id int64, t Template) (Template, error) {
	if id <= 0 {
		return Template{}, fmt.Errorf("%w: invalid template id", httpx.ErrValidation)
	}
	if strings.TrimSpace(t.Name) == "" {
		return Template{}, httpx.NewFieldError("name", "template name is required")
	}
	if err := ValidateInstallments(t.Installments); err != nil {
		return Template{}, err
	}

	if err := s.repo.ReplaceTemplate(ctx, id, t); err != nil {
		return Template{}, fmt.Errorf("update payment terms: %w", err)
	}
	s.invalidate(ctx)
	return s.repo.GetTemplate(ctx, id)
}

// DeactivateTemplate retires a template without touching notes that reference it.
func (s *Service) DeactivateTemplate(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid template id", httpx.ErrValidation)
	}
	if err := s.repo.DeactivateTemplate(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("payment terms cache bump", slog.Any("error", err))
	}
}
