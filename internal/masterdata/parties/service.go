package parties

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Party, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Party, error) {
	if id <= 0 {
		return Party{}, fmt.Errorf("%w: invalid party id", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Lookup serves the counterparty selection used when filling a note header.
func (s *Service) Lookup(ctx context.Context, id int64) (LookupResult, error) {
	if id <= 0 {
		return LookupResult{}, fmt.Errorf("%w: invalid party id", httpx.ErrValidation)
	}
	return s.repo.Lookup(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreatePartyRequest) (Party, error) {
	if err := validateCreate(req); err != nil {
		return Party{}, err
	}

	party := Party{
		Kind:           req.Kind,
		Name:           req.Name,
		TradeName:      req.TradeName,
		Document:       digitsOnly(req.Document),
		Email:          req.Email,
		Phone:          req.Phone,
		AddressLine:    req.AddressLine,
		City:           req.City,
		State:          req.State,
		PostalCode:     req.PostalCode,
		PaymentTermsID: req.PaymentTermsID,
		IsActive:       true,
		Notes:          req.Notes,
	}
	id, err := s.repo.Create(ctx, party)
	if err != nil {
		return Party{}, fmt.Errorf("create party: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdatePartyRequest) (Party, error) {
	if id <= 0 {
		return Party{}, fmt.Errorf("%w: invalid party id", httpx.ErrValidation)
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.TradeName != nil {
		updates["trade_name"] = *req.TradeName
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.AddressLine != nil {
		updates["address_line"] = *req.AddressLine
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.State != nil {
		updates["state"] = *req.State
	}
	if req.PostalCode != nil {
		updates["postal_code"] = *req.PostalCode
	}
	if req.PaymentTermsID != nil {
		updates["payment_terms_id"] = *req.PaymentTermsID
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return Party{}, fmt.Errorf("update party: %w", err)
		}
	}
	return s.repo.Get(ctx, id)
}

// Delete deactivates the party; registrations referenced by notes stay in place.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid party id", httpx.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}
