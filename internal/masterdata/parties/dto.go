package parties

// CreatePartyRequest registers a new party.
type CreatePartyRequest struct {
	Kind           PartyKind `json:"kind" validate:"required"`
	Name           string    `json:"name" validate:"required,max=200"`
	TradeName      *string   `json:"trade_name,omitempty" validate:"omitempty,max=200"`
	Document       string    `json:"document" validate:"required"`
	Email          *string   `json:"email,omitempty" validate:"omitempty,email"`
	Phone          *string   `json:"phone,omitempty" validate:"omitempty,max=50"`
	AddressLine    *string   `json:"address_line,omitempty" validate:"omitempty,max=200"`
	City           *string   `json:"city,omitempty" validate:"omitempty,max=100"`
	State          *string   `json:"state,omitempty" validate:"omitempty,len=2"`
	PostalCode     *string   `json:"postal_code,omitempty" validate:"omitempty,max=20"`
	PaymentTermsID *int64    `json:"payment_terms_id,omitempty" validate:"omitempty,gt=0"`
	Notes          *string   `json:"notes,omitempty"`
}

// UpdatePartyRequest carries partial party updates.
type UpdatePartyRequest struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,max=200"`
	TradeName      *string `json:"trade_name,omitempty" validate:"omitempty,max=200"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	AddressLine    *string `json:"address_line,omitempty" validate:"omitempty,max=200"`
	City           *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State          *string `json:"state,omitempty" validate:"omitempty,len=2"`
	PostalCode     *string `json:"postal_code,omitempty" validate:"omitempty,max=20"`
	PaymentTermsID *int64  `json:"payment_terms_id,omitempty" validate:"omitempty,gt=0"`
	IsActive       *bool   `json:"is_active,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}
