package parties

import "time"

// PartyKind discriminates the registries kept in the parties table.
type PartyKind string

const (
	KindClient   PartyKind = "CLIENT"
	KindSupplier PartyKind = "SUPPLIER"
	KindCarrier  PartyKind = "CARRIER"
	KindEmployee PartyKind = "EMPLOYEE"
)

// Valid reports whether k is one of the known kinds.
func (k PartyKind) Valid() bool {
	switch k {
	case KindClient, KindSupplier, KindCarrier, KindEmployee:
		return true
	}
	return false
}

// Party is a client, supplier, carrier or employee record.
type Party struct {
	ID             int64     `json:"id"`
	Kind           PartyKind `json:"kind"`
	Name           string    `json:"name"`
	TradeName      *string   `json:"trade_name,omitempty"`
	Document       string    `json:"document"`
	Email          *string   `json:"email,omitempty"`
	Phone          *string   `json:"phone,omitempty"`
	AddressLine    *string   `json:"address_line,omitempty"`
	City           *string   `json:"city,omitempty"`
	State          *string   `json:"state,omitempty"`
	PostalCode     *string   `json:"postal_code,omitempty"`
	PaymentTermsID *int64    `json:"payment_terms_id,omitempty"`
	IsActive       bool      `json:"is_active"`
	Notes          *string   `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// LookupResult is the counterparty shape consumed by the note header: the
// display name plus the default payment-terms template to pre-select.
type LookupResult struct {
	ID             int64  `json:"id"`
	DisplayName    string `json:"display_name"`
	PaymentTermsID *int64 `json:"payment_terms_id,omitempty"`
}
