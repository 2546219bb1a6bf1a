package notes

import "time"

// LineRequest carries one line as entered on the form: catalog reference plus
// quantity, price and discount. The catalog snapshot and the totals are
// resolved server-side.
type LineRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"required,gt=0"`
	Discount  float64 `json:"discount" validate:"gte=0"`
}

// CreateNoteRequest is the submission payload for a new draft note.
type CreateNoteRequest struct {
	Kind                Kind          `json:"kind" validate:"required,oneof=ENTRY EXIT"`
	Number              string        `json:"number" validate:"required,max=20"`
	Model               string        `json:"model" validate:"required,max=10"`
	Series              string        `json:"series" validate:"required,max=10"`
	CounterpartyID      int64         `json:"counterparty_id" validate:"required,gt=0"`
	IssueDate           time.Time     `json:"issue_date" validate:"required"`
	ArrivalDate         time.Time     `json:"arrival_date" validate:"required"`
	FreightMode         string        `json:"freight_mode" validate:"omitempty,oneof=NONE CIF FOB"`
	FreightAmount       float64       `json:"freight_amount" validate:"gte=0"`
	InsuranceAmount     float64       `json:"insurance_amount" validate:"gte=0"`
	OtherExpensesAmount float64       `json:"other_expenses_amount" validate:"gte=0"`
	PaymentTermsID      int64         `json:"payment_terms_id" validate:"omitempty,gt=0"`
	Notes               string        `json:"notes"`
	Lines               []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

// UpdateNoteRequest replaces a draft note wholesale; the document is
// recomposed from scratch, matching the created-or-replaced persistence model
// of the entry form.
type UpdateNoteRequest struct {
	Number              string        `json:"number" validate:"required,max=20"`
	Model               string        `json:"model" validate:"required,max=10"`
	Series              string        `json:"series" validate:"required,max=10"`
	CounterpartyID      int64         `json:"counterparty_id" validate:"required,gt=0"`
	IssueDate           time.Time     `json:"issue_date" validate:"required"`
	ArrivalDate         time.Time     `json:"arrival_date" validate:"required"`
	FreightMode         string        `json:"freight_mode" validate:"omitempty,oneof=NONE CIF FOB"`
	FreightAmount       float64       `json:"freight_amount" validate:"gte=0"`
	InsuranceAmount     float64       `json:"insurance_amount" validate:"gte=0"`
	OtherExpensesAmount float64       `json:"other_expenses_amount" validate:"gte=0"`
	PaymentTermsID      int64         `json:"payment_terms_id" validate:"omitempty,gt=0"`
	Notes               string        `json:"notes"`
	Lines               []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ListNoteFilters narrows the note listing.
type ListNoteFilters struct {
	Page           int
	Limit          int
	Kind           Kind
	Status         Status
	CounterpartyID int64
}

func (f ListNoteFilters) Offset() int {
	page := f.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * f.PageLimit()
}

func (f ListNoteFilters) PageLimit() int {
	if f.Limit < 1 || f.Limit > 100 {
		return 20
	}
	return f.Limit
}
