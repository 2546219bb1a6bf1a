package composer

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
)

// FreightMode states who carries the freight cost on a note.
type FreightMode string

const (
	FreightNone FreightMode = "NONE"
	FreightCIF  FreightMode = "CIF"
	FreightFOB  FreightMode = "FOB"
)

func (m FreightMode) Valid() bool {
	switch m {
	case FreightNone, FreightCIF, FreightFOB:
		return true
	}
	return false
}

var (
	// ErrHeaderIncomplete guards line entry until the document header is filled in.
	ErrHeaderIncomplete = fmt.Errorf("%w: document header is incomplete", httpx.ErrValidation)
	// ErrNoLines guards freight and expense edits until at least one line exists.
	ErrNoLines = fmt.Errorf("%w: document has no line items", httpx.ErrValidation)
)

// Header carries the identifying fields of a note. All six fields must be
// present before line entry opens up.
type Header struct {
	Number         string    `json:"number"`
	Model          string    `json:"model"`
	Series         string    `json:"series"`
	CounterpartyID int64     `json:"counterparty_id"`
	IssueDate      time.Time `json:"issue_date"`
	ArrivalDate    time.Time `json:"arrival_date"`
}

// LineItem is one committed row of a note. Code, name and unit are captured
// from the catalog at add time and never re-synced. The ID is local to the
// document, not the catalog id, because committing the same product twice
// merges into one line.
type LineItem struct {
	ID        string  `json:"id"`
	ProductID int64   `json:"product_id"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	UnitCode  string  `json:"unit_code"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Discount  float64 `json:"discount"`
	Total     float64 `json:"total"`
}

// StagedLine is the entry row before commit: a catalog lookup result plus the
// typed quantity, price and discount.
type StagedLine struct {
	ProductID int64   `json:"product_id"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	UnitCode  string  `json:"unit_code"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Discount  float64 `json:"discount"`
}

// Document is the in-memory note being composed. Transitions never mutate it;
// each returns a fresh value with its own line slice, so callers can hold on
// to earlier states (a failed persistence call leaves the previous state
// untouched).
type Document struct {
	Header              Header      `json:"header"`
	FreightMode         FreightMode `json:"freight_mode"`
	FreightAmount       float64     `json:"freight_amount"`
	InsuranceAmount     float64     `json:"insurance_amount"`
	OtherExpensesAmount float64     `json:"other_expenses_amount"`
	PaymentTermsID      int64       `json:"payment_terms_id"`
	Lines               []LineItem  `json:"lines"`
	Notes               string      `json:"notes"`
	IsActive            bool        `json:"is_active"`
}

// NewDocument returns the empty document a form session starts from.
func NewDocument() Document {
	return Document{FreightMode: FreightNone, IsActive: true}
}

// HeaderComplete reports whether every identifying header field is present.
// Line entry stays closed while this is false.
func (d Document) HeaderComplete() bool {
	h := d.Header
	return strings.TrimSpace(h.Number) != "" &&
		strings.TrimSpace(h.Model) != "" &&
		strings.TrimSpace(h.Series) != "" &&
		h.CounterpartyID > 0 &&
		!h.IssueDate.IsZero() &&
		!h.ArrivalDate.IsZero()
}

// HasLines reports whether at least one line has been committed. Freight and
// expense edits stay closed while this is false.
func (d Document) HasLines() bool {
	return len(d.Lines) > 0
}

func (d Document) cloneLines() []LineItem {
	lines := make([]LineItem, len(d.Lines))
	copy(lines, d.Lines)
	return lines
}

// ApplyHeader replaces the header field group.
func ApplyHeader(d Document, h Header) Document {
	d.Header = h
	d.Lines = d.cloneLines()
	return d
}

// ClampDiscount bounds a discount to [0, quantity*unitPrice]. Values outside
// the range are silently adjusted, matching the entry form behaviour.
func ClampDiscount(discount, quantity, unitPrice float64) float64 {
	subtotal := quantity * unitPrice
	if discount < 0 {
		return 0
	}
	if discount > subtotal {
		return subtotal
	}
	return discount
}

// CommitLine turns a staged entry row into a committed line. If the product
// already has a line, the quantities add up and the discount is replaced by
// the newly entered one; otherwise a new line is appended under a fresh local
// id. The discount is clamped against the resulting subtotal either way.
func CommitLine(d Document, staged StagedLine) (Document, error) {
	if !d.HeaderComplete() {
		return d, ErrHeaderIncomplete
	}
	if staged.ProductID <= 0 {
		return d, httpx.NewFieldError("product_id", "a catalog item must be selected")
	}
	if staged.Quantity <= 0 {
		return d, httpx.NewFieldError("quantity", "quantity must be greater than zero")
	}
	if staged.UnitPrice <= 0 {
		return d, httpx.NewFieldError("unit_price", "unit price must be greater than zero")
	}

	lines := d.cloneLines()
	for i, line := range lines {
		if line.ProductID != staged.ProductID {
			continue
		}
		line.Quantity += staged.Quantity
		line.UnitPrice = staged.UnitPrice
		line.Discount = ClampDiscount(staged.Discount, line.Quantity, line.UnitPrice)
		line.Total = Round2(line.Quantity*line.UnitPrice - line.Discount)
		lines[i] = line
		d.Lines = lines
		return d, nil
	}

	discount := ClampDiscount(staged.Discount, staged.Quantity, staged.UnitPrice)
	lines = append(lines, LineItem{
		ID:        uuid.NewString(),
		ProductID: staged.ProductID,
		Code:      staged.Code,
		Name:      staged.Name,
		UnitCode:  staged.UnitCode,
		Quantity:  staged.Quantity,
		UnitPrice: staged.UnitPrice,
		Discount:  discount,
		Total:     Round2(staged.Quantity*staged.UnitPrice - discount),
	})
	d.Lines = lines
	return d, nil
}

// RemoveLine drops a committed line by its local id.
func RemoveLine(d Document, lineID string) (Document, error) {
	lines := d.cloneLines()
	for i, line := range lines {
		if line.ID == lineID {
			d.Lines = append(lines[:i], lines[i+1:]...)
			return d, nil
		}
	}
	return d, fmt.Errorf("%w: line %s", httpx.ErrNotFound, lineID)
}

// SetFreightMode switches the freight responsibility mode. Switching to NONE
// zeroes the freight, insurance and other-expense amounts.
func SetFreightMode(d Document, mode FreightMode) (Document, error) {
	if !mode.Valid() {
		return d, httpx.NewFieldError("freight_mode", "freight mode must be NONE, CIF or FOB")
	}
	if !d.HasLines() {
		return d, ErrNoLines
	}
	d.Lines = d.cloneLines()
	d.FreightMode = mode
	if mode == FreightNone {
		d.FreightAmount = 0
		d.InsuranceAmount = 0
		d.OtherExpensesAmount = 0
	}
	return d, nil
}

// SetFreightAmounts replaces the freight, insurance and other-expense amounts.
func SetFreightAmounts(d Document, freight, insurance, other float64) (Document, error) {
	if !d.HasLines() {
		return d, ErrNoLines
	}
	if freight < 0 || insurance < 0 || other < 0 {
		return d, httpx.NewFieldError("freight", "freight and expense amounts must not be negative")
	}
	d.Lines = d.cloneLines()
	d.FreightAmount = freight
	d.InsuranceAmount = insurance
	d.OtherExpensesAmount = other
	return d, nil
}

// SetPaymentTerms selects the payment-terms template the schedule derives from.
func SetPaymentTerms(d Document, templateID int64) Document {
	d.Lines = d.cloneLines()
	d.PaymentTermsID = templateID
	return d
}

// SetNotes replaces the free-text notes.
func SetNotes(d Document, notes string) Document {
	d.Lines = d.cloneLines()
	d.Notes = notes
	return d
}
