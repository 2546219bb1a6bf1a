package notes

import (
	"time"

	"github.com/mercantil-erp/mercantil-erp/internal/notes/composer"
)

// Kind distinguishes the two note documents: Nota de Entrada (goods receipt)
// and Nota de Saída (outgoing sales document).
type Kind string

const (
	KindEntry Kind = "ENTRY"
	KindExit  Kind = "EXIT"
)

func (k Kind) Valid() bool {
	return k == KindEntry || k == KindExit
}

// Status is the note lifecycle. Drafts are editable; posting freezes the note
// and derives its payment schedule; cancellation retires it.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPosted    Status = "POSTED"
	StatusCancelled Status = "CANCELLED"
)

// Note is a persisted Nota de Entrada or Nota de Saída. Totals are stored as
// computed server-side; client-supplied totals are never trusted.
type Note struct {
	ID                  int64                `json:"id" db:"id"`
	Kind                Kind                 `json:"kind" db:"kind"`
	Status              Status               `json:"status" db:"status"`
	Number              string               `json:"number" db:"number"`
	Model               string               `json:"model" db:"model"`
	Series              string               `json:"series" db:"series"`
	CounterpartyID      int64                `json:"counterparty_id" db:"counterparty_id"`
	IssueDate           time.Time            `json:"issue_date" db:"issue_date"`
	ArrivalDate         time.Time            `json:"arrival_date" db:"arrival_date"`
	FreightMode         composer.FreightMode `json:"freight_mode" db:"freight_mode"`
	FreightAmount       float64              `json:"freight_amount" db:"freight_amount"`
	InsuranceAmount     float64              `json:"insurance_amount" db:"insurance_amount"`
	OtherExpensesAmount float64              `json:"other_expenses_amount" db:"other_expenses_amount"`
	PaymentTermsID      int64                `json:"payment_terms_id" db:"payment_terms_id"`
	LinesTotal          float64              `json:"lines_total" db:"lines_total"`
	GrandTotal          float64              `json:"grand_total" db:"grand_total"`
	Notes               string               `json:"notes" db:"notes"`
	PostedAt            *time.Time           `json:"posted_at,omitempty" db:"posted_at"`
	CreatedAt           time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at" db:"updated_at"`
	Lines               []NoteLine           `json:"lines" db:"-"`
}

// NoteLine is a persisted line. LineUID is the document-local identifier the
// composer assigned; code, name and unit are the catalog snapshot captured at
// commit time.
type NoteLine struct {
	ID        int64   `json:"id" db:"id"`
	NoteID    int64   `json:"note_id" db:"note_id"`
	LineUID   string  `json:"line_uid" db:"line_uid"`
	ProductID int64   `json:"product_id" db:"product_id"`
	Code      string  `json:"code" db:"code"`
	Name      string  `json:"name" db:"name"`
	UnitCode  string  `json:"unit_code" db:"unit_code"`
	Quantity  float64 `json:"quantity" db:"quantity"`
	UnitPrice float64 `json:"unit_price" db:"unit_price"`
	Discount  float64 `json:"discount" db:"discount"`
	Total     float64 `json:"total" db:"total"`
}

// Composed rebuilds the in-memory document the note was composed from, so the
// same derivations that ran at entry time can re-run against stored data.
func (n Note) Composed() composer.Document {
	doc := composer.Document{
		Header: composer.Header{
			Number:         n.Number,
			Model:          n.Model,
			Series:         n.Series,
			CounterpartyID: n.CounterpartyID,
			IssueDate:      n.IssueDate,
			ArrivalDate:    n.ArrivalDate,
		},
		FreightMode:         n.FreightMode,
		FreightAmount:       n.FreightAmount,
		InsuranceAmount:     n.InsuranceAmount,
		OtherExpensesAmount: n.OtherExpensesAmount,
		PaymentTermsID:      n.PaymentTermsID,
		Notes:               n.Notes,
		IsActive:            n.Status != StatusCancelled,
	}
	for _, line := range n.Lines {
		doc.Lines = append(doc.Lines, composer.LineItem{
			ID:        line.LineUID,
			ProductID: line.ProductID,
			Code:      line.Code,
			Name:      line.Name,
			UnitCode:  line.UnitCode,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Discount:  line.Discount,
			Total:     line.Total,
		})
	}
	return doc
}
