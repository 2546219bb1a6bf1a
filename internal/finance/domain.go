package finance

import "time"

// InstallmentKind splits the ledger into payables (entry notes, owed to
// suppliers) and receivables (exit notes, owed by clients).
type InstallmentKind string

const (
	KindPayable    InstallmentKind = "PAYABLE"
	KindReceivable InstallmentKind = "RECEIVABLE"
)

func (k InstallmentKind) Valid() bool {
	return k == KindPayable || k == KindReceivable
}

type InstallmentStatus string

const (
	StatusOpen      InstallmentStatus = "OPEN"
	StatusPaid      InstallmentStatus = "PAID"
	StatusCancelled InstallmentStatus = "CANCELLED"
)

// Installment is one materialized payment of a posted note's schedule. Unlike
// the preview the note form shows, these rows persist and track settlement.
// A nil DueDate carries the "to be determined" state from the template.
type Installment struct {
	ID              int64             `json:"id" db:"id"`
	NoteID          int64             `json:"note_id" db:"note_id"`
	Kind            InstallmentKind   `json:"kind" db:"kind"`
	CounterpartyID  int64             `json:"counterparty_id" db:"counterparty_id"`
	Sequence        int               `json:"sequence" db:"sequence"`
	Amount          float64           `json:"amount" db:"amount"`
	DueDate         *time.Time        `json:"due_date,omitempty" db:"due_date"`
	PaymentMethodID int64             `json:"payment_method_id" db:"payment_method_id"`
	Status          InstallmentStatus `json:"status" db:"status"`
	PaidAt          *time.Time        `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}

// AgingReport summarises open installment totals by days past due.
// Installments with no due date yet are reported separately, since they are
// neither current nor late until a date is set.
type AgingReport struct {
	Current      float64 `json:"current"`
	Bucket30     float64 `json:"bucket_30"`
	Bucket60     float64 `json:"bucket_60"`
	Bucket90     float64 `json:"bucket_90"`
	Bucket120    float64 `json:"bucket_120"`
	Undetermined float64 `json:"undetermined"`
}

// AgingOverview pairs the payable and receivable aging reports.
type AgingOverview struct {
	Payables    AgingReport `json:"payables"`
	Receivables AgingReport `json:"receivables"`
}

// OverdueSummary is the per-counterparty total of overdue open installments.
type OverdueSummary struct {
	CounterpartyID int64           `json:"counterparty_id"`
	Kind           InstallmentKind `json:"kind"`
	Count          int             `json:"count"`
	Total          float64         `json:"total"`
}

// ListFilters narrows the installment listing.
type ListFilters struct {
	Page           int
	Limit          int
	Kind           InstallmentKind
	Status         InstallmentStatus
	CounterpartyID int64
	NoteID         int64
	DueBefore      *time.Time
}

func (f ListFilters) PageLimit() int {
	if f.Limit < 1 || f.Limit > 100 {
		return 20
	}
	return f.Limit
}

func (f ListFilters) Offset() int {
	page := f.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * f.PageLimit()
}
