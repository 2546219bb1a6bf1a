package composer

import (
	"strings"
	"time"

	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
)

// Validate checks a document against the submission rules: all header fields
// present, dates ordered (arrival not before issue, issue not in the future),
// at least one line, and every line holding its quantity, price and discount
// invariants. All violations are reported together, keyed by field.
func Validate(d Document, now time.Time) error {
	var errs httpx.FieldErrors

	h := d.Header
	if strings.TrimSpace(h.Number) == "" {
		errs = append(errs, httpx.NewFieldError("number", "document number is required"))
	}
	if strings.TrimSpace(h.Model) == "" {
		errs = append(errs, httpx.NewFieldError("model", "document model is required"))
	}
	if strings.TrimSpace(h.Series) == "" {
		errs = append(errs, httpx.NewFieldError("series", "document series is required"))
	}
	if h.CounterpartyID <= 0 {
		errs = append(errs, httpx.NewFieldError("counterparty_id", "a counterparty is required"))
	}
	if h.IssueDate.IsZero() {
		errs = append(errs, httpx.NewFieldError("issue_date", "issue date is required"))
	}
	if h.ArrivalDate.IsZero() {
		errs = append(errs, httpx.NewFieldError("arrival_date", "arrival date is required"))
	}

	if !h.IssueDate.IsZero() {
		if dateOnly(h.IssueDate).After(dateOnly(now)) {
			errs = append(errs, httpx.NewFieldError("issue_date", "issue date must not be in the future"))
		}
		if !h.ArrivalDate.IsZero() && dateOnly(h.ArrivalDate).Before(dateOnly(h.IssueDate)) {
			errs = append(errs, httpx.NewFieldError("arrival_date", "arrival date must not precede the issue date"))
		}
	}

	if !d.HasLines() {
		errs = append(errs, httpx.NewFieldError("lines", "at least one line item is required"))
	}
	for _, line := range d.Lines {
		if line.Quantity <= 0 {
			errs = append(errs, httpx.NewFieldError("lines", "line quantity must be greater than zero"))
		}
		if line.UnitPrice <= 0 {
			errs = append(errs, httpx.NewFieldError("lines", "line unit price must be greater than zero"))
		}
		if line.Discount < 0 || line.Discount > line.Quantity*line.UnitPrice {
			errs = append(errs, httpx.NewFieldError("lines", "line discount must not exceed the line subtotal"))
		}
	}

	if !d.FreightMode.Valid() {
		errs = append(errs, httpx.NewFieldError("freight_mode", "freight mode must be NONE, CIF or FOB"))
	}
	if d.FreightAmount < 0 || d.InsuranceAmount < 0 || d.OtherExpensesAmount < 0 {
		errs = append(errs, httpx.NewFieldError("freight", "freight and expense amounts must not be negative"))
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
