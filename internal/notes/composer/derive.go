package composer

import (
	"math"
	"time"

	"github.com/mercantil-erp/mercantil-erp/internal/paymentterms"
)

// Round2 rounds a monetary value to two decimals. Intermediate sums stay
// unrounded; rounding happens only at derivation boundaries.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LinesTotal sums the committed line totals.
func LinesTotal(d Document) float64 {
	sum := 0.0
	for _, line := range d.Lines {
		sum += line.Total
	}
	return Round2(sum)
}

// GrandTotal combines the line totals with the freight trio. The freight,
// insurance and other-expense amounts count only when the freight mode is not
// NONE.
func GrandTotal(d Document) float64 {
	total := LinesTotal(d)
	if d.FreightMode != FreightNone {
		total += d.FreightAmount + d.InsuranceAmount + d.OtherExpensesAmount
	}
	return Round2(total)
}

// Installment is one projected payment of the schedule. A nil DueDate means
// "to be determined": the issue date or the day offset was absent, which is a
// placeholder state rather than an error.
type Installment struct {
	Sequence        int        `json:"sequence"`
	Percentage      float64    `json:"percentage"`
	Amount          float64    `json:"amount"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	PaymentMethodID int64      `json:"payment_method_id"`
}

// DeriveInstallments projects a payment-terms template onto the document's
// grand total and issue date. Due dates use calendar-day arithmetic on
// date-only values at local midnight, so timezone offsets cannot shift them
// across a day boundary. The output is a pure projection and is never stored.
func DeriveInstallments(d Document, defs []paymentterms.InstallmentDef) []Installment {
	grand := GrandTotal(d)
	issue := dateOnly(d.Header.IssueDate)

	out := make([]Installment, 0, len(defs))
	for _, def := range defs {
		inst := Installment{
			Sequence:        def.Sequence,
			Percentage:      def.Percentage,
			Amount:          Round2(grand * def.Percentage / 100),
			PaymentMethodID: def.PaymentMethodID,
		}
		if !issue.IsZero() && def.DayOffset != nil {
			due := issue.AddDate(0, 0, *def.DayOffset)
			inst.DueDate = &due
		}
		out = append(out, inst)
	}
	return out
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
