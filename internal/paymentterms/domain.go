package paymentterms

import (
	"math"
	"time"

	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
)

// PaymentMethod is a settlement method referenced by template installments.
type PaymentMethod struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// InstallmentDef is one slice of a payment-terms template: a percentage of the
// document total due a number of days after the issue date. A nil DayOffset
// means the due date is negotiated per document ("to be determined").
type InstallmentDef struct {
	Sequence        int     `json:"sequence" validate:"required,gt=0"`
	Percentage      float64 `json:"percentage" validate:"required,gt=0,lte=100"`
	DayOffset       *int    `json:"day_offset,omitempty" validate:"omitempty,gte=0"`
	PaymentMethodID int64   `json:"payment_method_id" validate:"required,gt=0"`
}

// Template is a reusable payment schedule (condição de pagamento).
type Template struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	IsActive     bool             `json:"is_active"`
	Installments []InstallmentDef `json:"installments"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// percentTolerance absorbs representation noise in templates typed as
// 33.33/33.33/33.34 style splits.
const percentTolerance = 0.01

// ValidateInstallments rejects templates whose percentages do not reconcile
// with the document total. Templates that slip past this check would produce
// installment schedules that never sum to the grand total, so the check is a
// hard rejection rather than a warning.
func ValidateInstallments(defs []InstallmentDef) error {
	if len(defs) == 0 {
		return httpx.NewFieldError("installments", "at least one installment is required")
	}
	sum := 0.0
	seen := make(map[int]bool, len(defs))
	for _, def := range defs {
		if def.Sequence <= 0 {
			return httpx.NewFieldError("installments", "installment sequence must be positive")
		}
		if seen[def.Sequence] {
			return httpx.NewFieldError("installments", "duplicate installment sequence")
		}
		seen[def.Sequence] = true
		if def.Percentage <= 0 || def.Percentage > 100 {
			return httpx.NewFieldError("installments", "installment percentage must be within (0, 100]")
		}
		if def.DayOffset != nil && *def.DayOffset < 0 {
			return httpx.NewFieldError("installments", "installment day offset must not be negative")
		}
		sum += def.Percentage
	}
	if math.Abs(sum-100) > percentTolerance {
		return httpx.NewFieldError("installments", "installment percentages must sum to 100")
	}
	return nil
}
