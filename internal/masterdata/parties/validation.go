package parties

import (
	"strings"

	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
)

func validateCreate(req CreatePartyRequest) error {
	if !req.Kind.Valid() {
		return httpx.NewFieldError("kind", "unknown party kind")
	}
	if strings.TrimSpace(req.Name) == "" {
		return httpx.NewFieldError("name", "party name is required")
	}
	doc := digitsOnly(req.Document)
	if !validCPF(doc) && !validCNPJ(doc) {
		return httpx.NewFieldError("document", "invalid CPF/CNPJ")
	}
	return nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// validCPF checks the two mod-11 verification digits of an 11-digit CPF.
func validCPF(doc string) bool {
	if len(doc) != 11 || allSame(doc) {
		return false
	}
	for _, pos := range []int{9, 10} {
		sum := 0
		for i := 0; i < pos; i++ {
			sum += int(doc[i]-'0') * (pos + 1 - i)
		}
		digit := (sum * 10) % 11
		if digit == 10 {
			digit = 0
		}
		if digit != int(doc[pos]-'0') {
			return false
		}
	}
	return true
}

// validCNPJ checks the two mod-11 verification digits of a 14-digit CNPJ.
func validCNPJ(doc string) bool {
	if len(doc) != 14 || allSame(doc) {
		return false
	}
	weights := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	for _, pos := range []int{12, 13} {
		sum := 0
		offset := len(weights) - pos
		for i := 0; i < pos; i++ {
			sum += int(doc[i]-'0') * weights[offset+i]
		}
		digit := sum % 11
		if digit < 2 {
			digit = 0
		} else {
			digit = 11 - digit
		}
		if digit != int(doc[pos]-'0') {
			return false
		}
	}
	return true
}

func allSame(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
