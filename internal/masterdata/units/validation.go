package units

import (
	"strings"

	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
)

func (s *Service) validate(u Unit) error {
	if strings.TrimSpace(u.Code) == "" {
		return httpx.NewFieldError("code", "unit code is required")
	}
	if strings.TrimSpace(u.Name) == "" {
		return httpx.NewFieldError("name", "unit name is required")
	}
	return nil
}
