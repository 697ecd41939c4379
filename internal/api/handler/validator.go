package handler

import (
	"github.com/pmdesk/pmdesk/internal/infrastructure/rest"
)

// echoValidator lets Echo call c.Validate(req) with the same rules the API
// client applies to outgoing DTOs.
type echoValidator struct{}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	return &echoValidator{}
}

// Validate satisfies the echo.Validator interface.
func (echoValidator) Validate(i any) error {
	return rest.Validate(i)
}
