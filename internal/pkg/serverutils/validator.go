package serverutils

import (
	"fmt"
	"strings"

	"idea-clustering-be/internal/pkg/apperrors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest runs struct tag validation and converts the first
// failure into a ValidationError for the error middleware.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		fe := errs[0]
		field := strings.ToLower(fe.Field())
		return apperrors.NewValidation(fmt.Sprintf("field '%s' failed on '%s' rule", field, fe.Tag()))
	}

	return apperrors.NewValidation("invalid request body")
}
