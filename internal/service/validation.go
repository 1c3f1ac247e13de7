package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validationDetails flattens validator errors into field → rule details
// suitable for the error response body.
func validationDetails(err error) map[string]any {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		details[strings.ToLower(fe.Field())] = rule
	}
	return details
}
