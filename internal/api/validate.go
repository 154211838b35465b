package api

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct runs the shared validator over a decoded request payload.
func ValidateStruct(v any) error {
	return validate.Struct(v)
}
