// AngelaMos | 2026
// validate.go

package core

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[\p{L}][\p{L}\p{N}_.]*$`)

// NewValidator returns a validator with the application's custom tags
// registered. "username" accepts letters, numbers, dots and underscores and
// must start with a letter.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	//nolint:errcheck // tag name is static and the func is non-nil
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})

	return v
}
