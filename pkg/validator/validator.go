package validator

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator plugs go-playground/validator into Echo so bound request
// DTOs (artifact submissions, listing filters) are checked against their
// `validate` tags before a handler sees them.
type CustomValidator struct {
	v *validator.Validate
}

// New creates the validator registered on the Echo instance at startup
func New() *CustomValidator {
	v := validator.New()
	return &CustomValidator{v: v}
}

// Validate checks a bound request struct against its validation tags
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}
