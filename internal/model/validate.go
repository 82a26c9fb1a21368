package model

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks field-level constraints of deliverables and packages:
// non-empty titles and names, non-negative rates, hours and durations.
func (p ProposalSection) Validate() error {
	return validate.Struct(p)
}
