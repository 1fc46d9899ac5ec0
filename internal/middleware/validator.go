package middleware

import (
	"github.com/iliyamo/social-blog/internal/service"
)

// Validator plugs the service validation rules into echo so handlers can
// call c.Validate on bound request bodies.
type Validator struct{}

func (Validator) Validate(i interface{}) error { return service.Validate(i) }
