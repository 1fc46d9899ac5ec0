package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/social-blog/internal/repository"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password so callers cannot discover which accounts exist.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrSelfUnfollow is returned when a user tries to remove their own
	// self-follow edge.
	ErrSelfUnfollow = errors.New("cannot unfollow yourself")
	// ErrUnauthenticated is returned when an operation needs a logged-in
	// caller and got an anonymous one.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrUnconfirmed is returned when the caller has not confirmed their
	// email address yet.
	ErrUnconfirmed = errors.New("account not confirmed")
	// ErrAlreadyConfirmed is returned when a confirmation email is
	// requested for a confirmed account.
	ErrAlreadyConfirmed = errors.New("account already confirmed")
	// ErrForbidden is the capability denial shared with the repositories.
	ErrForbidden = repository.ErrForbidden
)

// ValidationError lists the fields of an input that failed validation,
// keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// fromValidator converts go-playground errors into a ValidationError.
func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "username":
		return "must start with a letter and contain only letters, numbers, dots or underscores"
	case "eqfield":
		return "must match " + strings.ToLower(fe.Param())
	default:
		return "is invalid"
	}
}
