package application

import (
	"errors"
	"fmt"
	"math"
	"net/mail"
	"strings"

	"github.com/google/uuid"
)

// ErrRepository marks storage failures that are not domain outcomes.
var ErrRepository = errors.New("repository failure")

// FieldError names one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a command fails input validation.
type ValidationError struct {
	Message string
	Details []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return "validation: " + e.Message
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.Field+": "+d.Message)
	}
	return "validation: " + e.Message + " (" + strings.Join(parts, "; ") + ")"
}

func NewValidation(msg string, details ...FieldError) error {
	return &ValidationError{Message: msg, Details: details}
}

// AsValidation unwraps a ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// Validator accumulates field errors.
type Validator struct {
	details []FieldError
}

func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.details = append(v.details, FieldError{Field: field, Message: message})
	}
}

func (v *Validator) Required(value, field string) {
	v.Check(strings.TrimSpace(value) != "", field, "is required")
}

func (v *Validator) Email(value, field string) {
	v.Check(IsEmail(value), field, "must be a valid email")
}

func (v *Validator) UUID(value, field string) {
	_, err := uuid.Parse(value)
	v.Check(err == nil, field, "must be a valid id")
}

func (v *Validator) MinLen(value string, n int, field string) {
	v.Check(len([]rune(value)) >= n, field, fmt.Sprintf("must be at least %d characters", n))
}

func (v *Validator) Valid() bool { return len(v.details) == 0 }

// Err returns a ValidationError with everything collected so far, or nil.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return NewValidation("Validation failed", v.details...)
}

// IsEmail accepts a bare address ("a@b.c"), not a display-name form.
func IsEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}

const MaxPageLimit = 100

// PageRequest is a 1-based page with a page size.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize fills defaults and clamps the limit.
func (p PageRequest) Normalize(defaultLimit int) PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

func (p PageRequest) Offset() int { return (p.Page - 1) * p.Limit }

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func NewPagination(p PageRequest, total int) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(p.Limit)))
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: pages}
}
