package record

import (
	"errors"
	"fmt"
	"strings"
)

// Service errors.
var (
	ErrValidation = errors.New("validation failed")
	ErrDuplicate  = errors.New("duplicate record")
	ErrNotFound   = errors.New("record not found")
	ErrParse      = errors.New("unreadable import file")
)

// ValidationError names the required fields that were empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "Missing required fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// DuplicateError reports a write whose key belongs to another record.
type DuplicateError struct {
	StageName string
	Email     string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("Duplicate profile (stageName + email): %q / %q", e.StageName, e.Email)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// ParseError rejects an import file as a whole.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrParse, e.Err}
	}
	return []error{ErrParse}
}

func duplicateOf(r *Record) error {
	return &DuplicateError{StageName: r.StageName, Email: r.Email}
}

// categorizeError converts errors to audit-safe categories.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrParse):
		return "parse"
	default:
		return "internal_error"
	}
}
