package app

import (
	"errors"
	"fmt"

	"github.com/ai-engineer-001/upcraft-crm/internal/store"
)

const (
	CodeNotFound    = "NOT_FOUND"
	CodeValidation  = "VALIDATION_ERROR"
	CodeUnavailable = "UNAVAILABLE"
)

type DomainError struct {
	Code    string
	Message string
	Details any
	cause   error
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func domainError(code, message string, details any) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

func validationError(field, message string) *DomainError {
	return domainError(CodeValidation, message, map[string]any{"field": field})
}

// storeError turns a store lookup failure into a NOT_FOUND domain error and
// passes anything else through.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return &DomainError{Code: CodeNotFound, Message: err.Error(), cause: err}
	}
	return err
}

// IsNotFound reports whether err is, or wraps, a missing entity.
func IsNotFound(err error) bool {
	var de *DomainError
	if errors.As(err, &de) && de.Code == CodeNotFound {
		return true
	}
	return errors.Is(err, store.ErrNotFound)
}

func IsValidation(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == CodeValidation
}

// resultLabel classifies err for the command counter.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsNotFound(err):
		return "not_found"
	case IsValidation(err):
		return "invalid"
	default:
		return "error"
	}
}
