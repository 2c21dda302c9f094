package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidIdentifier  = errors.New("invalid identifier")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrStaleOrder         = errors.New("order was modified concurrently")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthenticated    = errors.New("authentication required")
)

// StockError carries the numbers behind an insufficient stock failure.
// ProductID is the internal key and stays out of the message.
type StockError struct {
	ProductID uint64
	Requested int
	OnHand    int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %d, on hand %d", e.Requested, e.OnHand)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// ValidationError collects per-field problems found in a request.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = msg
}

func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

// OrNil returns nil when nothing was recorded, so callers can
// `return v.OrNil()` at the end of a validation pass.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
