package entities

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies failures reported by the stock engine
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindIntegrity         ErrorKind = "integrity"
	KindConflict          ErrorKind = "conflict"
	KindInvalidState      ErrorKind = "invalid_state"
	KindInsufficientStock ErrorKind = "insufficient_stock"
	KindNotFound          ErrorKind = "not_found"
)

// Sentinels for errors.Is comparisons. Any *Error matches the sentinel of its kind.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrIntegrity         = &Error{Kind: KindIntegrity}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrInvalidState      = &Error{Kind: KindInvalidState}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrNotFound          = &Error{Kind: KindNotFound}
)

// Shortage describes one component that cannot cover a requirement
type Shortage struct {
	ComponentID ComponentID `json:"component_id"`
	Needed      Quantity    `json:"needed"`
	Available   Quantity    `json:"available"`
	Shortage    Quantity    `json:"shortage"`
}

// Error is the structured error returned by every engine operation.
type Error struct {
	Kind    ErrorKind
	Entity  string
	ID      int64
	Message string

	// Shortages is populated for KindInsufficientStock
	Shortages []Shortage
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Entity != "" {
		if e.ID != 0 {
			fmt.Fprintf(&b, " (%s %d)", e.Entity, e.ID)
		} else {
			fmt.Fprintf(&b, " (%s)", e.Entity)
		}
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind ErrorKind, entity string, id int64, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Entity:  entity,
		ID:      id,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewValidationError reports malformed or out-of-range input
func NewValidationError(entity string, id int64, format string, args ...any) *Error {
	return newError(KindValidation, entity, id, format, args...)
}

// NewIntegrityError reports a broken internal invariant (corrupted state or a bug)
func NewIntegrityError(entity string, id int64, format string, args ...any) *Error {
	return newError(KindIntegrity, entity, id, format, args...)
}

// NewConflictError reports an operation blocked by a live reference
func NewConflictError(entity string, id int64, format string, args ...any) *Error {
	return newError(KindConflict, entity, id, format, args...)
}

// NewInvalidStateError reports an order operation not valid for the current status
func NewInvalidStateError(entity string, id int64, format string, args ...any) *Error {
	return newError(KindInvalidState, entity, id, format, args...)
}

// NewNotFoundError reports a lookup of an unknown id
func NewNotFoundError(entity string, id int64) *Error {
	return newError(KindNotFound, entity, id, "%s %d not found", entity, id)
}

// NewInsufficientStockError reports the components that block an allocation
func NewInsufficientStockError(orderID OrderID, shortages []Shortage) *Error {
	parts := make([]string, 0, len(shortages))
	for _, s := range shortages {
		parts = append(parts, fmt.Sprintf("component %d: need %d, have %d (short %d)",
			s.ComponentID, s.Needed, s.Available, s.Shortage))
	}
	err := newError(KindInsufficientStock, "order", int64(orderID),
		"insufficient stock: %s", strings.Join(parts, "; "))
	err.Shortages = shortages
	return err
}

// KindOf extracts the kind of an engine error, or "" for foreign errors
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
