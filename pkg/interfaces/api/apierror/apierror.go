// Package apierror provides the error envelope of every 4xx/5xx response and
// the mapping from engine error kinds to HTTP status codes.
package apierror

import (
	"errors"
	"net/http"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail    string              `json:"detail"`
	Kind      string              `json:"kind,omitempty"`
	Shortages []entities.Shortage `json:"shortages,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Kind   string            `json:"kind"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "request validation failed", Kind: string(entities.KindValidation), Fields: fields}
}

// StatusFor maps an engine error kind to its HTTP status
func StatusFor(kind entities.ErrorKind) int {
	switch kind {
	case entities.KindValidation:
		return http.StatusBadRequest
	case entities.KindNotFound:
		return http.StatusNotFound
	case entities.KindConflict, entities.KindInvalidState, entities.KindInsufficientStock:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FromError builds the response for err. Integrity and foreign errors are not
// described to the client; ok is false for them so the caller can log the cause.
func FromError(err error) (status int, body *APIError, ok bool) {
	var e *entities.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, New("internal server error"), false
	}
	if e.Kind == entities.KindIntegrity {
		return http.StatusInternalServerError, &APIError{Detail: "internal consistency error", Kind: string(e.Kind)}, false
	}
	return StatusFor(e.Kind), &APIError{Detail: e.Error(), Kind: string(e.Kind), Shortages: e.Shortages}, true
}
