// Package apierror provides standardized error types and response structures
// for the API. All errors returned to clients go through this package to ensure
// consistency and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error so handlers can map it to an HTTP status
// without string matching.
type Kind int

const (
	KindInternal Kind = iota
	// KindValidation: bad quantity/percent/amount — rejected before any side effect.
	KindValidation
	// KindNotFound: shift/receipt/method/original receipt does not exist.
	KindNotFound
	// KindConflict: shift already open, receipt or return already terminal.
	KindConflict
	// KindInsufficientFunds: cash tender below final amount, or a settlement
	// above the chosen method's balance.
	KindInsufficientFunds
	// KindMethodUnavailable: payment method disabled or not assigned to the register.
	KindMethodUnavailable
	// KindConcurrentModification: the receipt changed between read and pay.
	KindConcurrentModification
)

// Error is a classified domain error. Services return these; the handler layer
// maps Kind to an HTTP status via Status().
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string { return e.Detail }

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...interface{}) *Error {
	return newf(KindValidation, format, args...)
}

func NotFoundf(format string, args ...interface{}) *Error {
	return newf(KindNotFound, format, args...)
}

func Conflictf(format string, args ...interface{}) *Error {
	return newf(KindConflict, format, args...)
}

func InsufficientFundsf(format string, args ...interface{}) *Error {
	return newf(KindInsufficientFunds, format, args...)
}

func MethodUnavailablef(format string, args ...interface{}) *Error {
	return newf(KindMethodUnavailable, format, args...)
}

func ConcurrentModificationf(format string, args ...interface{}) *Error {
	return newf(KindConcurrentModification, format, args...)
}

// KindOf extracts the Kind from err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Status maps an error to its HTTP status code.
// Validation is 400, missing resources 404, state conflicts (terminal status,
// duplicate open shift, stale version) 409, funds/method problems 422.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindConcurrentModification:
		return http.StatusConflict
	case KindInsufficientFunds, KindMethodUnavailable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation error", Fields: fields}
}
