/**
 * @description
 * Error taxonomy for the application services. Every failure a handler can see is
 * either a `ServiceError` with a machine-readable kind, or an unexpected internal
 * error. The kinds map one-to-one onto HTTP statuses in the API layer, so callers
 * can always distinguish caller errors, conflicts, exhausted balances, missing
 * records and detected invariant violations.
 */

package app

import "errors"

// ErrorKind classifies a service failure.
type ErrorKind string

const (
	// KindValidation marks malformed or out-of-domain input. Never retried.
	KindValidation ErrorKind = "validation"
	// KindConflict marks duplicate idempotency keys, illegal state transitions
	// and other requests the caller must change before retrying.
	KindConflict ErrorKind = "conflict"
	// KindInsufficientTokens marks a balance too low for the requested debit.
	KindInsufficientTokens ErrorKind = "insufficient_tokens"
	// KindNotFound marks a referenced id that does not exist.
	KindNotFound ErrorKind = "not_found"
	// KindUnauthorized marks failed credential checks.
	KindUnauthorized ErrorKind = "unauthorized"
	// KindIntegrity marks a detected invariant violation, e.g. a cached balance
	// that disagrees with the transaction log. Fatal for the record; surfaced for
	// operator intervention, never silently patched.
	KindIntegrity ErrorKind = "integrity"
)

// ServiceError is a classified, user-presentable failure.
type ServiceError struct {
	Kind    ErrorKind
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewValidationError(msg string) error { return &ServiceError{Kind: KindValidation, Message: msg} }
func NewConflictError(msg string) error   { return &ServiceError{Kind: KindConflict, Message: msg} }
func NewNotFoundError(msg string) error   { return &ServiceError{Kind: KindNotFound, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Kind: KindUnauthorized, Message: msg}
}
func NewInsufficientTokensError(msg string) error {
	return &ServiceError{Kind: KindInsufficientTokens, Message: msg}
}
func NewIntegrityError(msg string) error { return &ServiceError{Kind: KindIntegrity, Message: msg} }

// AsServiceError unwraps err into a *ServiceError when possible.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
