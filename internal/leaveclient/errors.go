package leaveclient

import (
	"errors"
	"fmt"
	"net/http"

	"leave-portal/internal/shared/apperror"
)

var (
	ErrViewClosed     = errors.New("leaveclient: view closed, result discarded")
	ErrLoggedOut      = errors.New("leaveclient: session logged out")
	ErrActionInFlight = errors.New("leaveclient: an action on this request is already in flight")
	ErrNotInView      = errors.New("leaveclient: request is not part of this view")
)

// ValidationError carries field level messages. Fields may be empty when the
// server rejected the request as a whole.
type ValidationError struct {
	Code    string
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Fields)
}

// AuthorizationError is never retried automatically.
type AuthorizationError struct {
	Code    string
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

// StateConflictError means the request moved on; refresh before retrying.
type StateConflictError struct {
	Code    string
	Message string
}

func (e *StateConflictError) Error() string { return e.Message }

// TransportError covers unreachable servers, 5xx answers and bodies that do
// not decode. Retrying is safe since nothing changed locally.
type TransportError struct {
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("leave service unavailable (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("leave service unavailable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// classify maps an error status and envelope to the client taxonomy.
// 404 on a known request means the caller's view is stale.
func classify(status int, code, message string, fields map[string]string) error {
	switch {
	case status == http.StatusBadRequest:
		return &ValidationError{Code: code, Message: message, Fields: fields}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthorizationError{Code: code, Message: message}
	case status == http.StatusConflict || status == http.StatusNotFound:
		return &StateConflictError{Code: code, Message: message}
	default:
		return &TransportError{Status: status, Err: fmt.Errorf("%s: %s", code, message)}
	}
}

// fromLocal converts a refusal from the local pre-checks.
func fromLocal(err error) error {
	h := apperror.ToHTTP(err)
	var fields map[string]string
	if m, ok := h.Details.(map[string]string); ok {
		fields = m
	}
	return classify(h.Status, h.Code, h.Message, fields)
}
