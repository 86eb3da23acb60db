package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

// NewCorrelationFailed marks an inbound email that could not be matched to
// a ticket. Handlers acknowledge it as a no-op rather than bouncing.
func NewCorrelationFailed(reason string) error {
	return NewDomainError("CORRELATION_FAILED", reason, http.StatusNotFound, nil)
}

// NewSenderMismatch marks an inbound email whose sender is not the
// ticket's registered address.
func NewSenderMismatch(got, want string) error {
	return NewDomainError("SENDER_MISMATCH", "sender does not match ticket email", http.StatusForbidden,
		map[string]any{"from": got, "registered": want})
}

// NewEmptyReply marks an inbound email with no usable content after
// quote stripping.
func NewEmptyReply() error {
	return NewDomainError("EMPTY_REPLY", "reply contains no new content", http.StatusUnprocessableEntity, nil)
}

// NewDeliveryFailure wraps a failed notification send. The mutation that
// triggered the notification stands; only the send is reported.
func NewDeliveryFailure(err error) error {
	return &DomainError{
		Code:       "DELIVERY_FAILURE",
		Message:    "notification delivery failed",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewPartialDeleteFailure wraps a cascading delete that aborted before the
// ticket document was removed. Surfaced as fatal so the caller retries.
func NewPartialDeleteFailure(err error) error {
	return &DomainError{
		Code:       "PARTIAL_DELETE_FAILURE",
		Message:    "ticket close aborted before completion",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsCode reports whether err carries the given domain error code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}
