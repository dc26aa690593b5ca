package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies failures across the auction engine
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeInvalidState ErrorType = "invalid_state"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeBelowMinimum ErrorType = "below_minimum"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeDownstream   ErrorType = "downstream"
	ErrorTypeInternal     ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"status_code"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Error constructors

func NewValidationError(code, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		Retryable:  false,
		StatusCode: 400,
	}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       "RESOURCE_NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		Retryable:  false,
		StatusCode: 404,
	}
}

func NewInvalidStateError(code, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidState,
		Code:       code,
		Message:    message,
		Retryable:  false,
		StatusCode: 422,
	}
}

func NewForbiddenError(code, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		Retryable:  false,
		StatusCode: 403,
	}
}

// NewBelowMinimumError reports a bid under the minimum acceptable amount.
// The minimum travels in Details so a client can immediately retry with a
// valid value.
func NewBelowMinimumError(minimum fmt.Stringer) *AppError {
	return &AppError{
		Type:       ErrorTypeBelowMinimum,
		Code:       "BID_BELOW_MINIMUM",
		Message:    fmt.Sprintf("bid amount is below the minimum acceptable amount of %s", minimum),
		Details:    map[string]interface{}{"minimum_acceptable": minimum.String()},
		Retryable:  false,
		StatusCode: 422,
	}
}

// NewTransientConflictError reports concurrent-write contention; the caller
// may retry the whole operation.
func NewTransientConflictError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       "TRANSIENT_CONFLICT",
		Message:    message,
		Retryable:  true,
		StatusCode: 409,
	}
}

// NewDownstreamError reports a collaborator failure (order service, mailer)
func NewDownstreamError(service, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeDownstream,
		Code:       "DOWNSTREAM_FAILURE",
		Message:    fmt.Sprintf("%s: %s", service, message),
		Details:    map[string]interface{}{"service": service},
		Retryable:  true,
		StatusCode: 502,
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Retryable:  true,
		StatusCode: 500,
	}
}

// Predefined common errors
var (
	ErrItemNotFound     = NewNotFoundError("item")
	ErrBidNotFound      = NewNotFoundError("bid")
	ErrUserNotFound     = NewNotFoundError("user")
	ErrItemNotAuctioned = NewInvalidStateError("ITEM_NOT_AUCTIONABLE", "item is not sold at auction")
	ErrItemNotPublished = NewInvalidStateError("ITEM_NOT_PUBLISHED", "item is not published")
	ErrSelfBid          = NewForbiddenError("SELF_BID", "sellers cannot bid on their own items")
	ErrAuctionSealed    = NewInvalidStateError("AUCTION_SEALED", "auction has already been finalized")
)

// Wrap wraps an error with a message using fmt.Errorf with %w
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// GetStatusCode extracts HTTP status code from error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return 500
}
