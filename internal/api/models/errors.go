package models

import (
	"net/http"

	"github.com/PxPatel/trading-system/internal/kernelerr"
)

// ErrorCode mirrors kernelerr.Kind plus a couple of transport-only codes
// (bad JSON, missing fields) that never reach the kernel.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrUnknownMarket      ErrorCode = "UNKNOWN_MARKET"
	ErrUnknownToken       ErrorCode = "UNKNOWN_TOKEN"
	ErrInvalidPrice       ErrorCode = "INVALID_PRICE"
	ErrInvalidSize        ErrorCode = "INVALID_SIZE"
	ErrInvalidOrder       ErrorCode = "INVALID_ORDER"
	ErrInsufficientFunds  ErrorCode = "INSUFFICIENT_FUNDS"
	ErrInsufficientLiquid ErrorCode = "INSUFFICIENT_LIQUIDITY"
	ErrNotFound           ErrorCode = "NOT_FOUND"
	ErrNotOwner           ErrorCode = "NOT_OWNER"
	ErrNotCancellable     ErrorCode = "NOT_CANCELLABLE"
	ErrAlreadyExists      ErrorCode = "ALREADY_EXISTS"
	ErrInternalError      ErrorCode = "INTERNAL_ERROR"
)

// APIError represents a structured error response.
type APIError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HTTPError wraps an APIError with an HTTP status code.
type HTTPError struct {
	StatusCode int
	Error      APIError
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, code ErrorCode, message string, details map[string]interface{}) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Error:      APIError{Code: code, Message: message, Details: details},
	}
}

func ErrBadRequest(message string, details map[string]interface{}) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, ErrInvalidRequest, message, details)
}

func ErrUnauthorizedRequest(message string) *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, ErrUnauthorized, message, nil)
}

func ErrInternal(message string) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, ErrInternalError, message, nil)
}

var kindToCode = map[kernelerr.Kind]struct {
	status int
	code   ErrorCode
}{
	kernelerr.UnknownMarket:         {http.StatusNotFound, ErrUnknownMarket},
	kernelerr.UnknownToken:          {http.StatusNotFound, ErrUnknownToken},
	kernelerr.InvalidPrice:          {http.StatusBadRequest, ErrInvalidPrice},
	kernelerr.InvalidSize:           {http.StatusBadRequest, ErrInvalidSize},
	kernelerr.InvalidOrder:          {http.StatusBadRequest, ErrInvalidOrder},
	kernelerr.InsufficientFunds:     {http.StatusUnprocessableEntity, ErrInsufficientFunds},
	kernelerr.InsufficientLiquidity: {http.StatusUnprocessableEntity, ErrInsufficientLiquid},
	kernelerr.NotFound:              {http.StatusNotFound, ErrNotFound},
	kernelerr.NotOwner:              {http.StatusForbidden, ErrNotOwner},
	kernelerr.NotCancellable:        {http.StatusConflict, ErrNotCancellable},
	kernelerr.AlreadyExists:         {http.StatusConflict, ErrAlreadyExists},
	kernelerr.InvariantViolation:    {http.StatusInternalServerError, ErrInternalError},
	kernelerr.InternalError:         {http.StatusInternalServerError, ErrInternalError},
}

// FromKernelError maps a kernelerr.KernelError to its HTTP representation.
// Any error that isn't a KernelError is treated as an internal error.
func FromKernelError(err error) *HTTPError {
	kind := kernelerr.KindOf(err)
	mapped, ok := kindToCode[kind]
	if !ok {
		mapped = kindToCode[kernelerr.InternalError]
	}
	return NewHTTPError(mapped.status, mapped.code, err.Error(), nil)
}
