// Package errors provides the application error taxonomy.
package errors

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// APIError represents a structured application error that maps onto an HTTP
// response. Services return it as a value; the handler layer renders it.
type APIError struct {
	HTTPStatus int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Predefined errors
var (
	ErrBadRequest        = &APIError{HTTPStatus: http.StatusBadRequest, Code: "BAD_REQUEST", Message: "Invalid request parameters"}
	ErrInvalidJSON       = &APIError{HTTPStatus: http.StatusBadRequest, Code: "INVALID_JSON", Message: "Invalid JSON format"}
	ErrValidation        = &APIError{HTTPStatus: http.StatusBadRequest, Code: "VALIDATION_FAILED", Message: "Validation failed"}
	ErrDuplicateResource = &APIError{HTTPStatus: http.StatusConflict, Code: "DUPLICATE_RESOURCE", Message: "Resource already exists"}
	ErrResourceNotFound  = &APIError{HTTPStatus: http.StatusNotFound, Code: "NOT_FOUND", Message: "Resource not found"}
	ErrInternalServer    = &APIError{HTTPStatus: http.StatusInternalServerError, Code: "INTERNAL_SERVER_ERROR", Message: "Internal server error"}
	ErrDatabase          = &APIError{HTTPStatus: http.StatusInternalServerError, Code: "DATABASE_ERROR", Message: "Database operation failed"}
	ErrUnauthorized      = &APIError{HTTPStatus: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "Authentication required"}
	ErrForbidden         = &APIError{HTTPStatus: http.StatusForbidden, Code: "FORBIDDEN", Message: "Access denied"}
	ErrBadGateway        = &APIError{HTTPStatus: http.StatusBadGateway, Code: "BAD_GATEWAY", Message: "Upstream service error"}

	// AI provider dispatch errors. The two cases are deliberately distinct so
	// callers can tell "nothing is configured" from "the requested backend is
	// not available".
	ErrNoProviderConfigured = &APIError{HTTPStatus: http.StatusServiceUnavailable, Code: "NO_PROVIDER_CONFIGURED", Message: "No AI provider is configured"}
	ErrProviderUnavailable  = &APIError{HTTPStatus: http.StatusServiceUnavailable, Code: "PROVIDER_UNAVAILABLE", Message: "The requested AI provider is not available"}

	// ErrConnectionTest covers a failed live connection test during site creation.
	ErrConnectionTest = &APIError{HTTPStatus: http.StatusBadRequest, Code: "CONNECTION_TEST_FAILED", Message: "Failed to connect to the WordPress site"}

	// ErrCredentialAccess is returned when a stored credential cannot be
	// decrypted. The message is deliberately generic; cryptographic detail is
	// logged server-side only.
	ErrCredentialAccess = &APIError{HTTPStatus: http.StatusInternalServerError, Code: "CREDENTIAL_ACCESS_FAILED", Message: "Failed to access stored credential"}
)

// NewAPIError creates a new APIError based on a predefined error with a custom message.
func NewAPIError(base *APIError, message string) *APIError {
	return &APIError{
		HTTPStatus: base.HTTPStatus,
		Code:       base.Code,
		Message:    message,
	}
}

// NewAPIErrorWithUpstream creates an APIError from an upstream response.
func NewAPIErrorWithUpstream(httpStatus int, code string, message string) *APIError {
	return &APIError{
		HTTPStatus: httpStatus,
		Code:       code,
		Message:    message,
	}
}

// NewValidationError creates a validation error with a custom message.
func NewValidationError(message string) *APIError {
	return NewAPIError(ErrValidation, message)
}

// NewAuthenticationError creates an authentication error with a custom message.
func NewAuthenticationError(message string) *APIError {
	return NewAPIError(ErrUnauthorized, message)
}

// NewNotFoundError creates a not found error with a custom message.
func NewNotFoundError(message string) *APIError {
	return NewAPIError(ErrResourceNotFound, message)
}

// ParseDBError maps database driver errors onto the API error taxonomy.
// Returns nil when the error is not a recognized database error, so callers
// can fall through to generic handling.
func ParseDBError(err error) *APIError {
	if err == nil {
		return nil
	}

	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return ErrResourceNotFound
	}

	var mysqlErr *mysql.MySQLError
	if stderrors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1062:
			return ErrDuplicateResource
		default:
			return ErrDatabase
		}
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicateResource
		case "23503":
			return ErrBadRequest
		default:
			return ErrDatabase
		}
	}

	// SQLite reports constraint violations as plain error strings.
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint violation") {
		return ErrDuplicateResource
	}
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "no such table") {
		return ErrDatabase
	}

	return nil
}
