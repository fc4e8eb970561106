package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation is returned when a request body is malformed.
	ErrValidation = errors.New("invalid request")
	// ErrUserAlreadyExists is returned when signing up with a taken username.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned for an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingCredential is returned when a protected request carries no session.
	ErrMissingCredential = errors.New("not authenticated")
	// ErrInvalidCredential is returned when a session token is malformed, expired or revoked.
	ErrInvalidCredential = errors.New("invalid token")
	// ErrForbidden is returned when an authenticated user touches another user's records.
	ErrForbidden = errors.New("forbidden")
	// ErrSheetNotFound is returned when a sheet does not exist.
	ErrSheetNotFound = errors.New("sheet not found")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Message: e.Message,
		Code:    e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything unrecognised is
// treated as a store failure and reported without detail.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrUserAlreadyExists):
		return NewHTTPError(http.StatusBadRequest, ErrUserAlreadyExists.Error(), "USER_ALREADY_EXISTS")
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_FAILED")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrMissingCredential):
		return NewHTTPError(http.StatusUnauthorized, ErrMissingCredential.Error(), "NOT_AUTHENTICATED")
	case errors.Is(err, ErrInvalidCredential):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredential.Error(), "INVALID_TOKEN")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, ErrForbidden.Error(), "FORBIDDEN")
	case errors.Is(err, ErrSheetNotFound):
		return NewHTTPError(http.StatusNotFound, ErrSheetNotFound.Error(), "SHEET_NOT_FOUND")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
