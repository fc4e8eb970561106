package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is returned for a missing, invalid or rejected session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the session user does not own the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when the server has no such sheet.
	ErrNotFound = errors.New("not found")
	// ErrBadRequest is returned when the server rejects the payload.
	ErrBadRequest = errors.New("bad request")

	// ErrNotAuthenticated is returned by store operations that need a session.
	ErrNotAuthenticated = errors.New("not logged in")
	// ErrSheetNotLoaded is returned when a sheet is absent from the local copy.
	ErrSheetNotLoaded = errors.New("sheet not loaded")
	// ErrTransactionNotFound is returned when a sheet has no such transaction.
	ErrTransactionNotFound = errors.New("transaction not found")
)

// APIError is a non-2xx response from the cashbook API.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Code       string `json:"code"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
}

// Is lets callers match API failures with errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrBadRequest:
		return e.StatusCode == http.StatusBadRequest
	}
	return false
}
