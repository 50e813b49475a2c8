package notion

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingCredential indicates that a request was attempted without an integration token.
	ErrMissingCredential = errors.New("notion credential is required")
	// ErrUnauthorized matches API responses that rejected the credential.
	ErrUnauthorized = errors.New("notion authorization failed")
	// ErrNotFound matches API responses for objects that do not exist or are not shared with the integration.
	ErrNotFound = errors.New("notion object not found")
	// ErrInvalidPageID indicates input that does not contain a 32 character page id.
	ErrInvalidPageID = errors.New("input does not contain a notion page id")

	errMissingObjectID = errors.New("notion object id is required")
)

// APIError describes a non-successful response from the Notion API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error returns the error string.
func (apiError *APIError) Error() string {
	if apiError.Code == "" {
		return fmt.Sprintf("notion api status %d: %s", apiError.StatusCode, apiError.Message)
	}
	return fmt.Sprintf("notion api status %d (%s): %s", apiError.StatusCode, apiError.Code, apiError.Message)
}

// Is reports whether the response corresponds to one of the package sentinel errors.
func (apiError *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return apiError.StatusCode == http.StatusUnauthorized || apiError.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return apiError.StatusCode == http.StatusNotFound
	default:
		return false
	}
}
