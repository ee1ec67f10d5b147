package crossref

import (
	"errors"
	"fmt"
)

// Common errors returned by the Crossref client.
var (
	// ErrNotFound indicates no work matched the DOI or query.
	ErrNotFound = errors.New("not found in Crossref")

	// ErrRateLimited indicates retries were exhausted on 429 responses.
	ErrRateLimited = errors.New("Crossref rate limit exceeded")

	// ErrInvalidResponse indicates an unexpected API response body.
	ErrInvalidResponse = errors.New("invalid response from Crossref")
)

// APIError represents a non-retryable error status from the Crossref API.
type APIError struct {
	StatusCode int
	Message    string
	DOI        string // For context in DOI lookups
}

func (e *APIError) Error() string {
	if e.DOI != "" {
		return fmt.Sprintf("Crossref API error (status %d): %s (doi: %s)", e.StatusCode, e.Message, e.DOI)
	}
	return fmt.Sprintf("Crossref API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
