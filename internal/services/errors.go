package services

import "errors"

// Failure taxonomy for the design workflow. Handlers map these to HTTP
// status codes with errors.Is.
var (
	// ErrValidation indicates a missing or malformed required input
	ErrValidation = errors.New("validation failure")
	// ErrNotFound indicates the referenced room does not exist
	ErrNotFound = errors.New("room not found")
	// ErrStorage indicates a media or database write failed
	ErrStorage = errors.New("storage failure")
	// ErrUpstreamUnavailable indicates the external AI or chat service is
	// unreachable or timed out
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)
