package errors

import "errors"

// Configuration and run-control errors.
var (
	ErrMissingEndpoint    = errors.New("remote endpoint not configured")
	ErrMissingCredentials = errors.New("remote credentials not configured")
	ErrRunInProgress      = errors.New("sync run already in progress")
)

// Remote store errors.
var (
	ErrAPIRequest  = errors.New("API request failed")
	ErrAPIResponse = errors.New("unexpected API response")
	ErrNotFound    = errors.New("remote entity not found")
)
