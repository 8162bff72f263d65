package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication and identity errors
	ErrAuthFailed      = fmt.Errorf("authentication failed")
	ErrAccountDisabled = fmt.Errorf("account disabled")
	ErrNotLoggedIn     = fmt.Errorf("not logged in")
	ErrTokenExpired    = fmt.Errorf("credential expired")

	// Catalog account errors
	ErrNotConnected   = fmt.Errorf("catalog account not connected")
	ErrSessionExpired = fmt.Errorf("catalog session expired")
	ErrTokenMismatch  = fmt.Errorf("request token mismatch")
	ErrDenied         = fmt.Errorf("authorization denied")

	// API and service errors
	ErrAPIRequest = fmt.Errorf("API request failed")
	ErrNotFound   = fmt.Errorf("not found")
	ErrTimeout    = fmt.Errorf("operation timed out")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
