package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrAuthCancelled    = fmt.Errorf("sign-in cancelled")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrSignOutFailed    = fmt.Errorf("sign-out failed")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Store errors
	ErrRecordNotFound   = fmt.Errorf("preference record not found")
	ErrPreferenceUpdate = fmt.Errorf("preference update failed")
	ErrUnknownDriver    = fmt.Errorf("unknown store driver")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
