package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed = fmt.Errorf("authentication failed")
	ErrTimeout    = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest          = fmt.Errorf("API request failed")
	ErrServiceUnavailable  = fmt.Errorf("service unavailable")
	ErrOrganizationMissing = fmt.Errorf("organization not found")
	ErrTaskNotFound        = fmt.Errorf("task not found")
	ErrDecodeResponse      = fmt.Errorf("unable to decode response")

	// Task lifecycle errors
	ErrTaskInFlight      = fmt.Errorf("a manifest task is already pending")
	ErrTrackingActive    = fmt.Errorf("task tracking already active")
	ErrInvalidTask       = fmt.Errorf("invalid task handle")
	ErrCoordinatorClosed = fmt.Errorf("coordinator closed")
	ErrSubmissionFailed  = fmt.Errorf("submission failed")
	ErrTaskFailed        = fmt.Errorf("task did not succeed")
	ErrRefreshDisabled   = fmt.Errorf("manifest refresh unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
