package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrInvalidChoice   = fmt.Errorf("invalid choice")
	ErrEmptyURL        = fmt.Errorf("URL cannot be empty")
	ErrInvalidURL      = fmt.Errorf("invalid URL")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")

	// Service errors
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrSearchFailed       = fmt.Errorf("search failed")
	ErrExtractionFailed   = fmt.Errorf("extraction failed")
	ErrNoOutput           = fmt.Errorf("extractor produced no output")
	ErrBusy               = fmt.Errorf("a download is already running")

	// Storage errors
	ErrRecordNotFound = fmt.Errorf("record not found")
)
