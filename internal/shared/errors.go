package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrNoBackends         = fmt.Errorf("no backends enabled")

	// Resolution errors
	ErrNotFound              = fmt.Errorf("no match above threshold")
	ErrTrackNotFound         = fmt.Errorf("track not found")
	ErrSourceUnreachable     = fmt.Errorf("source unreachable")
	ErrAllSourcesUnreachable = fmt.Errorf("all sources unreachable")
	ErrNotSupported          = fmt.Errorf("not supported by this backend")
	ErrServiceUnavailable    = fmt.Errorf("service unavailable")

	// Queue state signals
	ErrQueueEmpty = fmt.Errorf("queue empty")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
