package core

import "errors"

// Error taxonomy shared by the filters, the I/O layer and the orchestrator.
// Call sites wrap these with fmt.Errorf("%w: ...") so callers can classify
// failures with errors.Is.
var (
	// ErrInvalidInput covers empty buffers, wrong channel counts,
	// inconsistent dimensions and out-of-range parameters.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIOFailure covers decode, encode, open and write failures.
	ErrIOFailure = errors.New("io failure")

	// ErrUnsupportedMode is returned when an execution mode has no backend.
	ErrUnsupportedMode = errors.New("unsupported mode")

	// ErrConfig covers missing or contradictory run configuration.
	ErrConfig = errors.New("configuration error")
)
