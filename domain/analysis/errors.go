package analysis

import "errors"

var (
	// ErrInputNotFound is returned when a media path does not exist
	ErrInputNotFound = errors.New("input media not found")

	// ErrIO is returned when the decoder or encoder fails; the original cause is wrapped alongside it
	ErrIO = errors.New("media i/o failure")

	// ErrInvalidConfiguration is returned when a configuration value is out of range
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidSegment is returned when an interval violates 0 <= start < end
	ErrInvalidSegment = errors.New("invalid segment")
)
