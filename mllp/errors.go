package mllp

import "errors"

var (
	// ErrMissingStartMarker indicates that a byte sequence terminated by the
	// MLLP end marker contains no start marker.
	ErrMissingStartMarker = errors.New("mllp: start marker not found")

	// ErrMissingEndMarker indicates that a byte sequence does not contain the
	// MLLP end marker.
	ErrMissingEndMarker = errors.New("mllp: end marker not found")

	// ErrIncompleteFrame indicates that the connection closed before a
	// complete frame was received. This is fatal for the session; partial
	// frames are never recovered.
	ErrIncompleteFrame = errors.New("mllp: connection closed before complete frame")

	// ErrFrameTooLarge indicates that the accumulated input exceeded the
	// reader's maximum frame size before the end marker was observed.
	ErrFrameTooLarge = errors.New("mllp: frame exceeds maximum size")
)
