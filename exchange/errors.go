package exchange

import "errors"

var (
	// ErrConfigNil indicates that a nil Config was provided.
	ErrConfigNil = errors.New("exchange: config is nil")

	// ErrListenerClosed indicates that the listener socket has been closed.
	ErrListenerClosed = errors.New("exchange: listener closed")
)
