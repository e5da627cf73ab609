package sim

import "errors"

var (
	// ErrInvalidTime reports an event scheduled before the current time.
	ErrInvalidTime = errors.New("sim: cannot schedule event in the past")

	// ErrDeadlock reports that the event list drained while the stop
	// condition was still false.
	ErrDeadlock = errors.New("sim: no more events before stop condition")

	// ErrNoHandler reports an event without a handler.
	ErrNoHandler = errors.New("sim: event has no handler")
)
