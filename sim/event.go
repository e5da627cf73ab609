package sim

// VTimeInSec is a point in simulated time, in seconds.
type VTimeInSec float64

// EventID identifies a scheduled event. IDs follow scheduling order and start
// at 1 for every engine.
type EventID uint64

// An Event is something going to happen in the future.
//
// Concrete events are plain structs that embed *EventBase and carry their own
// typed payload. The handler type-switches on the concrete event type.
type Event interface {
	// Time returns the time that the event should happen.
	Time() VTimeInSec

	// Handler returns the handler that handles the event.
	Handler() Handler
}

// EventBase provides the time and handler of an event.
type EventBase struct {
	time    VTimeInSec
	handler Handler
}

// NewEventBase creates a new EventBase.
func NewEventBase(t VTimeInSec, handler Handler) *EventBase {
	return &EventBase{
		time:    t,
		handler: handler,
	}
}

// Time returns the time that the event is going to happen.
func (e EventBase) Time() VTimeInSec {
	return e.time
}

// Handler returns the handler to handle the event.
func (e EventBase) Handler() Handler {
	return e.handler
}

// A Handler reacts to the events scheduled for it. A returned error stops
// the run that is dispatching the event.
type Handler interface {
	Handle(e Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(e Event) error

// Handle calls f(e).
func (f HandlerFunc) Handle(e Event) error {
	return f(e)
}

// Named is implemented by handlers and resources that have a name.
type Named interface {
	Name() string
}
