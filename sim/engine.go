package sim

import "github.com/sarchlab/simlab/sim/hooking"

// HookPosBeforeEvent is a hook position that triggers before handling an
// event. The hook item is the event.
var HookPosBeforeEvent = &hooking.HookPos{Name: "BeforeEvent"}

// HookPosAfterEvent is a hook position that triggers after handling an event.
var HookPosAfterEvent = &hooking.HookPos{Name: "AfterEvent"}

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	TimeTeller

	// Schedule adds an event to the event list. It fails with
	// ErrInvalidTime if the event is earlier than the current time.
	Schedule(e Event) (EventID, error)
}

// A StopCondition is checked before the first event and after every event.
// The run ends as soon as it returns true.
type StopCondition func() bool

// An Engine drives a discrete event simulation run.
type Engine interface {
	hooking.Hookable
	EventScheduler

	// Run processes events until the event list is empty.
	Run() error

	// RunUntil processes events until stop returns true. It returns
	// ErrDeadlock if the event list drains first.
	RunUntil(stop StopCondition) error
}
