package sim

import (
	"fmt"
	"math"
	"reflect"

	"github.com/sarchlab/simlab/sim/hooking"
)

// A SerialEngine runs events one after another on the calling goroutine. It
// owns the simulation clock and the event list of a single run.
type SerialEngine struct {
	hooking.HookableBase

	time       VTimeInSec
	queue      EventQueue
	numHandled uint64
}

// NewSerialEngine creates a SerialEngine with its clock at 0.
func NewSerialEngine() *SerialEngine {
	return &SerialEngine{
		queue: NewEventQueue(),
	}
}

// WithQueue replaces the event list implementation. It must be called before
// any event is scheduled.
func (e *SerialEngine) WithQueue(q EventQueue) *SerialEngine {
	if e.queue.Len() > 0 {
		panic("cannot replace a non-empty event queue")
	}

	e.queue = q

	return e
}

// Schedule registers an event to happen in the future. Scheduling earlier
// than the current time fails with ErrInvalidTime and leaves the event list
// untouched.
func (e *SerialEngine) Schedule(evt Event) (EventID, error) {
	t := evt.Time()
	if math.IsNaN(float64(t)) || t < e.time {
		return 0, fmt.Errorf("%w: evt %s @ %.10f, now %.10f",
			ErrInvalidTime, reflect.TypeOf(evt), t, e.time)
	}

	return e.queue.Push(evt), nil
}

// Run processes all the events scheduled in the SerialEngine.
func (e *SerialEngine) Run() error {
	return e.RunUntil(nil)
}

// RunUntil processes events until stop returns true. A nil stop runs until
// the event list is empty.
func (e *SerialEngine) RunUntil(stop StopCondition) error {
	for {
		if stop != nil && stop() {
			return nil
		}

		if e.queue.IsEmpty() {
			if stop == nil {
				return nil
			}

			return fmt.Errorf("%w: drained at %.10f after %d events",
				ErrDeadlock, e.time, e.numHandled)
		}

		if err := e.handleNext(); err != nil {
			return err
		}
	}
}

func (e *SerialEngine) handleNext() error {
	evt := e.queue.Pop()
	e.time = evt.Time()

	handler := evt.Handler()
	if handler == nil {
		return fmt.Errorf("%w: evt %s @ %.10f",
			ErrNoHandler, reflect.TypeOf(evt), evt.Time())
	}

	hookCtx := hooking.HookCtx{
		Domain: e,
		Pos:    HookPosBeforeEvent,
		Item:   evt,
	}
	e.InvokeHook(hookCtx)

	err := handler.Handle(evt)
	e.numHandled++

	hookCtx.Pos = HookPosAfterEvent
	e.InvokeHook(hookCtx)

	if err != nil {
		return fmt.Errorf("handling %s @ %.10f: %w",
			reflect.TypeOf(evt), evt.Time(), err)
	}

	return nil
}

// CurrentTime returns the time of the event being handled, or of the last
// handled event between runs.
func (e *SerialEngine) CurrentTime() VTimeInSec {
	return e.time
}

// Now returns the current time as a float64, for tracers.
func (e *SerialEngine) Now() float64 {
	return float64(e.time)
}

// NumEventsHandled returns how many events have been dispatched.
func (e *SerialEngine) NumEventsHandled() uint64 {
	return e.numHandled
}

// NumPendingEvents returns how many events wait in the event list.
func (e *SerialEngine) NumPendingEvents() int {
	return e.queue.Len()
}
