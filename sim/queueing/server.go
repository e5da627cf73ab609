package queueing

import (
	"fmt"
	"strconv"

	"github.com/sarchlab/simlab/sim/hooking"
)

// ServerState is the occupancy of a Server.
type ServerState int

// Server states.
const (
	Idle ServerState = iota
	Busy
)

func (s ServerState) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Busy:
		return "BUSY"
	default:
		return "ServerState(" + strconv.Itoa(int(s)) + ")"
	}
}

// ServiceTaskKind is the task kind a Server reports to its hooks.
const ServiceTaskKind = "service"

// A Server is a single-capacity resource such as a transmission link or a
// circuit. It reports each item it holds as a task, so a BusyTimeTracer
// attached to it measures its utilization.
type Server[T any] struct {
	hooking.HookableBase

	name      string
	state     ServerState
	item      T
	taskSeq   uint64
	numServed uint64
}

// NewServer creates an idle server.
func NewServer[T any](name string) *Server[T] {
	return &Server[T]{name: name}
}

// Name returns the name of the server.
func (s *Server[T]) Name() string {
	return s.name
}

// State returns whether the server holds an item.
func (s *Server[T]) State() ServerState {
	return s.state
}

// Put attaches an item to an idle server.
func (s *Server[T]) Put(item T) error {
	if s.state == Busy {
		return fmt.Errorf("%w: put on %s", ErrResourceBusy, s.name)
	}

	s.item = item
	s.state = Busy
	s.taskSeq++

	if s.NumHooks() > 0 {
		s.InvokeHook(hooking.HookCtx{
			Domain: s,
			Pos:    hooking.HookPosTaskStart,
			Item: hooking.TaskStart{
				ID:    s.taskID(),
				Kind:  ServiceTaskKind,
				What:  fmt.Sprintf("%T", item),
				Where: s.name,
			},
		})
	}

	return nil
}

// Get detaches and returns the item of a busy server.
func (s *Server[T]) Get() (T, error) {
	var zero T

	if s.state == Idle {
		return zero, fmt.Errorf("%w: get from %s", ErrResourceIdle, s.name)
	}

	item := s.item
	s.item = zero
	s.state = Idle
	s.numServed++

	if s.NumHooks() > 0 {
		s.InvokeHook(hooking.HookCtx{
			Domain: s,
			Pos:    hooking.HookPosTaskEnd,
			Item:   hooking.TaskEnd{ID: s.taskID()},
		})
	}

	return item, nil
}

// Peek returns the item in service, if any.
func (s *Server[T]) Peek() (T, bool) {
	return s.item, s.state == Busy
}

// NumServed returns how many items have left the server.
func (s *Server[T]) NumServed() uint64 {
	return s.numServed
}

func (s *Server[T]) taskID() string {
	return s.name + "#" + strconv.FormatUint(s.taskSeq, 10)
}
