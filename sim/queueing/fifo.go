package queueing

import (
	"fmt"

	"github.com/sarchlab/simlab/sim/hooking"
)

// HookPosBufPush marks when an element is pushed into a queue.
var HookPosBufPush = &hooking.HookPos{Name: "Buffer Push"}

// HookPosBufPop marks when an element is popped from a queue.
var HookPosBufPop = &hooking.HookPos{Name: "Buffer Pop"}

// A FifoQueue is an unbounded first-in-first-out holding area.
type FifoQueue[T any] struct {
	hooking.HookableBase

	name     string
	elements []T
	maxSize  int
}

// NewFifoQueue creates an empty queue.
func NewFifoQueue[T any](name string) *FifoQueue[T] {
	return &FifoQueue[T]{name: name}
}

// Name returns the name of the queue.
func (q *FifoQueue[T]) Name() string {
	return q.name
}

// Put appends an item to the back of the queue.
func (q *FifoQueue[T]) Put(item T) {
	q.elements = append(q.elements, item)
	q.maxSize = max(q.maxSize, len(q.elements))

	if q.NumHooks() > 0 {
		q.InvokeHook(hooking.HookCtx{
			Domain: q,
			Pos:    HookPosBufPush,
			Item:   item,
		})
	}
}

// Get removes and returns the item at the front of the queue.
func (q *FifoQueue[T]) Get() (T, error) {
	var zero T

	if len(q.elements) == 0 {
		return zero, fmt.Errorf("%w: get from %s", ErrEmptyQueue, q.name)
	}

	item := q.elements[0]
	q.elements[0] = zero
	q.elements = q.elements[1:]

	if q.NumHooks() > 0 {
		q.InvokeHook(hooking.HookCtx{
			Domain: q,
			Pos:    HookPosBufPop,
			Item:   item,
		})
	}

	return item, nil
}

// Peek returns the item at the front of the queue without removing it.
func (q *FifoQueue[T]) Peek() (T, error) {
	if len(q.elements) == 0 {
		var zero T
		return zero, fmt.Errorf("%w: peek at %s", ErrEmptyQueue, q.name)
	}

	return q.elements[0], nil
}

// Size returns the number of waiting items.
func (q *FifoQueue[T]) Size() int {
	return len(q.elements)
}

// MaxSize returns the largest size the queue has reached.
func (q *FifoQueue[T]) MaxSize() int {
	return q.maxSize
}
