// Package queueing provides the resources that event handlers use to model
// occupancy and backlog: single-capacity servers, unbounded FIFO queues and
// shared contention channels.
package queueing

import "errors"

var (
	// ErrResourceBusy reports a put on a server that already holds an item.
	ErrResourceBusy = errors.New("queueing: resource busy")

	// ErrResourceIdle reports a get on a server that holds nothing, or the
	// end of a transmission that is not on the channel.
	ErrResourceIdle = errors.New("queueing: resource idle")

	// ErrEmptyQueue reports a get or peek on an empty queue.
	ErrEmptyQueue = errors.New("queueing: empty queue")
)
