package sim

import (
	"container/heap"
	"container/list"
)

// EventQueue holds pending events ordered by time. Events with equal times
// leave the queue in the order they entered it.
type EventQueue interface {
	// Push adds an event and returns the sequence number it was given.
	Push(evt Event) EventID

	// Pop removes and returns the earliest event, or nil if the queue is
	// empty.
	Pop() Event

	// Peek returns the earliest event without removing it, or nil if the
	// queue is empty.
	Peek() Event

	// Len returns the number of pending events.
	Len() int

	// IsEmpty tells whether no event is pending.
	IsEmpty() bool
}

type queuedEvent struct {
	evt Event
	seq EventID
}

func (e queuedEvent) before(o queuedEvent) bool {
	if e.evt.Time() != o.evt.Time() {
		return e.evt.Time() < o.evt.Time()
	}

	return e.seq < o.seq
}

// EventHeap is an EventQueue backed by a binary heap.
type EventHeap struct {
	events  eventHeap
	lastSeq EventID
}

// NewEventQueue creates the default EventQueue.
func NewEventQueue() *EventHeap {
	q := &EventHeap{}
	heap.Init(&q.events)

	return q
}

// Push adds an event to the event queue.
func (q *EventHeap) Push(evt Event) EventID {
	q.lastSeq++
	heap.Push(&q.events, queuedEvent{evt: evt, seq: q.lastSeq})

	return q.lastSeq
}

// Pop returns the next earliest event.
func (q *EventHeap) Pop() Event {
	if len(q.events) == 0 {
		return nil
	}

	return heap.Pop(&q.events).(queuedEvent).evt
}

// Peek returns the next earliest event without removing it.
func (q *EventHeap) Peek() Event {
	if len(q.events) == 0 {
		return nil
	}

	return q.events[0].evt
}

// Len returns the number of events in the queue.
func (q *EventHeap) Len() int {
	return len(q.events)
}

// IsEmpty tells whether the queue holds no event.
func (q *EventHeap) IsEmpty() bool {
	return len(q.events) == 0
}

type eventHeap []queuedEvent

func (h eventHeap) Len() int {
	return len(h)
}

func (h eventHeap) Less(i, j int) bool {
	return h[i].before(h[j])
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(queuedEvent))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	evt := old[n-1]
	old[n-1] = queuedEvent{}
	*h = old[0 : n-1]

	return evt
}

// InsertionQueue is an EventQueue kept sorted by insertion into a linked
// list. Pushing is linear in the queue length; popping is constant.
type InsertionQueue struct {
	l       *list.List
	lastSeq EventID
}

// NewInsertionQueue returns a new InsertionQueue.
func NewInsertionQueue() *InsertionQueue {
	return &InsertionQueue{l: list.New()}
}

// Push adds an event behind every queued event that is not later than it.
func (q *InsertionQueue) Push(evt Event) EventID {
	q.lastSeq++
	entry := queuedEvent{evt: evt, seq: q.lastSeq}

	// Scan from the back: new events usually land near the end.
	for ele := q.l.Back(); ele != nil; ele = ele.Prev() {
		if !entry.before(ele.Value.(queuedEvent)) {
			q.l.InsertAfter(entry, ele)
			return entry.seq
		}
	}

	q.l.PushFront(entry)

	return entry.seq
}

// Pop returns the event with the smallest time and removes it from the queue.
func (q *InsertionQueue) Pop() Event {
	front := q.l.Front()
	if front == nil {
		return nil
	}

	return q.l.Remove(front).(queuedEvent).evt
}

// Peek returns the event at the front of the queue without removing it.
func (q *InsertionQueue) Peek() Event {
	front := q.l.Front()
	if front == nil {
		return nil
	}

	return front.Value.(queuedEvent).evt
}

// Len returns the number of events in the queue.
func (q *InsertionQueue) Len() int {
	return q.l.Len()
}

// IsEmpty tells whether the queue holds no event.
func (q *InsertionQueue) IsEmpty() bool {
	return q.l.Len() == 0
}
