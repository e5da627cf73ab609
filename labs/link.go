package labs

import (
	"github.com/sarchlab/simlab/sim"
	"github.com/sarchlab/simlab/sim/hooking"
	"github.com/sarchlab/simlab/sim/queueing"
)

// A Packet is a unit of work that crosses links.
type Packet struct {
	ID          string
	Source      int
	ArrivalTime sim.VTimeInSec
	ServiceTime float64
	Status      ItemStatus
	Collisions  int
}

// A Link is a single-capacity transmitter with its own buffer.
type Link struct {
	name   string
	buffer *queueing.FifoQueue[*Packet]
	server *queueing.Server[*Packet]
}

// NewLink creates an idle link with an empty buffer.
func NewLink(name string) *Link {
	return &Link{
		name:   name,
		buffer: queueing.NewFifoQueue[*Packet](name + ".Buffer"),
		server: queueing.NewServer[*Packet](name),
	}
}

// Name returns the name of the link.
func (l *Link) Name() string {
	return l.name
}

// Buffer returns the queue of waiting packets.
func (l *Link) Buffer() *queueing.FifoQueue[*Packet] {
	return l.buffer
}

// Server returns the transmitter.
func (l *Link) Server() *queueing.Server[*Packet] {
	return l.server
}

// Offer hands a packet to the link. The packet starts transmitting if the
// link is idle and waits in the buffer otherwise.
func (l *Link) Offer(p *Packet) (started bool, err error) {
	if l.server.State() == queueing.Busy {
		p.Status = Waiting
		l.buffer.Put(p)

		return false, nil
	}

	if err := l.server.Put(p); err != nil {
		return false, err
	}

	p.Status = InService

	return true, nil
}

// Finish ends the current transmission. It returns the packet that left
// and, if the buffer was not empty, the packet that started next.
func (l *Link) Finish() (done, next *Packet, err error) {
	done, err = l.server.Get()
	if err != nil {
		return nil, nil, err
	}

	if l.buffer.Size() == 0 {
		return done, nil, nil
	}

	next, err = l.buffer.Get()
	if err != nil {
		return done, nil, err
	}

	if err := l.server.Put(next); err != nil {
		return done, nil, err
	}

	next.Status = InService

	return done, next, nil
}

// TraceUtilization attaches a busy-time tracer to the transmitter.
func (l *Link) TraceUtilization(t hooking.TimeTeller) *hooking.BusyTimeTracer {
	tracer := hooking.NewBusyTimeTracer(t, nil)
	l.server.AcceptHook(tracer)

	return tracer
}

// DepartureEvent marks the end of a transmission on a link.
type DepartureEvent struct {
	*sim.EventBase
	Link *Link
}

// NewDepartureEvent creates a DepartureEvent.
func NewDepartureEvent(
	t sim.VTimeInSec,
	handler sim.Handler,
	link *Link,
) *DepartureEvent {
	return &DepartureEvent{
		EventBase: sim.NewEventBase(t, handler),
		Link:      link,
	}
}

// ArrivalEvent marks a packet arriving from a Poisson source.
type ArrivalEvent struct {
	*sim.EventBase
	Source int
}

// NewArrivalEvent creates an ArrivalEvent.
func NewArrivalEvent(
	t sim.VTimeInSec,
	handler sim.Handler,
	source int,
) *ArrivalEvent {
	return &ArrivalEvent{
		EventBase: sim.NewEventBase(t, handler),
		Source:    source,
	}
}
