// Package aloha simulates stations that contend for a shared channel with
// the unslotted ALOHA protocol. Overlapping transmissions collide and are
// retried after an exponential backoff. In reservation mode a short
// contention slot wins the packet a place on a separate data channel.
package aloha

import (
	"fmt"
	"math"
	"strconv"

	"github.com/sarchlab/simlab/labs"
	"github.com/sarchlab/simlab/sim"
	"github.com/sarchlab/simlab/sim/hooking"
	"github.com/sarchlab/simlab/sim/queueing"
)

// Name is the registry name of the lab.
const Name = "aloha"

// TagCollision is attached to a packet every time one of its transmissions
// collides.
const TagCollision = "collision"

var params = []labs.Param{
	{Name: "stations", Default: 10, Doc: "number of stations"},
	{Name: "arrivalRate", Default: 0.5, Doc: "packets per mean packet duration, all stations"},
	{Name: "meanPacketDuration", Default: 1, Doc: "mean transmission time"},
	{Name: "meanBackoff", Default: 10, Doc: "mean backoff after a collision"},
	{Name: "reservation", Default: 0, Doc: "1 contends with reservation slots and sends on a data channel"},
	{Name: "slotDuration", Default: 1, Doc: "length of a reservation slot"},
}

func init() {
	labs.Register(labs.Lab{
		Name:        Name,
		Description: "ALOHA stations on a shared channel, optionally with reservation",
		Params:      params,
		Run: func(m map[string]float64, opts labs.Options) (labs.Result, error) {
			p, err := FromMap(m)
			if err != nil {
				return labs.Result{}, err
			}

			return Run(p, opts)
		},
	})
}

// Params configures the lab.
type Params struct {
	Stations           int
	ArrivalRate        float64
	MeanPacketDuration float64
	MeanBackoff        float64
	Reservation        bool
	SlotDuration       float64
}

// Defaults returns the default parameters.
func Defaults() Params {
	p, _ := FromMap(nil)
	return p
}

// FromMap applies overrides to the defaults.
func FromMap(m map[string]float64) (Params, error) {
	v, err := labs.ResolveParams(params, m)
	if err != nil {
		return Params{}, err
	}

	err = labs.Positive(v, "stations", "arrivalRate", "meanPacketDuration",
		"meanBackoff", "slotDuration")
	if err != nil {
		return Params{}, err
	}

	if v["stations"] != math.Trunc(v["stations"]) {
		return Params{}, fmt.Errorf("%w: stations must be an integer, got %v",
			labs.ErrInvalidParam, v["stations"])
	}

	reservation, err := labs.Flag(v, "reservation")
	if err != nil {
		return Params{}, err
	}

	return Params{
		Stations:           int(v["stations"]),
		ArrivalRate:        v["arrivalRate"],
		MeanPacketDuration: v["meanPacketDuration"],
		MeanBackoff:        v["meanBackoff"],
		Reservation:        reservation,
		SlotDuration:       v["slotDuration"],
	}, nil
}

type txStartEvent struct {
	*sim.EventBase
	station int
}

type txEndEvent struct {
	*sim.EventBase
	station int
	tx      *queueing.Transmission
}

// Model is the state of one run.
type Model struct {
	*labs.Base

	params   Params
	stations []*queueing.FifoQueue[*labs.Packet]
	channel  *queueing.Channel
	data     *labs.Link

	arrivals   uint64
	processed  uint64
	collisions uint64

	// Sum of the durations of the delivered packets.
	deliveredTime float64

	delay *hooking.AverageTimeTracer
	tags  *hooking.TagCountTracer
	busy  *hooking.BusyTimeTracer
}

// NewModel creates a model with empty stations and no pending event.
func NewModel(p Params, opts labs.Options) *Model {
	m := &Model{
		Base:    labs.NewBase(Name, opts),
		params:  p,
		channel: queueing.NewChannel("Channel"),
		data:    labs.NewLink("DataChannel"),
	}

	for i := 0; i < p.Stations; i++ {
		m.stations = append(m.stations,
			queueing.NewFifoQueue[*labs.Packet]("Station"+strconv.Itoa(i)))
	}

	m.delay = hooking.NewAverageTimeTracer(m.Engine, nil)
	m.tags = hooking.NewTagCountTracer(nil)
	m.AcceptHook(m.delay)
	m.AcceptHook(m.tags)

	m.busy = hooking.NewBusyTimeTracer(m.Engine, nil)
	if p.Reservation {
		m.data.Server().AcceptHook(m.busy)
	} else {
		m.channel.AcceptHook(m.busy)
	}

	return m
}

// Channel returns the contention channel.
func (m *Model) Channel() *queueing.Channel {
	return m.channel
}

// Start schedules the first packet arrival.
func (m *Model) Start() error {
	return m.scheduleNextArrival()
}

// Handle dispatches the events of the model.
func (m *Model) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *labs.ArrivalEvent:
		return m.handleArrival()
	case *txStartEvent:
		return m.handleTxStart(e)
	case *txEndEvent:
		return m.handleTxEnd(e)
	case *labs.DepartureEvent:
		return m.handleDataDeparture(e)
	default:
		return fmt.Errorf("aloha: unexpected event %T", e)
	}
}

func (m *Model) scheduleNextArrival() error {
	gap, err := m.Exponential(m.params.MeanPacketDuration / m.params.ArrivalRate)
	if err != nil {
		return err
	}

	return m.Schedule(labs.NewArrivalEvent(m.Now()+sim.VTimeInSec(gap), m, 0))
}

func (m *Model) handleArrival() error {
	m.arrivals++

	duration, err := m.Exponential(m.params.MeanPacketDuration)
	if err != nil {
		return err
	}

	station := m.Rand.Intn(m.params.Stations)
	p := &labs.Packet{
		ID:          m.IDs.Generate(),
		Source:      station,
		ArrivalTime: m.Now(),
		ServiceTime: duration,
	}

	if err := m.enqueue(station, p); err != nil {
		return err
	}

	return m.scheduleNextArrival()
}

func (m *Model) enqueue(station int, p *labs.Packet) error {
	m.ItemArrived(p.ID, Name)

	buf := m.stations[station]
	p.Status = labs.Waiting
	buf.Put(p)

	if buf.Size() > 1 {
		return nil
	}

	return m.Schedule(&txStartEvent{
		EventBase: sim.NewEventBase(m.Now(), m),
		station:   station,
	})
}

func (m *Model) handleTxStart(e *txStartEvent) error {
	p, err := m.stations[e.station].Peek()
	if err != nil {
		return err
	}

	p.Status = labs.InService
	tx := m.channel.Begin()

	d := p.ServiceTime
	if m.params.Reservation {
		d = m.params.SlotDuration
	}

	return m.Schedule(&txEndEvent{
		EventBase: sim.NewEventBase(m.Now()+sim.VTimeInSec(d), m),
		station:   e.station,
		tx:        tx,
	})
}

func (m *Model) handleTxEnd(e *txEndEvent) error {
	collided, err := m.channel.End(e.tx)
	if err != nil {
		return err
	}

	buf := m.stations[e.station]

	if collided {
		return m.backoff(e.station, buf)
	}

	p, err := buf.Get()
	if err != nil {
		return err
	}

	if m.params.Reservation {
		if err := m.reserve(p); err != nil {
			return err
		}
	} else {
		m.deliver(p)
	}

	if buf.Size() == 0 {
		return nil
	}

	return m.Schedule(&txStartEvent{
		EventBase: sim.NewEventBase(m.Now(), m),
		station:   e.station,
	})
}

func (m *Model) backoff(station int, buf *queueing.FifoQueue[*labs.Packet]) error {
	p, err := buf.Peek()
	if err != nil {
		return err
	}

	p.Collisions++
	p.Status = labs.Waiting
	m.ItemTagged(p.ID, TagCollision)

	wait, err := m.Exponential(m.params.MeanBackoff)
	if err != nil {
		return err
	}

	return m.Schedule(&txStartEvent{
		EventBase: sim.NewEventBase(m.Now()+sim.VTimeInSec(wait), m),
		station:   station,
	})
}

func (m *Model) reserve(p *labs.Packet) error {
	started, err := m.data.Offer(p)
	if err != nil || !started {
		return err
	}

	return m.sendData(p)
}

func (m *Model) sendData(p *labs.Packet) error {
	end := m.Now() + sim.VTimeInSec(p.ServiceTime)
	return m.Schedule(labs.NewDepartureEvent(end, m, m.data))
}

func (m *Model) handleDataDeparture(e *labs.DepartureEvent) error {
	done, next, err := e.Link.Finish()
	if err != nil {
		return err
	}

	m.deliver(done)

	if next != nil {
		return m.sendData(next)
	}

	return nil
}

func (m *Model) deliver(p *labs.Packet) {
	p.Status = labs.Finished
	m.processed++
	m.deliveredTime += p.ServiceTime
	m.collisions += uint64(p.Collisions)
	m.ItemLeft(p.ID)
	m.Blip(m.processed)
}

// Result summarizes the run so far.
func (m *Model) Result() labs.Result {
	processed := float64(m.processed)
	now := float64(m.Now())

	r := m.NewResult()
	r.Add("arrivals", float64(m.arrivals))
	r.Add("processed", processed)
	r.Add("throughput", labs.Ratio(m.deliveredTime, now))
	r.Add("mean_delay", m.delay.AverageTime())
	r.Add("mean_collisions", labs.Ratio(float64(m.collisions), processed))
	r.Add("collisions", float64(m.tags.TagCount(TagCollision)))
	r.Add("utilization", m.busy.Utilization())

	return r
}

// Run simulates until RunLength packets have been delivered.
func Run(p Params, opts labs.Options) (labs.Result, error) {
	if err := opts.Validate(); err != nil {
		return labs.Result{}, err
	}

	m := NewModel(p, opts)
	if err := m.Start(); err != nil {
		return labs.Result{}, err
	}

	err := m.RunUntil(&m.processed)

	return m.Result(), err
}
