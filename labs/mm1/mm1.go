// Package mm1 simulates a single transmission link with one buffer fed by
// Poisson packet arrivals.
package mm1

import (
	"fmt"

	"github.com/sarchlab/simlab/labs"
	"github.com/sarchlab/simlab/sim"
	"github.com/sarchlab/simlab/sim/hooking"
)

// Name is the registry name of the lab.
const Name = "mm1"

var params = []labs.Param{
	{Name: "arrivalRate", Default: 400, Doc: "packets per second"},
	{Name: "packetLength", Default: 1000, Doc: "bits per packet"},
	{Name: "linkBitRate", Default: 2e6, Doc: "link rate in bits per second"},
	{Name: "exponentialService", Default: 0, Doc: "1 draws exponential service times"},
}

func init() {
	labs.Register(labs.Lab{
		Name:        Name,
		Description: "single link with a FIFO buffer and Poisson arrivals",
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
	ArrivalRate        float64
	PacketLength       float64
	LinkBitRate        float64
	ExponentialService bool
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

	if err := labs.Positive(v, "arrivalRate", "packetLength", "linkBitRate"); err != nil {
		return Params{}, err
	}

	expService, err := labs.Flag(v, "exponentialService")
	if err != nil {
		return Params{}, err
	}

	return Params{
		ArrivalRate:        v["arrivalRate"],
		PacketLength:       v["packetLength"],
		LinkBitRate:        v["linkBitRate"],
		ExponentialService: expService,
	}, nil
}

// MeanServiceTime returns the mean transmission time of a packet.
func (p Params) MeanServiceTime() float64 {
	return p.PacketLength / p.LinkBitRate
}

type arrivalEvent struct {
	*sim.EventBase

	// A positive service time marks an injected arrival, which uses that
	// service time and schedules no follow-up arrival.
	serviceTime float64
}

// Model is the state of one run.
type Model struct {
	*labs.Base

	params Params
	link   *labs.Link

	arrivals  uint64
	processed uint64

	delay *hooking.AverageTimeTracer
	busy  *hooking.BusyTimeTracer
}

// NewModel creates a model with an idle link and no pending event.
func NewModel(p Params, opts labs.Options) *Model {
	m := &Model{
		Base:   labs.NewBase(Name, opts),
		params: p,
		link:   labs.NewLink("Link"),
	}

	m.delay = hooking.NewAverageTimeTracer(m.Engine, nil)
	m.AcceptHook(m.delay)
	m.busy = m.link.TraceUtilization(m.Engine)

	return m
}

// Link returns the link of the model.
func (m *Model) Link() *labs.Link {
	return m.link
}

// Processed returns the number of packets that finished transmission.
func (m *Model) Processed() uint64 {
	return m.processed
}

// Start schedules the first Poisson arrival.
func (m *Model) Start() error {
	return m.scheduleNextArrival()
}

// InjectArrival schedules one arrival with a fixed service time. It does not
// start the Poisson arrival process.
func (m *Model) InjectArrival(at sim.VTimeInSec, serviceTime float64) error {
	if !(serviceTime > 0) {
		return fmt.Errorf("%w: service time %v", labs.ErrInvalidParam, serviceTime)
	}

	return m.Schedule(&arrivalEvent{
		EventBase:   sim.NewEventBase(at, m),
		serviceTime: serviceTime,
	})
}

// Handle dispatches the events of the model.
func (m *Model) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *arrivalEvent:
		return m.handleArrival(e)
	case *labs.DepartureEvent:
		return m.handleDeparture(e)
	default:
		return fmt.Errorf("mm1: unexpected event %T", e)
	}
}

func (m *Model) scheduleNextArrival() error {
	gap, err := m.Exponential(1 / m.params.ArrivalRate)
	if err != nil {
		return err
	}

	return m.Schedule(&arrivalEvent{
		EventBase: sim.NewEventBase(m.Now()+sim.VTimeInSec(gap), m),
	})
}

func (m *Model) serviceTime() (float64, error) {
	mean := m.params.MeanServiceTime()
	if !m.params.ExponentialService {
		return mean, nil
	}

	return m.Exponential(mean)
}

func (m *Model) handleArrival(e *arrivalEvent) error {
	now := m.Now()
	m.arrivals++

	p := &labs.Packet{
		ID:          m.IDs.Generate(),
		ArrivalTime: now,
		ServiceTime: e.serviceTime,
	}

	if e.serviceTime == 0 {
		svc, err := m.serviceTime()
		if err != nil {
			return err
		}

		p.ServiceTime = svc
	}

	m.ItemArrived(p.ID, m.link.Name())

	started, err := m.link.Offer(p)
	if err != nil {
		return err
	}

	if started {
		if err := m.transmit(p); err != nil {
			return err
		}
	}

	if e.serviceTime > 0 {
		return nil
	}

	return m.scheduleNextArrival()
}

func (m *Model) transmit(p *labs.Packet) error {
	end := m.Now() + sim.VTimeInSec(p.ServiceTime)
	return m.Schedule(labs.NewDepartureEvent(end, m, m.link))
}

func (m *Model) handleDeparture(e *labs.DepartureEvent) error {
	done, next, err := e.Link.Finish()
	if err != nil {
		return err
	}

	done.Status = labs.Finished
	m.processed++
	m.ItemLeft(done.ID)
	m.Blip(m.processed)

	if next != nil {
		return m.transmit(next)
	}

	return nil
}

// Result summarizes the run so far.
func (m *Model) Result() labs.Result {
	r := m.NewResult()
	r.Add("arrivals", float64(m.arrivals))
	r.Add("processed", float64(m.processed))
	r.Add("mean_delay", m.delay.AverageTime())
	r.Add("max_delay", m.delay.MaxTime())
	r.Add("utilization", m.busy.Utilization())
	r.Add("max_queue", float64(m.link.Buffer().MaxSize()))

	return r
}

// Run simulates until RunLength packets have been transmitted.
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
