// Package switchnet simulates three switches. Switch 1 forwards every packet
// it transmits to switch 2 or switch 3; switches 2 and 3 also have local
// arrivals. Each switch transmits on its own link with its own buffer.
package switchnet

import (
	"fmt"
	"strconv"

	"github.com/sarchlab/simlab/labs"
	"github.com/sarchlab/simlab/sim"
	"github.com/sarchlab/simlab/sim/hooking"
)

// Name is the registry name of the lab.
const Name = "switchnet"

const numSwitches = 3

var params = []labs.Param{
	{Name: "arrivalRate1", Default: 750, Doc: "packets per second at switch 1"},
	{Name: "arrivalRate23", Default: 500, Doc: "packets per second at switches 2 and 3"},
	{Name: "packetLength", Default: 1000, Doc: "bits per packet"},
	{Name: "linkBitRate", Default: 2e6, Doc: "rate of link 1 in bits per second"},
	{Name: "linkBitRate23", Default: 1e6, Doc: "rate of links 2 and 3 in bits per second"},
	{Name: "p13", Default: 0.3, Doc: "probability that switch 1 forwards to switch 3"},
}

func init() {
	labs.Register(labs.Lab{
		Name:        Name,
		Description: "three switches, switch 1 forwards to switch 2 or 3",
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
	ArrivalRate1  float64
	ArrivalRate23 float64
	PacketLength  float64
	LinkBitRate   float64
	LinkBitRate23 float64
	P13           float64
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

	err = labs.Positive(v, "arrivalRate1", "arrivalRate23", "packetLength",
		"linkBitRate", "linkBitRate23")
	if err != nil {
		return Params{}, err
	}

	if v["p13"] < 0 || v["p13"] > 1 {
		return Params{}, fmt.Errorf("%w: p13 must be within [0, 1], got %v",
			labs.ErrInvalidParam, v["p13"])
	}

	return Params{
		ArrivalRate1:  v["arrivalRate1"],
		ArrivalRate23: v["arrivalRate23"],
		PacketLength:  v["packetLength"],
		LinkBitRate:   v["linkBitRate"],
		LinkBitRate23: v["linkBitRate23"],
		P13:           v["p13"],
	}, nil
}

func (p Params) arrivalRate(sw int) float64 {
	if sw == 0 {
		return p.ArrivalRate1
	}

	return p.ArrivalRate23
}

func (p Params) serviceTime(sw int) float64 {
	if sw == 0 {
		return p.PacketLength / p.LinkBitRate
	}

	return p.PacketLength / p.LinkBitRate23
}

func switchName(sw int) string {
	return "Switch" + strconv.Itoa(sw+1)
}

// Model is the state of one run.
type Model struct {
	*labs.Base

	params Params
	links  [numSwitches]*labs.Link

	arrivals  [numSwitches]uint64
	processed [numSwitches]uint64
	routedTo3 uint64
	reported  uint64

	delay [numSwitches]*hooking.AverageTimeTracer
	busy  [numSwitches]*hooking.BusyTimeTracer
}

// NewModel creates a model with idle links and no pending event.
func NewModel(p Params, opts labs.Options) *Model {
	m := &Model{
		Base:   labs.NewBase(Name, opts),
		params: p,
	}

	for sw := 0; sw < numSwitches; sw++ {
		m.links[sw] = labs.NewLink("Link" + strconv.Itoa(sw+1))
		m.busy[sw] = m.links[sw].TraceUtilization(m.Engine)
		m.delay[sw] = hooking.NewAverageTimeTracer(
			m.Engine, hooking.FilterByWhere(switchName(sw)))
		m.AcceptHook(m.delay[sw])
	}

	return m
}

// Link returns the outgoing link of switch sw, counted from 0.
func (m *Model) Link(sw int) *labs.Link {
	return m.links[sw]
}

// Start schedules the first arrival at every switch.
func (m *Model) Start() error {
	for sw := 0; sw < numSwitches; sw++ {
		if err := m.scheduleNextArrival(sw); err != nil {
			return err
		}
	}

	return nil
}

// Handle dispatches the events of the model.
func (m *Model) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *labs.ArrivalEvent:
		return m.handleArrival(e)
	case *labs.DepartureEvent:
		return m.handleDeparture(e)
	default:
		return fmt.Errorf("switchnet: unexpected event %T", e)
	}
}

func (m *Model) scheduleNextArrival(sw int) error {
	gap, err := m.Exponential(1 / m.params.arrivalRate(sw))
	if err != nil {
		return err
	}

	return m.Schedule(labs.NewArrivalEvent(m.Now()+sim.VTimeInSec(gap), m, sw))
}

func (m *Model) handleArrival(e *labs.ArrivalEvent) error {
	sw := e.Source
	m.arrivals[sw]++

	p := &labs.Packet{
		ID:          m.IDs.Generate(),
		Source:      sw,
		ArrivalTime: m.Now(),
	}
	m.ItemArrived(p.ID, switchName(sw))

	if err := m.enqueue(sw, p); err != nil {
		return err
	}

	return m.scheduleNextArrival(sw)
}

func (m *Model) enqueue(sw int, p *labs.Packet) error {
	p.ServiceTime = m.params.serviceTime(sw)

	started, err := m.links[sw].Offer(p)
	if err != nil || !started {
		return err
	}

	return m.transmit(sw, p)
}

func (m *Model) transmit(sw int, p *labs.Packet) error {
	end := m.Now() + sim.VTimeInSec(p.ServiceTime)
	return m.Schedule(labs.NewDepartureEvent(end, m, m.links[sw]))
}

func (m *Model) switchOf(l *labs.Link) (int, error) {
	for sw, link := range m.links {
		if link == l {
			return sw, nil
		}
	}

	return 0, fmt.Errorf("switchnet: departure from unknown link %s", l.Name())
}

func (m *Model) handleDeparture(e *labs.DepartureEvent) error {
	sw, err := m.switchOf(e.Link)
	if err != nil {
		return err
	}

	done, next, err := e.Link.Finish()
	if err != nil {
		return err
	}

	m.processed[sw]++
	if s := m.slowest(); s > m.reported {
		m.reported = s
		m.Blip(s)
	}

	if next != nil {
		if err := m.transmit(sw, next); err != nil {
			return err
		}
	}

	if sw != 0 {
		done.Status = labs.Finished
		m.ItemLeft(done.ID)

		return nil
	}

	dst := 1
	if m.Rand.Uniform01() < m.params.P13 {
		dst = 2
		m.routedTo3++
	}

	return m.enqueue(dst, done)
}

func (m *Model) slowest() uint64 {
	return min(m.processed[0], m.processed[1], m.processed[2])
}

// Result summarizes the run so far.
func (m *Model) Result() labs.Result {
	r := m.NewResult()

	for sw := 0; sw < numSwitches; sw++ {
		i := strconv.Itoa(sw + 1)
		r.Add("arrivals_"+i, float64(m.arrivals[sw]))
		r.Add("processed_"+i, float64(m.processed[sw]))
		r.Add("mean_delay_"+i, m.delay[sw].AverageTime())
		r.Add("utilization_"+i, m.busy[sw].Utilization())
	}

	r.Add("routed_to_3", float64(m.routedTo3))

	return r
}

// Run simulates until every link has transmitted RunLength packets.
func Run(p Params, opts labs.Options) (labs.Result, error) {
	if err := opts.Validate(); err != nil {
		return labs.Result{}, err
	}

	m := NewModel(p, opts)
	if err := m.Start(); err != nil {
		return labs.Result{}, err
	}

	err := m.RunUntil(&m.processed[0], &m.processed[1], &m.processed[2])

	return m.Result(), err
}
