// Package offload simulates two mobile devices that offload packets to a
// shared cloud server. Each device sends over its own uplink; the cloud
// serves the packets of both devices from one FIFO buffer.
package offload

import (
	"fmt"
	"strconv"

	"github.com/sarchlab/simlab/labs"
	"github.com/sarchlab/simlab/sim"
	"github.com/sarchlab/simlab/sim/hooking"
)

// Name is the registry name of the lab.
const Name = "offload"

const numDevices = 2

var params = []labs.Param{
	{Name: "arrivalRate1", Default: 400, Doc: "packets per second at device 1"},
	{Name: "arrivalRate2", Default: 400, Doc: "packets per second at device 2"},
	{Name: "packetLength", Default: 1000, Doc: "bits per packet"},
	{Name: "uplinkBitRate", Default: 2e6, Doc: "rate of each uplink in bits per second"},
	{Name: "cloudBitRate", Default: 1e6, Doc: "cloud processing rate in bits per second"},
}

func init() {
	labs.Register(labs.Lab{
		Name:        Name,
		Description: "two devices offloading through their own uplinks to a shared cloud",
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
	ArrivalRate   [numDevices]float64
	PacketLength  float64
	UplinkBitRate float64
	CloudBitRate  float64
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

	err = labs.Positive(v, "arrivalRate1", "arrivalRate2", "packetLength",
		"uplinkBitRate", "cloudBitRate")
	if err != nil {
		return Params{}, err
	}

	return Params{
		ArrivalRate:   [numDevices]float64{v["arrivalRate1"], v["arrivalRate2"]},
		PacketLength:  v["packetLength"],
		UplinkBitRate: v["uplinkBitRate"],
		CloudBitRate:  v["cloudBitRate"],
	}, nil
}

func deviceName(d int) string {
	return "Device" + strconv.Itoa(d+1)
}

// Model is the state of one run.
type Model struct {
	*labs.Base

	params  Params
	uplinks [numDevices]*labs.Link
	cloud   *labs.Link

	arrivals  [numDevices]uint64
	processed [numDevices]uint64
	reported  uint64

	delay     [numDevices]*hooking.AverageTimeTracer
	cloudBusy *hooking.BusyTimeTracer
}

// NewModel creates a model with idle links and no pending event.
func NewModel(p Params, opts labs.Options) *Model {
	m := &Model{
		Base:   labs.NewBase(Name, opts),
		params: p,
		cloud:  labs.NewLink("Cloud"),
	}

	for d := 0; d < numDevices; d++ {
		m.uplinks[d] = labs.NewLink("Uplink" + strconv.Itoa(d+1))
		m.delay[d] = hooking.NewAverageTimeTracer(
			m.Engine, hooking.FilterByWhere(deviceName(d)))
		m.AcceptHook(m.delay[d])
	}

	m.cloudBusy = m.cloud.TraceUtilization(m.Engine)

	return m
}

// Uplink returns the uplink of device d, counted from 0.
func (m *Model) Uplink(d int) *labs.Link {
	return m.uplinks[d]
}

// Cloud returns the cloud server.
func (m *Model) Cloud() *labs.Link {
	return m.cloud
}

// Start schedules the first arrival at both devices.
func (m *Model) Start() error {
	for d := 0; d < numDevices; d++ {
		if err := m.scheduleNextArrival(d); err != nil {
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
		if e.Link == m.cloud {
			return m.handleCloudDeparture()
		}

		return m.handleUplinkDeparture(e)
	default:
		return fmt.Errorf("offload: unexpected event %T", e)
	}
}

func (m *Model) scheduleNextArrival(d int) error {
	gap, err := m.Exponential(1 / m.params.ArrivalRate[d])
	if err != nil {
		return err
	}

	return m.Schedule(labs.NewArrivalEvent(m.Now()+sim.VTimeInSec(gap), m, d))
}

func (m *Model) handleArrival(e *labs.ArrivalEvent) error {
	d := e.Source
	m.arrivals[d]++

	p := &labs.Packet{
		ID:          m.IDs.Generate(),
		Source:      d,
		ArrivalTime: m.Now(),
	}
	m.ItemArrived(p.ID, deviceName(d))

	if err := m.offer(m.uplinks[d], p, m.params.UplinkBitRate); err != nil {
		return err
	}

	return m.scheduleNextArrival(d)
}

func (m *Model) offer(l *labs.Link, p *labs.Packet, bitRate float64) error {
	p.ServiceTime = m.params.PacketLength / bitRate

	started, err := l.Offer(p)
	if err != nil || !started {
		return err
	}

	return m.transmit(l, p)
}

func (m *Model) transmit(l *labs.Link, p *labs.Packet) error {
	end := m.Now() + sim.VTimeInSec(p.ServiceTime)
	return m.Schedule(labs.NewDepartureEvent(end, m, l))
}

func (m *Model) handleUplinkDeparture(e *labs.DepartureEvent) error {
	done, next, err := e.Link.Finish()
	if err != nil {
		return err
	}

	if next != nil {
		if err := m.transmit(e.Link, next); err != nil {
			return err
		}
	}

	return m.offer(m.cloud, done, m.params.CloudBitRate)
}

func (m *Model) handleCloudDeparture() error {
	done, next, err := m.cloud.Finish()
	if err != nil {
		return err
	}

	done.Status = labs.Finished
	m.processed[done.Source]++
	m.ItemLeft(done.ID)

	if s := min(m.processed[0], m.processed[1]); s > m.reported {
		m.reported = s
		m.Blip(s)
	}

	if next != nil {
		return m.transmit(m.cloud, next)
	}

	return nil
}

// InSystem returns the number of packets of device d that arrived and have
// not left the cloud.
func (m *Model) InSystem(d int) uint64 {
	return m.arrivals[d] - m.processed[d]
}

// Result summarizes the run so far.
func (m *Model) Result() labs.Result {
	r := m.NewResult()

	for d := 0; d < numDevices; d++ {
		i := strconv.Itoa(d + 1)
		r.Add("arrivals_"+i, float64(m.arrivals[d]))
		r.Add("processed_"+i, float64(m.processed[d]))
		r.Add("mean_delay_"+i, m.delay[d].AverageTime())
	}

	r.Add("utilization_cloud", m.cloudBusy.Utilization())

	return r
}

// Run simulates until the cloud has served RunLength packets of each device.
func Run(p Params, opts labs.Options) (labs.Result, error) {
	if err := opts.Validate(); err != nil {
		return labs.Result{}, err
	}

	m := NewModel(p, opts)
	if err := m.Start(); err != nil {
		return labs.Result{}, err
	}

	err := m.RunUntil(&m.processed[0], &m.processed[1])

	return m.Result(), err
}
