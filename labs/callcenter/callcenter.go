// Package callcenter simulates circuit-switched calls offered to a group of
// channels. Calls that find every channel busy are blocked or, with a
// waiting room, wait until a channel frees up or their patience runs out.
package callcenter

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
const Name = "callcenter"

// Tags attached to the lifetime of a call.
const (
	TagBlocked   = "blocked"
	TagAbandoned = "abandoned"
	TagAnswered  = "answered"
)

var params = []labs.Param{
	{Name: "arrivalRate", Default: 3, Doc: "calls per minute"},
	{Name: "meanCallDuration", Default: 2, Doc: "minutes"},
	{Name: "channels", Default: 6, Doc: "number of channels"},
	{Name: "meanPatience", Default: 2, Doc: "minutes a caller waits; 0 blocks calls instead"},
	{Name: "waitThreshold", Default: 5, Doc: "minutes; answered calls waiting at most this long are counted"},
}

func init() {
	labs.Register(labs.Lab{
		Name:        Name,
		Description: "call channels with blocking or a waiting room with abandonment",
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
	ArrivalRate      float64
	MeanCallDuration float64
	Channels         int
	MeanPatience     float64
	WaitThreshold    float64
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

	err = labs.Positive(v, "arrivalRate", "meanCallDuration", "channels")
	if err != nil {
		return Params{}, err
	}

	if v["channels"] != math.Trunc(v["channels"]) {
		return Params{}, fmt.Errorf("%w: channels must be an integer, got %v",
			labs.ErrInvalidParam, v["channels"])
	}

	if v["meanPatience"] < 0 || v["waitThreshold"] < 0 {
		return Params{}, fmt.Errorf("%w: meanPatience and waitThreshold must not be negative",
			labs.ErrInvalidParam)
	}

	return Params{
		ArrivalRate:      v["arrivalRate"],
		MeanCallDuration: v["meanCallDuration"],
		Channels:         int(v["channels"]),
		MeanPatience:     v["meanPatience"],
		WaitThreshold:    v["waitThreshold"],
	}, nil
}

// HasWaitingRoom tells whether callers wait for a free channel.
func (p Params) HasWaitingRoom() bool {
	return p.MeanPatience > 0
}

// A Call is one caller's request for a channel.
type Call struct {
	ID          string
	ArrivalTime sim.VTimeInSec
	Duration    float64
	Patience    float64
	Status      labs.ItemStatus
	Abandoned   bool

	// Injected calls keep their patience even when it is 0.
	fixedTiming bool
}

type arrivalEvent struct {
	*sim.EventBase

	// A positive duration marks an injected call with fixed timing.
	duration float64
	patience float64
}

type callEndEvent struct {
	*sim.EventBase
	channel int
}

type renegeEvent struct {
	*sim.EventBase
	callID string
}

// Model is the state of one run.
type Model struct {
	*labs.Base

	params   Params
	channels []*queueing.Server[*Call]
	queue    *queueing.FifoQueue[*Call]
	waiting  map[string]*Call

	arrivals        uint64
	processed       uint64
	answered        uint64
	answeredInTime  uint64
	accumulatedWait float64

	tags *hooking.TagCountTracer
	busy []*hooking.BusyTimeTracer
}

// NewModel creates a model with idle channels and no pending event.
func NewModel(p Params, opts labs.Options) *Model {
	m := &Model{
		Base:    labs.NewBase(Name, opts),
		params:  p,
		queue:   queueing.NewFifoQueue[*Call]("WaitingRoom"),
		waiting: make(map[string]*Call),
		tags:    hooking.NewTagCountTracer(nil),
	}

	m.AcceptHook(m.tags)

	for i := 0; i < p.Channels; i++ {
		ch := queueing.NewServer[*Call]("Channel" + strconv.Itoa(i))
		tracer := hooking.NewBusyTimeTracer(m.Engine, nil)
		ch.AcceptHook(tracer)

		m.channels = append(m.channels, ch)
		m.busy = append(m.busy, tracer)
	}

	return m
}

// Queue returns the waiting room. Abandoned calls stay in it until they
// reach its head.
func (m *Model) Queue() *queueing.FifoQueue[*Call] {
	return m.queue
}

// Channel returns channel i.
func (m *Model) Channel(i int) *queueing.Server[*Call] {
	return m.channels[i]
}

// Start schedules the first call arrival.
func (m *Model) Start() error {
	return m.scheduleNextArrival()
}

// InjectCall schedules one call with a fixed duration and patience. A call
// with zero patience hangs up as soon as it has to wait. It does not start
// the Poisson arrival process.
func (m *Model) InjectCall(at sim.VTimeInSec, duration, patience float64) error {
	if !(duration > 0) || patience < 0 {
		return fmt.Errorf("%w: call duration %v, patience %v",
			labs.ErrInvalidParam, duration, patience)
	}

	return m.Schedule(&arrivalEvent{
		EventBase: sim.NewEventBase(at, m),
		duration:  duration,
		patience:  patience,
	})
}

// Handle dispatches the events of the model.
func (m *Model) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *arrivalEvent:
		return m.handleArrival(e)
	case *callEndEvent:
		return m.handleCallEnd(e)
	case *renegeEvent:
		return m.handleRenege(e)
	default:
		return fmt.Errorf("callcenter: unexpected event %T", e)
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

func (m *Model) newCall(e *arrivalEvent) (*Call, error) {
	c := &Call{
		ID:          m.IDs.Generate(),
		ArrivalTime: m.Now(),
		Duration:    e.duration,
		Patience:    e.patience,
		fixedTiming: e.duration > 0,
	}

	if c.fixedTiming {
		return c, nil
	}

	d, err := m.Exponential(m.params.MeanCallDuration)
	if err != nil {
		return nil, err
	}

	c.Duration = d

	return c, nil
}

func (m *Model) handleArrival(e *arrivalEvent) error {
	m.arrivals++

	c, err := m.newCall(e)
	if err != nil {
		return err
	}

	m.ItemArrived(c.ID, Name)

	if err := m.admit(c); err != nil {
		return err
	}

	if e.duration > 0 {
		return nil
	}

	return m.scheduleNextArrival()
}

func (m *Model) admit(c *Call) error {
	for i, ch := range m.channels {
		if ch.State() == queueing.Idle {
			return m.answer(c, i)
		}
	}

	if !m.params.HasWaitingRoom() {
		m.ItemTagged(c.ID, TagBlocked)
		m.ItemLeft(c.ID)

		return nil
	}

	if !c.fixedTiming {
		patience, err := m.Exponential(m.params.MeanPatience)
		if err != nil {
			return err
		}

		c.Patience = patience
	}

	c.Status = labs.Waiting
	m.queue.Put(c)
	m.waiting[c.ID] = c

	return m.Schedule(&renegeEvent{
		EventBase: sim.NewEventBase(m.Now()+sim.VTimeInSec(c.Patience), m),
		callID:    c.ID,
	})
}

func (m *Model) answer(c *Call, channel int) error {
	if err := m.channels[channel].Put(c); err != nil {
		return err
	}

	c.Status = labs.InService

	wait := float64(m.Now() - c.ArrivalTime)
	m.accumulatedWait += wait
	m.answered++

	if wait <= m.params.WaitThreshold {
		m.answeredInTime++
	}

	m.ItemTagged(c.ID, TagAnswered)

	return m.Schedule(&callEndEvent{
		EventBase: sim.NewEventBase(m.Now()+sim.VTimeInSec(c.Duration), m),
		channel:   channel,
	})
}

func (m *Model) handleCallEnd(e *callEndEvent) error {
	c, err := m.channels[e.channel].Get()
	if err != nil {
		return err
	}

	c.Status = labs.Finished
	m.processed++
	m.ItemLeft(c.ID)
	m.Blip(m.processed)

	for m.queue.Size() > 0 {
		next, err := m.queue.Get()
		if err != nil {
			return err
		}

		if next.Abandoned {
			continue
		}

		delete(m.waiting, next.ID)

		return m.answer(next, e.channel)
	}

	return nil
}

func (m *Model) handleRenege(e *renegeEvent) error {
	c, ok := m.waiting[e.callID]
	if !ok {
		return nil
	}

	delete(m.waiting, e.callID)
	c.Abandoned = true
	c.Status = labs.Finished

	m.ItemTagged(c.ID, TagAbandoned)
	m.ItemLeft(c.ID)

	return nil
}

// Result summarizes the run so far.
func (m *Model) Result() labs.Result {
	arrivals := float64(m.arrivals)
	blocked := float64(m.tags.TagCount(TagBlocked))
	abandoned := float64(m.tags.TagCount(TagAbandoned))

	var busy float64
	for _, t := range m.busy {
		busy += t.Utilization()
	}

	r := m.NewResult()
	r.Add("arrivals", arrivals)
	r.Add("processed", float64(m.processed))
	r.Add("blocked", blocked)
	r.Add("abandoned", abandoned)
	r.Add("blocking_probability", labs.Ratio(blocked, arrivals))
	r.Add("abandon_probability", labs.Ratio(abandoned, arrivals))
	r.Add("mean_wait", labs.Ratio(m.accumulatedWait, float64(m.answered)))
	r.Add("answered_within_threshold",
		labs.Ratio(float64(m.answeredInTime), float64(m.answered)))
	r.Add("channel_utilization", labs.Ratio(busy, float64(len(m.busy))))

	return r
}

// Run simulates until RunLength calls have been completed.
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
