// Package labs holds what the simulation labs share: run options, results,
// the lab registry, a model base that owns the engine of a run, and a
// buffered transmission link.
package labs

import (
	"errors"
	"fmt"
	"math"

	"github.com/sarchlab/simlab/sim/hooking"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnknownLab reports a lab name that is not registered.
	ErrUnknownLab = errors.New("labs: unknown lab")

	// ErrUnknownParam reports a parameter the lab does not have.
	ErrUnknownParam = errors.New("labs: unknown parameter")

	// ErrInvalidParam reports a parameter value out of its domain.
	ErrInvalidParam = errors.New("labs: invalid parameter")

	// ErrInvalidOptions reports unusable run options.
	ErrInvalidOptions = errors.New("labs: invalid run options")
)

// Options controls a single run of a lab.
type Options struct {
	// Seed initializes the random stream of the run.
	Seed uint64

	// RunLength is the number of completions each tracked flow needs before
	// the run stops.
	RunLength uint64

	// BlipRate is the number of completions between progress reports. Zero
	// disables them.
	BlipRate uint64

	// Logger receives progress and, with TraceEvents, one line per event.
	// The standard logrus logger is used if nil.
	Logger logrus.FieldLogger

	// TraceEvents attaches an event logger to the engine.
	TraceEvents bool

	// EngineHooks are attached to the engine before the run starts.
	EngineHooks []hooking.Hook

	// OnProgress is called at every progress report with the completions of
	// the slowest tracked flow.
	OnProgress func(done uint64)
}

// Validate checks that the options can drive a run.
func (o Options) Validate() error {
	if o.RunLength == 0 {
		return fmt.Errorf("%w: run length must be positive", ErrInvalidOptions)
	}

	return nil
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger == nil {
		return logrus.StandardLogger()
	}

	return o.Logger
}

// A Metric is a named summary value of a run.
type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Result is the outcome of a run. Metrics keep the order they were added in.
type Result struct {
	Lab     string   `json:"lab"`
	SimTime float64  `json:"simTime"`
	Events  uint64   `json:"events"`
	Metrics []Metric `json:"metrics"`
}

// Add appends a metric.
func (r *Result) Add(name string, value float64) {
	r.Metrics = append(r.Metrics, Metric{Name: name, Value: value})
}

// Get returns the value of the named metric.
func (r Result) Get(name string) (float64, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m.Value, true
		}
	}

	return 0, false
}

// Value returns the value of the named metric, or NaN if there is none.
func (r Result) Value(name string) float64 {
	v, ok := r.Get(name)
	if !ok {
		return math.NaN()
	}

	return v
}

// ItemStatus tells where an item is.
type ItemStatus int

// Item statuses.
const (
	Waiting ItemStatus = iota
	InService
	Finished
)

func (s ItemStatus) String() string {
	switch s {
	case Waiting:
		return "WAITING"
	case InService:
		return "IN_SERVICE"
	case Finished:
		return "FINISHED"
	default:
		return fmt.Sprintf("ItemStatus(%d)", int(s))
	}
}

// Ratio divides and returns 0 for an empty denominator.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}

	return num / den
}
