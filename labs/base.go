package labs

import (
	"github.com/sarchlab/simlab/sim"
	"github.com/sarchlab/simlab/sim/hooking"
	"github.com/sarchlab/simlab/sim/random"
	"github.com/sirupsen/logrus"
)

// ItemTaskKind is the task kind of an item's lifetime in a model.
const ItemTaskKind = "item"

// Base owns the engine, random stream and ID generator of one run. Lab
// models embed it. Items report their lifetime through the hooks of the
// Base, from arrival to the end of their last service.
type Base struct {
	hooking.HookableBase

	Engine *sim.SerialEngine
	Rand   *random.Generator
	IDs    sim.IDGenerator
	Opts   Options

	name string
	log  logrus.FieldLogger
}

// NewBase creates the per-run state of a model.
func NewBase(name string, opts Options) *Base {
	b := &Base{
		Engine: sim.NewSerialEngine(),
		Rand:   random.New(opts.Seed),
		IDs:    sim.NewSequentialIDGenerator(),
		Opts:   opts,
		name:   name,
		log:    opts.logger().WithField("lab", name),
	}

	for _, h := range opts.EngineHooks {
		b.Engine.AcceptHook(h)
	}

	if opts.TraceEvents {
		b.Engine.AcceptHook(sim.NewEventLogger(b.log))
	}

	return b
}

// Name returns the name of the model.
func (b *Base) Name() string {
	return b.name
}

// Now returns the current simulated time.
func (b *Base) Now() sim.VTimeInSec {
	return b.Engine.CurrentTime()
}

// Schedule adds an event to the engine.
func (b *Base) Schedule(evt sim.Event) error {
	_, err := b.Engine.Schedule(evt)
	return err
}

// Exponential draws an exponential sample.
func (b *Base) Exponential(mean float64) (float64, error) {
	return b.Rand.Exponential(mean)
}

// ItemArrived starts the lifetime task of an item.
func (b *Base) ItemArrived(id, where string) {
	if b.NumHooks() == 0 {
		return
	}

	b.InvokeHook(hooking.HookCtx{
		Domain: b,
		Pos:    hooking.HookPosTaskStart,
		Item: hooking.TaskStart{
			ID:    id,
			Kind:  ItemTaskKind,
			What:  "item",
			Where: where,
		},
	})
}

// ItemTagged labels the lifetime task of an item.
func (b *Base) ItemTagged(id, tag string) {
	if b.NumHooks() == 0 {
		return
	}

	b.InvokeHook(hooking.HookCtx{
		Domain: b,
		Pos:    hooking.HookPosTaskTag,
		Item:   hooking.TaskTag{TaskID: id, What: tag},
	})
}

// ItemLeft ends the lifetime task of an item.
func (b *Base) ItemLeft(id string) {
	if b.NumHooks() == 0 {
		return
	}

	b.InvokeHook(hooking.HookCtx{
		Domain: b,
		Pos:    hooking.HookPosTaskEnd,
		Item:   hooking.TaskEnd{ID: id},
	})
}

// Blip reports progress every BlipRate completions.
func (b *Base) Blip(done uint64) {
	rate := b.Opts.BlipRate
	if rate == 0 || done%rate != 0 {
		return
	}

	b.log.WithFields(logrus.Fields{
		"done":    done,
		"percent": 100 * Ratio(float64(done), float64(b.Opts.RunLength)),
		"time":    b.Engine.Now(),
	}).Debug("progress")

	if b.Opts.OnProgress != nil {
		b.Opts.OnProgress(done)
	}
}

// RunUntil drives the engine until every counter reaches the run length.
func (b *Base) RunUntil(counters ...*uint64) error {
	target := b.Opts.RunLength

	return b.Engine.RunUntil(func() bool {
		for _, c := range counters {
			if *c < target {
				return false
			}
		}

		return true
	})
}

// NewResult creates a Result stamped with the engine's time and event count.
func (b *Base) NewResult() Result {
	return Result{
		Lab:     b.name,
		SimTime: b.Engine.Now(),
		Events:  b.Engine.NumEventsHandled(),
	}
}
