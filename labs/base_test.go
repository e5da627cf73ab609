package labs

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/simlab/sim"
	"github.com/sarchlab/simlab/sim/hooking"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

var _ = Describe("Base", func() {
	It("should trace item lifetimes", func() {
		b := NewBase("base", Options{RunLength: 1})
		delay := hooking.NewAverageTimeTracer(b.Engine, nil)
		tags := hooking.NewTagCountTracer(nil)
		b.AcceptHook(delay)
		b.AcceptHook(tags)

		b.ItemArrived("p", "here")
		Expect(b.Schedule(sim.NewEventBase(2, sim.HandlerFunc(func(sim.Event) error {
			b.ItemTagged("p", "collision")
			b.ItemLeft("p")
			return nil
		})))).To(Succeed())
		Expect(b.Engine.Run()).To(Succeed())

		Expect(delay.AverageTime()).To(Equal(2.0))
		Expect(tags.TagCount("collision")).To(Equal(uint64(1)))
		Expect(b.NewResult().SimTime).To(Equal(2.0))
		Expect(b.NewResult().Events).To(Equal(uint64(1)))
	})

	It("should stop when every counter reaches the run length", func() {
		b := NewBase("base", Options{RunLength: 2})
		var a, c uint64

		var tick sim.HandlerFunc
		tick = func(sim.Event) error {
			a++
			if a > 1 {
				c++
			}
			return b.Schedule(sim.NewEventBase(b.Now()+1, tick))
		}
		Expect(b.Schedule(sim.NewEventBase(0, tick))).To(Succeed())

		Expect(b.RunUntil(&a, &c)).To(Succeed())
		Expect(a).To(Equal(uint64(3)))
		Expect(c).To(Equal(uint64(2)))
	})

	It("should log progress and events", func() {
		logger, hook := logtest.NewNullLogger()
		logger.SetLevel(logrus.DebugLevel)

		var progress []uint64
		b := NewBase("base", Options{
			RunLength:   4,
			BlipRate:    2,
			Logger:      logger,
			TraceEvents: true,
			OnProgress:  func(done uint64) { progress = append(progress, done) },
		})

		for i := uint64(1); i <= 4; i++ {
			b.Blip(i)
		}
		Expect(progress).To(Equal([]uint64{2, 4}))
		Expect(hook.Entries).To(HaveLen(2))
		Expect(hook.LastEntry().Data).To(HaveKeyWithValue("lab", "base"))
		Expect(hook.LastEntry().Data).To(HaveKeyWithValue("percent", 100.0))

		Expect(b.Schedule(sim.NewEventBase(1, sim.HandlerFunc(
			func(sim.Event) error { return nil })))).To(Succeed())
		Expect(b.Engine.Run()).To(Succeed())
		Expect(hook.LastEntry().Message).To(Equal("event"))
	})
})
