package mm1

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/simlab/labs"
	"github.com/sarchlab/simlab/sim"
	"github.com/sarchlab/simlab/sim/hooking"
	"github.com/sarchlab/simlab/sim/queueing"
)

var _ = Describe("Model", func() {
	var m *Model

	BeforeEach(func() {
		m = NewModel(Defaults(), labs.Options{RunLength: 3})
	})

	It("should serve injected arrivals in order", func() {
		var departures []sim.VTimeInSec
		m.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			if ctx.Pos == hooking.HookPosTaskEnd {
				departures = append(departures, m.Now())
			}
		}))

		queued := map[sim.VTimeInSec]int{}
		m.Engine.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			if ctx.Pos == sim.HookPosAfterEvent {
				queued[m.Now()] = m.Link().Buffer().Size()
			}
		}))

		Expect(m.InjectArrival(0, 1.5)).To(Succeed())
		Expect(m.InjectArrival(1, 1.5)).To(Succeed())
		Expect(m.InjectArrival(2, 1.5)).To(Succeed())

		Expect(m.Engine.Run()).To(Succeed())

		Expect(departures).To(Equal([]sim.VTimeInSec{1.5, 3.0, 4.5}))
		Expect(queued[1]).To(Equal(1))
		Expect(queued[2]).To(Equal(1))
		Expect(m.Processed()).To(Equal(uint64(3)))
		Expect(m.Link().Buffer().Size()).To(Equal(0))
		Expect(m.Link().Server().State()).To(Equal(queueing.Idle))
		Expect(m.Now()).To(Equal(sim.VTimeInSec(4.5)))

		r := m.Result()
		Expect(r.Value("mean_delay")).To(BeNumerically("~", (1.5+2.0+2.5)/3, 1e-12))
		Expect(r.Value("utilization")).To(BeNumerically("~", 1.0, 1e-12))
	})

	It("should report a deadlock when arrivals dry up", func() {
		m.Opts.RunLength = 5
		Expect(m.InjectArrival(0, 1)).To(Succeed())

		err := m.RunUntil(&m.processed)
		Expect(err).To(MatchError(sim.ErrDeadlock))
		Expect(m.Processed()).To(Equal(uint64(1)))
	})

	It("should reject a non-positive injected service time", func() {
		Expect(m.InjectArrival(0, 0)).To(MatchError(labs.ErrInvalidParam))
	})
})

var _ = Describe("Params", func() {
	It("should apply overrides to the defaults", func() {
		p, err := FromMap(map[string]float64{"arrivalRate": 750})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.ArrivalRate).To(Equal(750.0))
		Expect(p.LinkBitRate).To(Equal(2e6))
		Expect(p.MeanServiceTime()).To(Equal(5e-4))
	})

	It("should reject unknown and invalid parameters", func() {
		_, err := FromMap(map[string]float64{"arrivalrate": 1})
		Expect(err).To(MatchError(labs.ErrUnknownParam))

		_, err = FromMap(map[string]float64{"linkBitRate": -1})
		Expect(err).To(MatchError(labs.ErrInvalidParam))

		_, err = FromMap(map[string]float64{"exponentialService": 2})
		Expect(err).To(MatchError(labs.ErrInvalidParam))
	})
})

var _ = Describe("Run", func() {
	It("should match the M/M/1 mean delay", func() {
		p := Defaults()
		p.ExponentialService = true

		r, err := Run(p, labs.Options{Seed: 400167784, RunLength: 100000})
		Expect(err).NotTo(HaveOccurred())

		Expect(r.Value("processed")).To(Equal(100000.0))
		Expect(r.Value("mean_delay")).To(BeNumerically("~", 1/(2000.0-400.0), 0.05/(2000.0-400.0)))
		Expect(r.Value("utilization")).To(BeNumerically("~", 0.2, 0.01))
	})

	It("should match the M/D/1 mean delay", func() {
		r, err := Run(Defaults(), labs.Options{Seed: 223456789, RunLength: 100000})
		Expect(err).NotTo(HaveOccurred())

		s := 5e-4
		rho := 0.2
		want := s + rho*s/(2*(1-rho))
		Expect(r.Value("mean_delay")).To(BeNumerically("~", want, 0.05*want))
	})

	It("should replay with the same seed", func() {
		opts := labs.Options{Seed: 42, RunLength: 2000}

		r1, err := Run(Defaults(), opts)
		Expect(err).NotTo(HaveOccurred())
		r2, err := Run(Defaults(), opts)
		Expect(err).NotTo(HaveOccurred())

		Expect(r2).To(Equal(r1))
	})

	It("should be reachable through the registry", func() {
		lab, err := labs.Get(Name)
		Expect(err).NotTo(HaveOccurred())

		var blips []uint64
		r, err := lab.Run(
			map[string]float64{"arrivalRate": 100},
			labs.Options{
				Seed:       1,
				RunLength:  50,
				BlipRate:   10,
				OnProgress: func(done uint64) { blips = append(blips, done) },
			})
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Lab).To(Equal(Name))
		Expect(blips).To(Equal([]uint64{10, 20, 30, 40, 50}))
	})

	It("should refuse a zero run length", func() {
		_, err := Run(Defaults(), labs.Options{})
		Expect(err).To(MatchError(labs.ErrInvalidOptions))
	})
})
