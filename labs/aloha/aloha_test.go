package aloha

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/simlab/labs"
	"github.com/sarchlab/simlab/sim/queueing"
)

var _ = Describe("Params", func() {
	It("should read the reservation flag", func() {
		p, err := FromMap(map[string]float64{"reservation": 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Reservation).To(BeTrue())
		Expect(p.Stations).To(Equal(10))
	})

	It("should reject invalid station counts", func() {
		_, err := FromMap(map[string]float64{"stations": 0})
		Expect(err).To(MatchError(labs.ErrInvalidParam))

		_, err = FromMap(map[string]float64{"stations": 1.5})
		Expect(err).To(MatchError(labs.ErrInvalidParam))
	})
})

var _ = Describe("Model", func() {
	It("should collide overlapping transmissions", func() {
		m := NewModel(Defaults(), labs.Options{RunLength: 1})

		p0 := &labs.Packet{ID: "a", Source: 0, ServiceTime: 1}
		p1 := &labs.Packet{ID: "b", Source: 1, ServiceTime: 1}
		Expect(m.enqueue(0, p0)).To(Succeed())
		Expect(m.enqueue(1, p1)).To(Succeed())

		err := m.Engine.RunUntil(func() bool {
			return m.tags.TagCount(TagCollision) >= 2
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(m.Channel().NumCollisions()).To(Equal(uint64(2)))
		Expect(m.Channel().State()).To(Equal(queueing.ChannelIdle))
		Expect(p0.Collisions).To(Equal(1))
		Expect(p1.Collisions).To(Equal(1))
		Expect(m.processed).To(Equal(uint64(0)))
	})

	It("should deliver a lone transmission", func() {
		m := NewModel(Defaults(), labs.Options{RunLength: 1})

		Expect(m.enqueue(3, &labs.Packet{ID: "a", ServiceTime: 2})).To(Succeed())
		Expect(m.Engine.Run()).To(Succeed())

		Expect(m.processed).To(Equal(uint64(1)))
		Expect(m.Result().Value("mean_delay")).To(Equal(2.0))
		Expect(m.Result().Value("throughput")).To(Equal(1.0))
	})

	It("should queue reserved packets on the data channel", func() {
		p := Defaults()
		p.Reservation = true
		p.SlotDuration = 0.1
		m := NewModel(p, labs.Options{RunLength: 2})

		Expect(m.enqueue(0, &labs.Packet{ID: "a", ServiceTime: 1})).To(Succeed())
		Expect(m.enqueue(0, &labs.Packet{ID: "b", ServiceTime: 1})).To(Succeed())
		Expect(m.Engine.Run()).To(Succeed())

		// a: slot ends 0.1, data 0.1-1.1; b: slot 0.1-0.2, data 1.1-2.1.
		Expect(m.processed).To(Equal(uint64(2)))
		Expect(m.Now()).To(BeNumerically("~", 2.1, 1e-9))
		Expect(m.Result().Value("mean_delay")).To(BeNumerically("~", 1.6, 1e-9))
	})
})

var _ = Describe("Run", func() {
	It("should carry a light load", func() {
		p := Defaults()
		p.ArrivalRate = 0.05

		r, err := Run(p, labs.Options{Seed: 400167784, RunLength: 20000})
		Expect(err).NotTo(HaveOccurred())

		Expect(r.Value("throughput")).To(BeNumerically("~", 0.05, 0.005))
		Expect(r.Value("mean_collisions")).To(BeNumerically(">", 0))
		Expect(r.Value("mean_delay")).To(BeNumerically(">", 1))
	})

	It("should carry more with reservation", func() {
		p := Defaults()
		p.Reservation = true
		p.SlotDuration = 0.1

		r, err := Run(p, labs.Options{Seed: 400167784, RunLength: 20000})
		Expect(err).NotTo(HaveOccurred())

		Expect(r.Value("throughput")).To(BeNumerically("~", 0.5, 0.03))
		Expect(r.Value("utilization")).To(BeNumerically("~", 0.5, 0.03))
	})
})
