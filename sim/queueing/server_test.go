package queueing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/simlab/sim/hooking"
)

type packet struct{ id int }

type fakeClock struct{ now float64 }

func (c *fakeClock) Now() float64 { return c.now }

var _ = Describe("Server", func() {
	var s *Server[*packet]

	BeforeEach(func() {
		s = NewServer[*packet]("Link")
	})

	It("should start idle", func() {
		Expect(s.State()).To(Equal(Idle))
		Expect(s.State().String()).To(Equal("IDLE"))

		_, err := s.Get()
		Expect(err).To(MatchError(ErrResourceIdle))
	})

	It("should hold one item", func() {
		p1 := &packet{id: 1}
		Expect(s.Put(p1)).To(Succeed())
		Expect(s.State()).To(Equal(Busy))

		err := s.Put(&packet{id: 2})
		Expect(err).To(MatchError(ErrResourceBusy))

		inService, ok := s.Peek()
		Expect(ok).To(BeTrue())
		Expect(inService).To(BeIdenticalTo(p1))

		got, err := s.Get()
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(BeIdenticalTo(p1))
		Expect(s.State()).To(Equal(Idle))
		Expect(s.NumServed()).To(Equal(uint64(1)))

		_, ok = s.Peek()
		Expect(ok).To(BeFalse())
	})

	It("should report service as tasks", func() {
		clock := &fakeClock{}
		tracer := hooking.NewBusyTimeTracer(clock, hooking.FilterByWhere("Link"))
		s.AcceptHook(tracer)

		clock.now = 1
		Expect(s.Put(&packet{})).To(Succeed())
		clock.now = 2.5
		_, _ = s.Get()
		clock.now = 3
		Expect(s.Put(&packet{})).To(Succeed())
		clock.now = 4
		_, _ = s.Get()

		Expect(tracer.BusyTime()).To(Equal(2.5))
	})
})

var _ = Describe("Channel", func() {
	var c *Channel

	BeforeEach(func() {
		c = NewChannel("Aloha")
	})

	It("should succeed with a single transmitter", func() {
		Expect(c.State()).To(Equal(ChannelIdle))

		tx := c.Begin()
		Expect(c.State()).To(Equal(ChannelSuccess))
		Expect(c.Transmitting()).To(Equal(1))

		collided, err := c.End(tx)
		Expect(err).NotTo(HaveOccurred())
		Expect(collided).To(BeFalse())
		Expect(c.State()).To(Equal(ChannelIdle))
	})

	It("should corrupt overlapping transmissions", func() {
		tx1 := c.Begin()
		tx2 := c.Begin()
		Expect(c.State()).To(Equal(ChannelColliding))
		Expect(c.State().String()).To(Equal("COLLIDING"))

		collided, err := c.End(tx1)
		Expect(err).NotTo(HaveOccurred())
		Expect(collided).To(BeTrue())
		Expect(c.State()).To(Equal(ChannelColliding))

		tx3 := c.Begin()
		Expect(tx3.Collided()).To(BeTrue())
		Expect(tx2.Collided()).To(BeTrue())

		_, _ = c.End(tx2)
		collided, _ = c.End(tx3)
		Expect(collided).To(BeTrue())
		Expect(c.NumCollisions()).To(Equal(uint64(3)))
		Expect(c.State()).To(Equal(ChannelIdle))
	})

	It("should reject ending an unknown transmission", func() {
		tx := c.Begin()
		_, _ = c.End(tx)

		_, err := c.End(tx)
		Expect(err).To(MatchError(ErrResourceIdle))
	})
})
