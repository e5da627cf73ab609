package labs

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/simlab/sim/queueing"
)

var _ = Describe("Link", func() {
	var l *Link

	BeforeEach(func() {
		l = NewLink("L")
	})

	It("should start a packet on an idle link", func() {
		p := &Packet{ID: "1"}

		started, err := l.Offer(p)
		Expect(err).NotTo(HaveOccurred())
		Expect(started).To(BeTrue())
		Expect(p.Status).To(Equal(InService))
		Expect(l.Server().State()).To(Equal(queueing.Busy))
	})

	It("should buffer packets behind a busy link", func() {
		p1 := &Packet{ID: "1"}
		p2 := &Packet{ID: "2"}
		p3 := &Packet{ID: "3"}

		_, _ = l.Offer(p1)
		started, _ := l.Offer(p2)
		Expect(started).To(BeFalse())
		Expect(p2.Status).To(Equal(Waiting))
		_, _ = l.Offer(p3)
		Expect(l.Buffer().Size()).To(Equal(2))

		done, next, err := l.Finish()
		Expect(err).NotTo(HaveOccurred())
		Expect(done).To(BeIdenticalTo(p1))
		Expect(next).To(BeIdenticalTo(p2))
		Expect(p2.Status).To(Equal(InService))

		done, next, _ = l.Finish()
		Expect(done).To(BeIdenticalTo(p2))
		Expect(next).To(BeIdenticalTo(p3))

		done, next, _ = l.Finish()
		Expect(done).To(BeIdenticalTo(p3))
		Expect(next).To(BeNil())
		Expect(l.Server().State()).To(Equal(queueing.Idle))
	})

	It("should fail to finish on an idle link", func() {
		_, _, err := l.Finish()
		Expect(err).To(MatchError(queueing.ErrResourceIdle))
	})
})
