package offload

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/simlab/labs"
	"github.com/sarchlab/simlab/sim/queueing"
)

var _ = Describe("Model", func() {
	It("should give each device its own uplink", func() {
		m := NewModel(Defaults(), labs.Options{RunLength: 1})

		Expect(m.Uplink(0)).NotTo(BeIdenticalTo(m.Uplink(1)))
		Expect(m.Uplink(0).Buffer()).NotTo(BeIdenticalTo(m.Uplink(1).Buffer()))
	})

	It("should move a packet through its uplink and the cloud", func() {
		m := NewModel(Defaults(), labs.Options{RunLength: 1})

		p := &labs.Packet{ID: "x", Source: 1}
		m.ItemArrived(p.ID, deviceName(1))
		Expect(m.offer(m.Uplink(1), p, m.params.UplinkBitRate)).To(Succeed())
		Expect(m.Engine.Run()).To(Succeed())

		Expect(m.processed[1]).To(Equal(uint64(1)))
		Expect(m.processed[0]).To(Equal(uint64(0)))
		Expect(m.Now()).To(BeNumerically("~", 5e-4+1e-3, 1e-15))
		Expect(m.Cloud().Server().State()).To(Equal(queueing.Idle))
		Expect(m.Result().Value("mean_delay_2")).To(BeNumerically("~", 1.5e-3, 1e-15))
	})
})

var _ = Describe("Run", func() {
	It("should conserve packets", func() {
		m := NewModel(Defaults(), labs.Options{Seed: 400167784, RunLength: 20000})
		Expect(m.Start()).To(Succeed())
		Expect(m.RunUntil(&m.processed[0], &m.processed[1])).To(Succeed())

		for d := 0; d < numDevices; d++ {
			inSystem := uint64(m.Uplink(d).Buffer().Size())
			if m.Uplink(d).Server().State() == queueing.Busy {
				inSystem++
			}

			inSystem += inCloud(m, d)

			Expect(m.InSystem(d)).To(Equal(inSystem))
		}
	})

	It("should load the cloud with both devices", func() {
		r, err := Run(Defaults(), labs.Options{Seed: 223456789, RunLength: 50000})
		Expect(err).NotTo(HaveOccurred())

		Expect(r.Value("utilization_cloud")).To(BeNumerically("~", 0.8, 0.03))
		Expect(r.Value("processed_1")).To(BeNumerically(">=", 50000))
		Expect(r.Value("processed_2")).To(BeNumerically(">=", 50000))
		Expect(r.Value("mean_delay_1")).To(BeNumerically(">", 1.5e-3))
	})
})

func inCloud(m *Model, d int) uint64 {
	var n uint64

	if p, ok := m.Cloud().Server().Peek(); ok && p.Source == d {
		n++
	}

	q := m.Cloud().Buffer()
	for i := 0; i < q.Size(); i++ {
		p, _ := q.Get()
		if p.Source == d {
			n++
		}
		q.Put(p)
	}

	return n
}
