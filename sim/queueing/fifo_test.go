package queueing

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/simlab/sim/hooking"
)

var _ = Describe("FifoQueue", func() {
	var q *FifoQueue[int]

	BeforeEach(func() {
		q = NewFifoQueue[int]("Buf")
	})

	It("should fail get and peek when empty", func() {
		_, err := q.Get()
		Expect(err).To(MatchError(ErrEmptyQueue))

		_, err = q.Peek()
		Expect(err).To(MatchError(ErrEmptyQueue))

		Expect(q.Size()).To(Equal(0))
	})

	It("should allow put, peek and get", func() {
		q.Put(1)
		q.Put(2)
		Expect(q.Size()).To(Equal(2))

		Expect(q.Peek()).To(Equal(1))
		Expect(q.Size()).To(Equal(2))

		Expect(q.Get()).To(Equal(1))
		Expect(q.Peek()).To(Equal(2))
		Expect(q.Get()).To(Equal(2))
		Expect(q.Size()).To(Equal(0))
		Expect(q.MaxSize()).To(Equal(2))
	})

	It("should return items in the order they were put", func() {
		rng := rand.New(rand.NewSource(3))

		for round := 0; round < 20; round++ {
			n := rng.Intn(200)
			items := make([]int, n)
			for i := range items {
				items[i] = rng.Int()
				q.Put(items[i])
			}

			got := make([]int, 0, n)
			for i := 0; i < n; i++ {
				item, err := q.Get()
				Expect(err).NotTo(HaveOccurred())
				got = append(got, item)
			}

			Expect(got).To(Equal(items))
			Expect(q.Size()).To(Equal(0))
		}
	})

	It("should invoke push and pop hooks", func() {
		var seen []string
		q.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			seen = append(seen, ctx.Pos.Name)
		}))

		q.Put(7)
		_, _ = q.Get()

		Expect(seen).To(Equal([]string{"Buffer Push", "Buffer Pop"}))
	})
})
