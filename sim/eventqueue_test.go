package sim

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type indexedEvent struct {
	*EventBase
	index int
}

func eventQueueSpecs(newQueue func() EventQueue) {
	var queue EventQueue

	BeforeEach(func() {
		queue = newQueue()
	})

	It("should return nil from an empty queue", func() {
		Expect(queue.Len()).To(Equal(0))
		Expect(queue.IsEmpty()).To(BeTrue())
		Expect(queue.Pop()).To(BeNil())
		Expect(queue.Peek()).To(BeNil())
	})

	It("should pop equal times in insertion order", func() {
		e5 := newLabeledEvent("5", 5, nil)
		e2a := newLabeledEvent("2a", 2, nil)
		e2b := newLabeledEvent("2b", 2, nil)
		e8 := newLabeledEvent("8", 8, nil)

		Expect(queue.Push(e5)).To(Equal(EventID(1)))
		Expect(queue.Push(e2a)).To(Equal(EventID(2)))
		Expect(queue.Push(e2b)).To(Equal(EventID(3)))
		Expect(queue.Push(e8)).To(Equal(EventID(4)))

		Expect(queue.Peek()).To(BeIdenticalTo(e2a))
		Expect(queue.Pop()).To(BeIdenticalTo(e2a))
		Expect(queue.Pop()).To(BeIdenticalTo(e2b))
		Expect(queue.Pop()).To(BeIdenticalTo(e5))
		Expect(queue.Pop()).To(BeIdenticalTo(e8))
		Expect(queue.Len()).To(Equal(0))
	})

	It("should pop in order", func() {
		rng := rand.New(rand.NewSource(1))
		numEvents := 1000

		for i := 0; i < numEvents; i++ {
			t := VTimeInSec(rng.Intn(50)) * 0.1
			queue.Push(&indexedEvent{EventBase: NewEventBase(t, nil), index: i})

			if i%7 == 0 && queue.Len() > 0 {
				// Interleave pops with pushes.
				queue.Push(queue.Pop())
			}
		}

		Expect(queue.Len()).To(Equal(numEvents))

		var last *indexedEvent
		for i := 0; i < numEvents; i++ {
			evt := queue.Pop().(*indexedEvent)
			if last != nil {
				Expect(evt.Time()).To(BeNumerically(">=", last.Time()))
			}
			last = evt
		}
	})

	It("should keep FIFO among equal times for any interleaving", func() {
		rng := rand.New(rand.NewSource(2))
		lastIndexAt := map[VTimeInSec]int{}

		for i := 0; i < 500; i++ {
			t := VTimeInSec(rng.Intn(5))
			queue.Push(&indexedEvent{EventBase: NewEventBase(t, nil), index: i})
		}

		for queue.Len() > 0 {
			evt := queue.Pop().(*indexedEvent)
			if prev, ok := lastIndexAt[evt.Time()]; ok {
				Expect(evt.index).To(BeNumerically(">", prev))
			}
			lastIndexAt[evt.Time()] = evt.index
		}
	})
}

var _ = Describe("EventHeap", func() {
	eventQueueSpecs(func() EventQueue { return NewEventQueue() })
})

var _ = Describe("InsertionQueue", func() {
	eventQueueSpecs(func() EventQueue { return NewInsertionQueue() })
})
