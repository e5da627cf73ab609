package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AverageTimeTracer", func() {
	var (
		timeTeller *stubTimeTeller
		t          *AverageTimeTracer
	)

	BeforeEach(func() {
		timeTeller = &stubTimeTeller{}
		t = NewAverageTimeTracer(timeTeller, FilterByKind("packet"))
	})

	It("should report zero before any task finishes", func() {
		Expect(t.AverageTime()).To(Equal(0.0))
		Expect(t.TotalCount()).To(Equal(uint64(0)))
	})

	It("should average overlapping tasks independently", func() {
		timeTeller.now = 0
		t.StartTask(TaskStart{ID: "a", Kind: "packet"})
		timeTeller.now = 1
		t.StartTask(TaskStart{ID: "b", Kind: "packet"})
		timeTeller.now = 2
		t.EndTask(TaskEnd{ID: "a"})
		timeTeller.now = 5
		t.EndTask(TaskEnd{ID: "b"})

		Expect(t.TotalCount()).To(Equal(uint64(2)))
		Expect(t.TotalTime()).To(Equal(6.0))
		Expect(t.AverageTime()).To(Equal(3.0))
		Expect(t.MaxTime()).To(Equal(4.0))
		Expect(t.InflightCount()).To(Equal(0))
	})

	It("should skip tasks of other kinds", func() {
		t.StartTask(TaskStart{ID: "a", Kind: "service"})
		timeTeller.now = 3
		t.EndTask(TaskEnd{ID: "a"})

		Expect(t.TotalCount()).To(Equal(uint64(0)))
	})
})

var _ = Describe("TagCountTracer", func() {
	It("should count tags of followed tasks only", func() {
		t := NewTagCountTracer(FilterByKind("packet"))

		t.Func(HookCtx{Pos: HookPosTaskStart, Item: TaskStart{ID: "p1", Kind: "packet"}})
		t.Func(HookCtx{Pos: HookPosTaskStart, Item: TaskStart{ID: "s1", Kind: "service"}})
		t.Func(HookCtx{Pos: HookPosTaskTag, Item: TaskTag{TaskID: "p1", What: "collision"}})
		t.Func(HookCtx{Pos: HookPosTaskTag, Item: TaskTag{TaskID: "p1", What: "collision"}})
		t.Func(HookCtx{Pos: HookPosTaskTag, Item: TaskTag{TaskID: "s1", What: "collision"}})
		t.Func(HookCtx{Pos: HookPosTaskEnd, Item: TaskEnd{ID: "p1"}})
		t.Func(HookCtx{Pos: HookPosTaskTag, Item: TaskTag{TaskID: "p1", What: "collision"}})

		Expect(t.TagNames()).To(Equal([]string{"collision"}))
		Expect(t.TagCount("collision")).To(Equal(uint64(2)))
		Expect(t.TagCount("backoff")).To(Equal(uint64(0)))
	})
})

var _ = Describe("HookableBase", func() {
	It("should invoke hooks in order and reject duplicates", func() {
		var order []string
		base := &HookableBase{}
		base.AcceptHook(HookFunc(func(HookCtx) { order = append(order, "first") }))
		base.AcceptHook(HookFunc(func(HookCtx) { order = append(order, "second") }))

		base.InvokeHook(HookCtx{Pos: HookPosTaskStart})

		Expect(order).To(Equal([]string{"first", "second"}))
		Expect(base.NumHooks()).To(Equal(2))

		tracer := NewTagCountTracer(nil)
		base.AcceptHook(tracer)
		Expect(func() { base.AcceptHook(tracer) }).To(Panic())
		Expect(base.Hooks()).To(HaveLen(3))
	})
})
