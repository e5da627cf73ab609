package hooking

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gmeasure"
)

type stubTimeTeller struct {
	now float64
}

func (t *stubTimeTeller) Now() float64 {
	return t.now
}

var _ = Describe("BusyTimeTracer", func() {
	var (
		timeTeller *stubTimeTeller
		t          *BusyTimeTracer
	)

	BeforeEach(func() {
		timeTeller = &stubTimeTeller{}

		t = NewBusyTimeTracer(timeTeller, nil)
	})

	It("should track busy time, one task", func() {
		timeTeller.now = 1
		t.StartTask(TaskStart{ID: "1"})

		timeTeller.now = 2
		t.EndTask(TaskEnd{ID: "1"})

		Expect(t.BusyTime()).To(Equal(1.0))
	})

	It("should track busy time, two tasks", func() {
		timeTeller.now = 1
		t.StartTask(TaskStart{ID: "1"})
		timeTeller.now = 2
		t.EndTask(TaskEnd{ID: "1"})

		timeTeller.now = 3
		t.StartTask(TaskStart{ID: "2"})
		timeTeller.now = 4
		t.EndTask(TaskEnd{ID: "2"})

		Expect(t.BusyTime()).To(Equal(2.0))
	})

	It("should track busy time, two tasks overlap", func() {
		timeTeller.now = 1
		t.StartTask(TaskStart{ID: "1"})

		timeTeller.now = 1.5
		t.StartTask(TaskStart{ID: "2"})

		timeTeller.now = 2
		t.EndTask(TaskEnd{ID: "1"})

		timeTeller.now = 2.5
		t.EndTask(TaskEnd{ID: "2"})

		Expect(t.BusyTime()).To(Equal(1.5))
	})

	It("should count the open busy period", func() {
		timeTeller.now = 1
		t.StartTask(TaskStart{ID: "1"})

		timeTeller.now = 3
		Expect(t.BusyTime()).To(Equal(2.0))

		timeTeller.now = 4
		Expect(t.Utilization()).To(BeNumerically("~", 0.75, 1e-9))
	})

	It("should ignore filtered and unknown tasks", func() {
		t = NewBusyTimeTracer(timeTeller, FilterByWhere("Link"))

		timeTeller.now = 1
		t.StartTask(TaskStart{ID: "1", Where: "Other"})
		t.EndTask(TaskEnd{ID: "2"})

		timeTeller.now = 2
		t.EndTask(TaskEnd{ID: "1"})

		Expect(t.BusyTime()).To(Equal(0.0))
		Expect(t.Utilization()).To(Equal(0.0))
	})

	It("should react to hook invocations", func() {
		timeTeller.now = 1
		t.Func(HookCtx{Pos: HookPosTaskStart, Item: TaskStart{ID: "1"}})

		timeTeller.now = 1.25
		t.Func(HookCtx{Pos: HookPosTaskEnd, Item: TaskEnd{ID: "1"}})

		Expect(t.BusyTime()).To(Equal(0.25))
	})

	It("measure busy time tracer", func() {
		experiment := gmeasure.NewExperiment("Busy Time Tracer Performance")
		AddReportEntry(experiment.Name, experiment)

		experiment.MeasureDuration("runtime", func() {
			for i := 0; i < 10000; i++ {
				taskID := fmt.Sprintf("%d", i)

				timeTeller.now = float64(i * 2)
				t.StartTask(TaskStart{ID: taskID})

				timeTeller.now = float64(i*2 + 1)
				t.EndTask(TaskEnd{ID: taskID})
			}

			Expect(t.BusyTime()).To(BeNumerically("~", 10000, 0.01))
		})
	})
})
