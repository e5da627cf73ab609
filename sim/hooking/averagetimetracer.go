package hooking

import "math"

// AverageTimeTracer collects the duration of every finished task that passes
// its filter. Overlapping tasks are measured independently.
type AverageTimeTracer struct {
	timeTeller TimeTeller
	filter     TaskFilter

	inflight  map[string]float64
	totalTime float64
	maxTime   float64
	taskCount uint64
}

// NewAverageTimeTracer creates a new AverageTimeTracer.
func NewAverageTimeTracer(
	timeTeller TimeTeller,
	filter TaskFilter,
) *AverageTimeTracer {
	return &AverageTimeTracer{
		timeTeller: timeTeller,
		filter:     filter,
		inflight:   make(map[string]float64),
	}
}

// Func records the start and end of tasks.
func (t *AverageTimeTracer) Func(ctx HookCtx) {
	switch ctx.Pos {
	case HookPosTaskStart:
		t.StartTask(ctx.Item.(TaskStart))
	case HookPosTaskEnd:
		t.EndTask(ctx.Item.(TaskEnd))
	}
}

// StartTask records the task start time.
func (t *AverageTimeTracer) StartTask(taskStart TaskStart) {
	if !t.filter.accept(taskStart) {
		return
	}

	t.inflight[taskStart.ID] = t.timeTeller.Now()
}

// EndTask adds the task's duration to the totals.
func (t *AverageTimeTracer) EndTask(taskEnd TaskEnd) {
	start, ok := t.inflight[taskEnd.ID]
	if !ok {
		return
	}

	delete(t.inflight, taskEnd.ID)

	d := t.timeTeller.Now() - start
	t.totalTime += d
	t.maxTime = math.Max(t.maxTime, d)
	t.taskCount++
}

// AverageTime returns the mean duration of the finished tasks, or 0 if none
// has finished.
func (t *AverageTimeTracer) AverageTime() float64 {
	if t.taskCount == 0 {
		return 0
	}

	return t.totalTime / float64(t.taskCount)
}

// TotalTime returns the summed duration of the finished tasks.
func (t *AverageTimeTracer) TotalTime() float64 {
	return t.totalTime
}

// MaxTime returns the longest finished task duration.
func (t *AverageTimeTracer) MaxTime() float64 {
	return t.maxTime
}

// TotalCount returns the number of finished tasks.
func (t *AverageTimeTracer) TotalCount() uint64 {
	return t.taskCount
}

// InflightCount returns the number of tasks started but not finished.
func (t *AverageTimeTracer) InflightCount() int {
	return len(t.inflight)
}
