package hooking

// BusyTimeTracer measures how long a resource has at least one task in
// progress. Overlapping tasks count once, so the result is the length of the
// union of the task intervals.
type BusyTimeTracer struct {
	timeTeller TimeTeller
	filter     TaskFilter

	inflight  map[string]struct{}
	busySince float64
	busyTime  float64
}

// NewBusyTimeTracer creates a new BusyTimeTracer.
func NewBusyTimeTracer(
	timeTeller TimeTeller,
	filter TaskFilter,
) *BusyTimeTracer {
	return &BusyTimeTracer{
		timeTeller: timeTeller,
		filter:     filter,
		inflight:   make(map[string]struct{}),
	}
}

// Func records the start and end of tasks.
func (t *BusyTimeTracer) Func(ctx HookCtx) {
	switch ctx.Pos {
	case HookPosTaskStart:
		t.StartTask(ctx.Item.(TaskStart))
	case HookPosTaskEnd:
		t.EndTask(ctx.Item.(TaskEnd))
	}
}

// StartTask marks a task as in progress.
func (t *BusyTimeTracer) StartTask(taskStart TaskStart) {
	if !t.filter.accept(taskStart) {
		return
	}

	if len(t.inflight) == 0 {
		t.busySince = t.timeTeller.Now()
	}

	t.inflight[taskStart.ID] = struct{}{}
}

// EndTask marks a task as finished. Unknown task IDs are ignored.
func (t *BusyTimeTracer) EndTask(taskEnd TaskEnd) {
	if _, ok := t.inflight[taskEnd.ID]; !ok {
		return
	}

	delete(t.inflight, taskEnd.ID)

	if len(t.inflight) == 0 {
		t.busyTime += t.timeTeller.Now() - t.busySince
	}
}

// BusyTime returns the busy time so far, including the open busy period.
func (t *BusyTimeTracer) BusyTime() float64 {
	if len(t.inflight) == 0 {
		return t.busyTime
	}

	return t.busyTime + t.timeTeller.Now() - t.busySince
}

// Utilization returns the busy fraction of the elapsed simulated time.
func (t *BusyTimeTracer) Utilization() float64 {
	now := t.timeTeller.Now()
	if now <= 0 {
		return 0
	}

	return t.BusyTime() / now
}
