package hooking

// TagCountTracer counts how many times each tag is attached to the tasks that
// pass its filter.
type TagCountTracer struct {
	filter TaskFilter

	inflight map[string]struct{}
	tagNames []string
	tagCount map[string]uint64
}

// NewTagCountTracer creates a new TagCountTracer.
func NewTagCountTracer(filter TaskFilter) *TagCountTracer {
	return &TagCountTracer{
		filter:   filter,
		inflight: make(map[string]struct{}),
		tagCount: make(map[string]uint64),
	}
}

// Func records task starts, tags and ends.
func (t *TagCountTracer) Func(ctx HookCtx) {
	switch ctx.Pos {
	case HookPosTaskStart:
		t.StartTask(ctx.Item.(TaskStart))
	case HookPosTaskTag:
		t.TagTask(ctx.Item.(TaskTag))
	case HookPosTaskEnd:
		t.EndTask(ctx.Item.(TaskEnd))
	}
}

// StartTask starts following a task.
func (t *TagCountTracer) StartTask(taskStart TaskStart) {
	if !t.filter.accept(taskStart) {
		return
	}

	t.inflight[taskStart.ID] = struct{}{}
}

// TagTask counts a tag if its task is followed.
func (t *TagCountTracer) TagTask(taskTag TaskTag) {
	if _, ok := t.inflight[taskTag.TaskID]; !ok {
		return
	}

	if _, seen := t.tagCount[taskTag.What]; !seen {
		t.tagNames = append(t.tagNames, taskTag.What)
	}

	t.tagCount[taskTag.What]++
}

// EndTask stops following a task.
func (t *TagCountTracer) EndTask(taskEnd TaskEnd) {
	delete(t.inflight, taskEnd.ID)
}

// TagNames returns the tags seen, in first-seen order.
func (t *TagCountTracer) TagNames() []string {
	return t.tagNames
}

// TagCount returns how many times the tag was attached.
func (t *TagCountTracer) TagCount(tagName string) uint64 {
	return t.tagCount[tagName]
}
