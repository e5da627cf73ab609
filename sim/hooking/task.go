package hooking

// Hook positions for the lifetime of a task. Resources report the service of
// an item as a task so that tracers can measure busy time and delays.
var (
	HookPosTaskStart = &HookPos{Name: "HookPosTaskStart"}
	HookPosTaskTag   = &HookPos{Name: "HookPosTaskTag"}
	HookPosTaskEnd   = &HookPos{Name: "HookPosTaskEnd"}
)

// TaskStart is passed to hooks when a task starts.
type TaskStart struct {
	ID    string
	Kind  string
	What  string
	Where string
}

// TaskTag attaches a label to a running task.
type TaskTag struct {
	TaskID string
	What   string
}

// TaskEnd is passed to hooks when a task ends.
type TaskEnd struct {
	ID string
}

type task struct {
	ID        string
	Kind      string
	What      string
	Where     string
	StartTime float64
	Tags      []string
}

// TaskFilter selects the tasks a tracer cares about. A nil filter accepts
// everything.
type TaskFilter func(t TaskStart) bool

// FilterByWhere accepts the tasks that happen at the named resource.
func FilterByWhere(where string) TaskFilter {
	return func(t TaskStart) bool {
		return t.Where == where
	}
}

// FilterByKind accepts the tasks of the given kind.
func FilterByKind(kind string) TaskFilter {
	return func(t TaskStart) bool {
		return t.Kind == kind
	}
}

func (f TaskFilter) accept(t TaskStart) bool {
	return f == nil || f(t)
}

// A TimeTeller tells the current simulated time. It is declared here rather
// than imported from the sim package to avoid an import cycle.
type TimeTeller interface {
	Now() float64
}
