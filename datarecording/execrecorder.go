package datarecording

import (
	"os"
	"strings"
	"time"
)

// ExecTable is the table that describes the program execution.
const ExecTable = "exec_info"

const timeLayout = "2006-01-02 15:04:05.000000000"

type execInfo struct {
	Property string
	Value    string
}

// ExecRecorder records how and when the simulator was invoked.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []execInfo
}

// NewExecRecorder creates the exec_info table on the recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	recorder.CreateTable(ExecTable, execInfo{})

	return &ExecRecorder{recorder: recorder}
}

// Start notes the command line, working directory and start time.
func (e *ExecRecorder) Start() {
	e.entries = append(e.entries,
		execInfo{"Start Time", time.Now().Format(timeLayout)},
		execInfo{"Command", strings.Join(os.Args, " ")},
	)

	if cwd, err := os.Getwd(); err == nil {
		e.entries = append(e.entries, execInfo{"Working Directory", cwd})
	}
}

// Note adds a property of the execution.
func (e *ExecRecorder) Note(property, value string) {
	e.entries = append(e.entries, execInfo{property, value})
}

// End writes the notes along with the end time.
func (e *ExecRecorder) End() {
	e.entries = append(e.entries,
		execInfo{"End Time", time.Now().Format(timeLayout)})

	for _, entry := range e.entries {
		e.recorder.InsertData(ExecTable, entry)
	}

	e.entries = nil

	e.recorder.Flush()
}
