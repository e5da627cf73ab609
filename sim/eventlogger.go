package sim

import (
	"reflect"

	"github.com/sarchlab/simlab/sim/hooking"
	"github.com/sirupsen/logrus"
)

// EventLogger is a hook that logs every event before it is handled.
type EventLogger struct {
	logger logrus.FieldLogger
}

// NewEventLogger returns an EventLogger that writes at debug level.
func NewEventLogger(logger logrus.FieldLogger) *EventLogger {
	return &EventLogger{logger: logger}
}

// Func writes the event information into the logger.
func (h *EventLogger) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	fields := logrus.Fields{
		"time":  float64(evt.Time()),
		"event": reflect.TypeOf(evt).String(),
	}

	if named, ok := evt.Handler().(Named); ok {
		fields["handler"] = named.Name()
	}

	h.logger.WithFields(fields).Debug("event")
}
