package queueing

import (
	"fmt"
	"strconv"

	"github.com/sarchlab/simlab/sim/hooking"
)

// ChannelState is the condition of a shared medium.
type ChannelState int

// Channel states.
const (
	ChannelIdle ChannelState = iota
	ChannelSuccess
	ChannelColliding
)

func (s ChannelState) String() string {
	switch s {
	case ChannelIdle:
		return "IDLE"
	case ChannelSuccess:
		return "SUCCESS"
	case ChannelColliding:
		return "COLLIDING"
	default:
		return "ChannelState(" + strconv.Itoa(int(s)) + ")"
	}
}

// TransmissionTaskKind is the task kind a Channel reports to its hooks.
const TransmissionTaskKind = "transmission"

// A Transmission is one station's use of a Channel.
type Transmission struct {
	id       uint64
	collided bool
}

// Collided tells whether another transmission overlapped this one.
func (t *Transmission) Collided() bool {
	return t.collided
}

// A Channel is a medium shared by contending stations. Any overlap of two
// transmissions corrupts both.
type Channel struct {
	hooking.HookableBase

	name          string
	active        []*Transmission
	lastID        uint64
	numCollisions uint64
}

// NewChannel creates an idle channel.
func NewChannel(name string) *Channel {
	return &Channel{name: name}
}

// Name returns the name of the channel.
func (c *Channel) Name() string {
	return c.name
}

// State returns IDLE with no transmitter, COLLIDING while any active
// transmission has been overlapped, and SUCCESS otherwise.
func (c *Channel) State() ChannelState {
	if len(c.active) == 0 {
		return ChannelIdle
	}

	for _, tx := range c.active {
		if tx.collided {
			return ChannelColliding
		}
	}

	return ChannelSuccess
}

// Transmitting returns the number of stations currently transmitting.
func (c *Channel) Transmitting() int {
	return len(c.active)
}

// NumCollisions returns how many transmissions have ended collided.
func (c *Channel) NumCollisions() uint64 {
	return c.numCollisions
}

// Begin starts a transmission. If others are in progress, all of them are
// marked collided.
func (c *Channel) Begin() *Transmission {
	c.lastID++
	tx := &Transmission{id: c.lastID}
	c.active = append(c.active, tx)

	if len(c.active) > 1 {
		for _, other := range c.active {
			other.collided = true
		}
	}

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Pos:    hooking.HookPosTaskStart,
			Item: hooking.TaskStart{
				ID:    c.taskID(tx),
				Kind:  TransmissionTaskKind,
				What:  "transmission",
				Where: c.name,
			},
		})
	}

	return tx
}

// End finishes a transmission and reports whether it collided.
func (c *Channel) End(tx *Transmission) (collided bool, err error) {
	idx := -1
	for i, active := range c.active {
		if active == tx {
			idx = i
			break
		}
	}

	if idx < 0 {
		return false, fmt.Errorf("%w: transmission not on %s",
			ErrResourceIdle, c.name)
	}

	c.active = append(c.active[:idx], c.active[idx+1:]...)

	if tx.collided {
		c.numCollisions++
	}

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Pos:    hooking.HookPosTaskEnd,
			Item:   hooking.TaskEnd{ID: c.taskID(tx)},
		})
	}

	return tx.collided, nil
}

func (c *Channel) taskID(tx *Transmission) string {
	return c.name + "#" + strconv.FormatUint(tx.id, 10)
}
