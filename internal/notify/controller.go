// Package notify implements the transient advisory banner: a single-slot
// state machine that shows one message at a time and hides it after a fixed
// display window.
package notify

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// State is the externally visible banner state.
type State struct {
	Message string
	Visible bool
}

// Controller owns the banner state. Show replaces any visible message and
// restarts the display window; the only way back to hidden is the window
// elapsing. There is no queueing and no explicit dismiss.
type Controller struct {
	duration time.Duration
	clock    clockwork.Clock
	onChange func(State)

	mu    sync.Mutex
	state State
	timer clockwork.Timer
	gen   uint64 // invalidates expiry callbacks from replaced timers
}

// NewController creates a hidden banner. onChange, if non-nil, is invoked
// after every state transition; it runs with the controller unlocked.
// Pass clockwork.NewRealClock() outside of tests.
func NewController(duration time.Duration, clock clockwork.Clock, onChange func(State)) *Controller {
	return &Controller{
		duration: duration,
		clock:    clock,
		onChange: onChange,
	}
}

// Show displays the message for a full window, replacing whatever was
// visible before. The previous timer is stopped, so at most one message is
// ever visible and the window always restarts from the latest call.
func (c *Controller) Show(message string) {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.state = State{Message: message, Visible: true}
	c.timer = c.clock.AfterFunc(c.duration, func() { c.expire(gen) })
	state := c.state
	c.mu.Unlock()

	c.notify(state)
}

func (c *Controller) expire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		// A newer Show replaced this timer between Stop and fire.
		c.mu.Unlock()
		return
	}
	c.state = State{}
	c.timer = nil
	state := c.state
	c.mu.Unlock()

	c.notify(state)
}

// State returns the current banner state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) notify(state State) {
	if c.onChange != nil {
		c.onChange(state)
	}
}
