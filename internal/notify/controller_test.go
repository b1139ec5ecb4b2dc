package notify

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const window = 5 * time.Second

func TestShow_MakesMessageVisible(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewController(window, clock, nil)

	c.Show("It's going to rain soon, don't forget your umbrella.")

	state := c.State()
	assert.True(t, state.Visible)
	assert.Equal(t, "It's going to rain soon, don't forget your umbrella.", state.Message)
}

func TestTimerElapses_HidesMessage(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewController(window, clock, nil)

	c.Show("advisory")
	clock.Advance(window)

	state := c.State()
	assert.False(t, state.Visible)
	assert.Empty(t, state.Message)
}

func TestShow_BeforeExpiryReplacesAndRestartsWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewController(window, clock, nil)

	c.Show("A")
	clock.Advance(3 * time.Second)
	c.Show("B")

	// 4s after the second Show: the original window for "A" would have
	// elapsed by now, but "B" restarted it.
	clock.Advance(4 * time.Second)
	state := c.State()
	require.True(t, state.Visible)
	assert.Equal(t, "B", state.Message)

	// The full fresh window for "B" ends.
	clock.Advance(time.Second)
	assert.False(t, c.State().Visible)
}

func TestShow_NeverOverlapsMessages(t *testing.T) {
	clock := clockwork.NewFakeClock()

	var transitions []State
	c := NewController(window, clock, func(s State) {
		transitions = append(transitions, s)
	})

	c.Show("A")
	c.Show("B")
	clock.Advance(window)

	require.Len(t, transitions, 3)
	assert.Equal(t, State{Message: "A", Visible: true}, transitions[0])
	assert.Equal(t, State{Message: "B", Visible: true}, transitions[1])
	assert.Equal(t, State{}, transitions[2])

	visible := 0
	for _, s := range transitions {
		if s.Visible {
			visible++
		}
	}
	// Two shows, one hide: no transition ever reported a second
	// simultaneously visible message.
	assert.Equal(t, 2, visible)
}

func TestShow_AfterExpiryStartsFreshWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewController(window, clock, nil)

	c.Show("first")
	clock.Advance(window)
	require.False(t, c.State().Visible)

	c.Show("second")
	clock.Advance(window - time.Millisecond)
	assert.True(t, c.State().Visible)
	clock.Advance(time.Millisecond)
	assert.False(t, c.State().Visible)
}
