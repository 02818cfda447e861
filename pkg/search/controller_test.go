package search

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTarget struct {
	mu      sync.Mutex
	applied []string
	clears  int
}

func (r *recordingTarget) ApplyFilter(q string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, q)
}

func (r *recordingTarget) ClearFilter() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
}

// manualClock hands out timers that only fire when told to.
type manualClock struct {
	timers []*manualTimer
}

type manualTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &manualTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// elapse fires every timer that is still armed.
func (c *manualClock) elapse() {
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			t.f()
		}
	}
}

func newManual(t *testing.T) (*Controller, *recordingTarget, *manualClock) {
	t.Helper()
	target := &recordingTarget{}
	clock := &manualClock{}
	return NewController(target, WithAfterFunc(clock.AfterFunc)), target, clock
}

func TestOnQueryChangedAppliesOnceWithLastText(t *testing.T) {
	c, target, clock := newManual(t)

	c.OnQueryChanged("a")
	c.OnQueryChanged("ab")
	c.OnQueryChanged("abc")

	assert.Empty(t, target.applied, "nothing applies inside the window")
	clock.elapse()

	assert.Equal(t, []string{"abc"}, target.applied)
	assert.Equal(t, "abc", c.State().Query)
	for _, tm := range clock.timers {
		assert.Equal(t, DefaultDelay, tm.d)
	}
}

func TestStaleTimerIgnored(t *testing.T) {
	c, target, clock := newManual(t)

	c.OnQueryChanged("a")
	first := clock.timers[0]
	c.OnQueryChanged("ab")

	// A timer that raced past Stop must not apply the superseded text.
	first.f()
	assert.Empty(t, target.applied)

	clock.elapse()
	assert.Equal(t, []string{"ab"}, target.applied)
}

func TestEmptyQueryClears(t *testing.T) {
	c, target, clock := newManual(t)

	c.OnQueryChanged("x")
	c.OnQueryChanged("")
	clock.elapse()

	assert.Empty(t, target.applied)
	assert.Equal(t, 1, target.clears)
}

func TestToggleVisibilityClearsImmediately(t *testing.T) {
	c, target, clock := newManual(t)

	c.ToggleVisibility()
	assert.True(t, c.State().Active)
	assert.Equal(t, 1, target.clears)

	c.OnQueryChanged("abc")
	c.ToggleVisibility()

	assert.Equal(t, State{}, c.State())
	assert.Equal(t, 2, target.clears)

	clock.elapse()
	assert.Empty(t, target.applied, "hiding cancels the pending application")
}

func TestClearKeepsVisibility(t *testing.T) {
	c, target, clock := newManual(t)

	c.ToggleVisibility()
	c.OnQueryChanged("abc")
	c.Clear()

	assert.Equal(t, State{Active: true}, c.State())
	clock.elapse()
	assert.Empty(t, target.applied)
	assert.Equal(t, 2, target.clears)
}

func TestFlush(t *testing.T) {
	c, target, clock := newManual(t)

	c.Flush()
	assert.Empty(t, target.applied)

	c.OnQueryChanged("abc")
	c.Flush()
	assert.Equal(t, []string{"abc"}, target.applied)

	clock.elapse()
	assert.Len(t, target.applied, 1)
}

func TestRealTimer(t *testing.T) {
	target := &recordingTarget{}
	c := NewController(target, WithDelay(10*time.Millisecond))

	c.OnQueryChanged("a")
	c.OnQueryChanged("ab")

	require.Eventually(t, func() bool {
		target.mu.Lock()
		defer target.mu.Unlock()
		return len(target.applied) == 1
	}, time.Second, 5*time.Millisecond)

	target.mu.Lock()
	defer target.mu.Unlock()
	assert.Equal(t, []string{"ab"}, target.applied)
}

// gatedTarget records calls in order and holds ApplyFilter until released.
type gatedTarget struct {
	mu      sync.Mutex
	events  []string
	entered chan struct{}
	release chan struct{}
}

func (g *gatedTarget) ApplyFilter(q string) {
	close(g.entered)
	<-g.release
	g.record("apply:" + q)
}

func (g *gatedTarget) ClearFilter() { g.record("clear") }

func (g *gatedTarget) record(ev string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, ev)
}

func (g *gatedTarget) log() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.events...)
}

func TestHideDuringApplicationEndsCleared(t *testing.T) {
	target := &gatedTarget{entered: make(chan struct{}), release: make(chan struct{})}
	clock := &manualClock{}
	c := NewController(target, WithAfterFunc(clock.AfterFunc))

	c.ToggleVisibility()
	c.OnQueryChanged("x")
	go clock.elapse()
	<-target.entered

	hidden := make(chan struct{})
	go func() {
		c.ToggleVisibility()
		close(hidden)
	}()

	select {
	case <-hidden:
		t.Fatal("hide returned while the filter was still being applied")
	case <-time.After(20 * time.Millisecond):
	}
	close(target.release)
	<-hidden

	assert.Equal(t, State{}, c.State())
	assert.Equal(t, []string{"clear", "apply:x", "clear"}, target.log())
}
