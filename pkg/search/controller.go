// Package search drives the tree's quick filter: it debounces query input
// and computes which nodes a query leaves visible.
package search

import (
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultDelay is the quiescence window before a typed query is applied.
const DefaultDelay = 250 * time.Millisecond

// Target is the surface the filter is applied to.
type Target interface {
	ApplyFilter(query string)
	ClearFilter()
}

// Timer is the part of *time.Timer the controller needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// State is the visible search state.
type State struct {
	Query  string `json:"query"`
	Active bool   `json:"active"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithDelay overrides the debounce window. Non-positive values are ignored.
func WithDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithAfterFunc replaces the timer source, mostly for tests.
func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Controller) {
		if fn != nil {
			c.afterFunc = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger.WithField("component", "search")
		}
	}
}

// Controller collapses bursts of query changes into a single filter
// application on the trailing edge.
type Controller struct {
	target    Target
	delay     time.Duration
	afterFunc AfterFunc
	logger    *logrus.Entry

	// applyMu is held across every call into target, so a clear can never
	// be overtaken by an application that was already under way.
	applyMu sync.Mutex

	mu      sync.Mutex
	state   State
	pending Timer
	seq     uint64 // bumped whenever the pending application is superseded
}

// NewController creates a controller bound to target.
func NewController(target Target, opts ...Option) *Controller {
	l := logrus.New()
	l.SetOutput(io.Discard)

	c := &Controller{
		target:    target,
		delay:     DefaultDelay,
		afterFunc: stdAfterFunc,
		logger:    logrus.NewEntry(l),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnQueryChanged records the new query and (re)starts the debounce window.
func (c *Controller) OnQueryChanged(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Query = text
	c.cancelLocked()

	seq := c.seq
	c.pending = c.afterFunc(c.delay, func() { c.fire(seq) })
}

// ToggleVisibility flips whether search is shown. Either way the query is
// reset and the filter removed right away.
func (c *Controller) ToggleVisibility() {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	c.mu.Lock()
	c.state.Active = !c.state.Active
	c.resetLocked()
	active := c.state.Active
	c.mu.Unlock()

	c.logger.WithField("active", active).Debug("search visibility toggled")
	c.target.ClearFilter()
}

// Clear resets the query and removes the filter without changing
// visibility.
func (c *Controller) Clear() {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()

	c.target.ClearFilter()
}

// State returns the current search state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Flush applies a pending query immediately.
func (c *Controller) Flush() {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return
	}
	seq := c.seq
	c.mu.Unlock()
	c.fire(seq)
}

func (c *Controller) fire(seq uint64) {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return
	}
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.seq++
	query := c.state.Query
	c.mu.Unlock()

	c.logger.WithField("query", query).Debug("applying filter")
	if query == "" {
		c.target.ClearFilter()
		return
	}
	c.target.ApplyFilter(query)
}

func (c *Controller) resetLocked() {
	c.state.Query = ""
	c.cancelLocked()
}

func (c *Controller) cancelLocked() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.seq++
}
