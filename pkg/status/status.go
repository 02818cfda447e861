// Package status reports busy indicators, errors and informational messages
// to whoever is presenting them.
package status

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-projects/pkg/bus"
)

// Reporter is the sink for user-visible status.
type Reporter interface {
	ShowBusy(text string)
	HideBusy()
	ReportError(text string)
	ReportMessage(text string)
}

// LogReporter writes status to a logrus logger.
type LogReporter struct {
	logger *logrus.Entry
}

// NewLogReporter creates a reporter. A nil logger discards output.
func NewLogReporter(logger *logrus.Entry) *LogReporter {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = logrus.NewEntry(l)
	}
	return &LogReporter{logger: logger.WithField("component", "status")}
}

func (r *LogReporter) ShowBusy(text string)      { r.logger.WithField("busy", true).Info(text) }
func (r *LogReporter) HideBusy()                 { r.logger.WithField("busy", false).Debug("idle") }
func (r *LogReporter) ReportError(text string)   { r.logger.Error(text) }
func (r *LogReporter) ReportMessage(text string) { r.logger.Info(text) }

// HubReporter announces status on the bus so other components can render it.
type HubReporter struct {
	hub *bus.Hub
}

// NewHubReporter creates a reporter that publishes to hub.
func NewHubReporter(hub *bus.Hub) *HubReporter {
	return &HubReporter{hub: hub}
}

func (r *HubReporter) ShowBusy(text string)      { r.hub.Publish(bus.TopicStatusBusy, text) }
func (r *HubReporter) HideBusy()                 { r.hub.Publish(bus.TopicStatusIdle, nil) }
func (r *HubReporter) ReportError(text string)   { r.hub.Publish(bus.TopicStatusError, text) }
func (r *HubReporter) ReportMessage(text string) { r.hub.Publish(bus.TopicStatusMessage, text) }

// Multi fans every call out to several reporters.
type Multi []Reporter

func (m Multi) ShowBusy(text string) {
	for _, r := range m {
		r.ShowBusy(text)
	}
}

func (m Multi) HideBusy() {
	for _, r := range m {
		r.HideBusy()
	}
}

func (m Multi) ReportError(text string) {
	for _, r := range m {
		r.ReportError(text)
	}
}

func (m Multi) ReportMessage(text string) {
	for _, r := range m {
		r.ReportMessage(text)
	}
}

// Fanout is a Multi whose members can be added after it was handed out.
type Fanout struct {
	mu        sync.RWMutex
	reporters map[int]Reporter
	order     []int
	nextID    int
}

// NewFanout creates a fan-out over the initial reporters.
func NewFanout(initial ...Reporter) *Fanout {
	f := &Fanout{reporters: make(map[int]Reporter)}
	for _, r := range initial {
		f.Add(r)
	}
	return f
}

// Add registers r and returns a function that removes it again.
func (f *Fanout) Add(r Reporter) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	f.reporters[id] = r
	f.order = append(f.order, id)

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.reporters, id)
	}
}

func (f *Fanout) members() Multi {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(Multi, 0, len(f.reporters))
	for _, id := range f.order {
		if r, ok := f.reporters[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

func (f *Fanout) ShowBusy(text string)      { f.members().ShowBusy(text) }
func (f *Fanout) HideBusy()                 { f.members().HideBusy() }
func (f *Fanout) ReportError(text string)   { f.members().ReportError(text) }
func (f *Fanout) ReportMessage(text string) { f.members().ReportMessage(text) }

// Discard drops everything.
type Discard struct{}

func (Discard) ShowBusy(string)      {}
func (Discard) HideBusy()            {}
func (Discard) ReportError(string)   {}
func (Discard) ReportMessage(string) {}
