package browser

import (
	"context"
	gosync "sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattsolo1/grove-projects/pkg/sync"
)

type snapshotMsg struct {
	snap sync.Snapshot
}

type busyMsg struct {
	text string
}

type idleMsg struct{}

type statusMsg struct {
	text  string
	isErr bool
}

type filterMsg struct {
	query string
}

type actionDoneMsg struct {
	err error
}

// Inbox funnels everything that happens outside the bubbletea loop (engine
// snapshots, status reports, debounced filter applications) into it as
// messages. It is a status.Reporter and a search.Target.
type Inbox struct {
	ch   chan tea.Msg
	done <-chan struct{}

	// Filter changes only matter by their latest value. They are kept in a
	// slot instead of the queue so that setting one never blocks, even from
	// the bubbletea goroutine.
	filterMu    gosync.Mutex
	filter      string
	filterReady chan struct{}
}

// NewInbox creates an inbox. Sends block until the browser receives them or
// ctx is done; filter changes never block.
func NewInbox(ctx context.Context) *Inbox {
	return &Inbox{
		ch:          make(chan tea.Msg, 32),
		done:        ctx.Done(),
		filterReady: make(chan struct{}, 1),
	}
}

func (i *Inbox) send(msg tea.Msg) {
	select {
	case i.ch <- msg:
	case <-i.done:
	}
}

func (i *Inbox) ShowBusy(text string)      { i.send(busyMsg{text: text}) }
func (i *Inbox) HideBusy()                 { i.send(idleMsg{}) }
func (i *Inbox) ReportError(text string)   { i.send(statusMsg{text: text, isErr: true}) }
func (i *Inbox) ReportMessage(text string) { i.send(statusMsg{text: text}) }

func (i *Inbox) ApplyFilter(query string) { i.setFilter(query) }
func (i *Inbox) ClearFilter()             { i.setFilter("") }

func (i *Inbox) setFilter(query string) {
	i.filterMu.Lock()
	i.filter = query
	i.filterMu.Unlock()

	select {
	case i.filterReady <- struct{}{}:
	default:
	}
}

func (i *Inbox) takeFilter() filterMsg {
	i.filterMu.Lock()
	defer i.filterMu.Unlock()
	return filterMsg{query: i.filter}
}

// Snapshot forwards an engine snapshot. It has the signature Engine.Subscribe
// expects.
func (i *Inbox) Snapshot(s sync.Snapshot) { i.send(snapshotMsg{snap: s}) }

// wait returns a command that delivers the next message.
func (i *Inbox) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-i.ch:
			return msg
		case <-i.filterReady:
			return i.takeFilter()
		case <-i.done:
			return nil
		}
	}
}
