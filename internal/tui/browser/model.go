// Package browser is the interactive terminal surface of the project tree.
package browser

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattsolo1/grove-projects/internal/tui/browser/components/confirm"
	"github.com/mattsolo1/grove-projects/pkg/intent"
	"github.com/mattsolo1/grove-projects/pkg/search"
	"github.com/mattsolo1/grove-projects/pkg/sync"
	"github.com/mattsolo1/grove-projects/pkg/tree"
)

// Engine is the part of sync.Engine the browser drives.
type Engine interface {
	Start(ctx context.Context) error
	Snapshot() sync.Snapshot
	Subscribe(fn func(sync.Snapshot)) func()
	ReloadWorkspace(ctx context.Context, initial bool) error
	SwitchWorkspace(ctx context.Context, name string) error
}

// Intents is the part of intent.Dispatcher the browser drives.
type Intents interface {
	Publish(ctx context.Context, path, workspace string, onSuccess func()) intent.Outcome
	Unpublish(ctx context.Context, path, workspace string, onSuccess func()) intent.Outcome
	PublishWorkspace(ctx context.Context, name string) intent.Outcome
	UnpublishWorkspace(ctx context.Context, name string) intent.Outcome
	SelectNode(node *tree.Node, origin intent.Origin) bool
	ActivateNode(ctx context.Context, node *tree.Node) error
}

// Config wires the browser to its collaborators.
type Config struct {
	Context  context.Context
	Engine   Engine
	Intents  Intents
	Inbox    *Inbox
	Debounce time.Duration
	// Start makes Init run Engine.Start. Leave it false when the engine was
	// started by the caller.
	Start bool
}

// displayNode is a single line of the rendered tree.
type displayNode struct {
	node   *tree.Node
	prefix string
	depth  int
}

// pendingAction is what a confirmation dialog is asking about.
type pendingAction int

const (
	actionNone pendingAction = iota
	actionPublishAll
	actionUnpublishAll
)

// Model is the main model for the project browser TUI
type Model struct {
	ctx         context.Context
	engine      Engine
	intents     Intents
	inbox       *Inbox
	search      *search.Controller
	start       bool
	unsubscribe func()

	snap         sync.Snapshot
	filter       search.Result
	displayNodes []*displayNode
	collapsed    map[string]bool // by node id
	cursor       int
	scrollOffset int
	lastKey      string // For detecting 'gg' and 'z' sequences

	searchInput textinput.Model
	spinner     spinner.Model
	help        help.Model
	keys        KeyMap
	confirm     confirm.Model

	picking      bool
	pickerCursor int

	busy          string
	statusMessage string
	statusIsError bool

	width  int
	height int
}

// New creates a new TUI model.
func New(cfg Config) Model {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}

	ti := textinput.New()
	ti.Placeholder = "Search projects..."
	ti.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = DefaultTheme.Highlight

	m := Model{
		ctx:         ctx,
		engine:      cfg.Engine,
		intents:     cfg.Intents,
		inbox:       cfg.Inbox,
		search:      search.NewController(cfg.Inbox, search.WithDelay(cfg.Debounce)),
		start:       cfg.Start,
		unsubscribe: cfg.Engine.Subscribe(cfg.Inbox.Snapshot),
		snap:        cfg.Engine.Snapshot(),
		collapsed:   make(map[string]bool),
		searchInput: ti,
		spinner:     sp,
		help:        help.New(),
		keys:        keys,
		confirm:     confirm.New(),
	}
	m.buildDisplayTree()
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.inbox.wait(), m.spinner.Tick}
	if m.start {
		cmds = append(cmds, m.runAction(func(ctx context.Context) error {
			return m.engine.Start(ctx)
		}))
	}
	return tea.Batch(cmds...)
}

// Close stops receiving engine snapshots.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// runAction runs fn off the UI loop. Failures have already been reported
// through the inbox by the time the command completes.
func (m Model) runAction(fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{err: fn(ctx)}
	}
}

// current returns the node under the cursor.
func (m Model) current() *tree.Node {
	if m.cursor < 0 || m.cursor >= len(m.displayNodes) {
		return nil
	}
	return m.displayNodes[m.cursor].node
}
