// Package sync keeps the project tree of the selected workspace in step with
// the workspace service and the notifications on the bus.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	gosync "sync"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-projects/pkg/bus"
	"github.com/mattsolo1/grove-projects/pkg/intent"
	"github.com/mattsolo1/grove-projects/pkg/models"
	"github.com/mattsolo1/grove-projects/pkg/status"
	"github.com/mattsolo1/grove-projects/pkg/tree"
	"github.com/mattsolo1/grove-projects/pkg/workspace"
)

// ErrSuperseded is returned by a reload that was overtaken by a later one.
// Its result was discarded.
var ErrSuperseded = errors.New("reload superseded")

// WorkspaceService fetches workspace descriptions.
type WorkspaceService interface {
	ListNames(ctx context.Context) ([]string, error)
	Load(ctx context.Context, name string) (*models.Workspace, error)
}

// IntentSink receives the publish intents carried by workspace-changed
// notifications.
type IntentSink interface {
	Publish(ctx context.Context, path, workspace string, onSuccess func()) intent.Outcome
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore sets where the selected workspace is persisted. The default keeps
// it in memory.
func WithStore(s workspace.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithBuilder replaces the tree builder, e.g. to use configured icon sets.
func WithBuilder(b *tree.Builder) Option {
	return func(e *Engine) { e.builder = b }
}

// WithReporter sets the status reporter.
func WithReporter(r status.Reporter) Option {
	return func(e *Engine) { e.reporter = r }
}

// WithIntents sets the sink for publish intents.
func WithIntents(s IntentSink) Option {
	return func(e *Engine) { e.intents = s }
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger.WithField("component", "sync")
		}
	}
}

// Engine owns the displayed forest and the selected workspace.
type Engine struct {
	service  WorkspaceService
	store    workspace.Store
	builder  *tree.Builder
	reporter status.Reporter
	logger   *logrus.Entry

	mu         gosync.Mutex
	intents    IntentSink
	selected   workspace.Ref
	forest     []*tree.Node
	names      []string
	loading    bool
	initial    bool
	generation uint64
	cancel     context.CancelFunc
	baseCtx    context.Context

	subs    map[int]func(Snapshot)
	nextSub int

	// deliverMu serializes snapshot delivery; delivered is the highest
	// generation handed to subscribers so far.
	deliverMu gosync.Mutex
	delivered uint64
}

// New creates an engine backed by svc.
func New(svc WorkspaceService, opts ...Option) *Engine {
	l := logrus.New()
	l.SetOutput(io.Discard)

	e := &Engine{
		service:  svc,
		store:    workspace.NewMemoryStore(nil),
		builder:  tree.NewBuilder(nil),
		reporter: status.Discard{},
		logger:   logrus.NewEntry(l),
		selected: workspace.Default(),
		forest:   []*tree.Node{},
		names:    []string{},
		baseCtx:  context.Background(),
		subs:     make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetIntents sets the sink for publish intents after construction. The
// dispatcher resolves nodes through the engine, so one of the two has to be
// wired late.
func (e *Engine) SetIntents(s IntentSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.intents = s
}

// Start restores the selected workspace and performs the initial load of the
// tree and the workspace list. ctx also bounds reloads triggered by bus
// notifications.
func (e *Engine) Start(ctx context.Context) error {
	ref := e.Restore()

	e.mu.Lock()
	e.baseCtx = ctx
	e.mu.Unlock()

	e.logger.WithField("workspace", ref.Name).Debug("starting")

	return errors.Join(
		e.ReloadWorkspace(ctx, true),
		e.ReloadWorkspaceNames(ctx),
	)
}

// Restore loads the selected workspace from the store, persisting the
// default when nothing usable is stored.
func (e *Engine) Restore() workspace.Ref {
	ref, err := workspace.Restore(e.store)
	if err != nil {
		e.logger.WithError(err).Warn("could not restore selected workspace, using default")
	}

	e.mu.Lock()
	e.selected = ref
	e.mu.Unlock()
	return ref
}

// ReloadWorkspace fetches the selected workspace and replaces the forest. A
// reload that is still in flight is cancelled. On failure the forest is left
// empty.
func (e *Engine) ReloadWorkspace(ctx context.Context, initial bool) error {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.generation++
	gen := e.generation
	name := e.selected.Name
	e.loading = true
	e.initial = initial
	snap := e.snapshotLocked()
	e.mu.Unlock()
	defer cancel()

	log := e.logger.WithFields(logrus.Fields{"workspace": name, "generation": gen})
	log.Debug("reloading workspace")
	e.notify(snap)

	desc, err := e.service.Load(ctx, name)

	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		log.Debug("discarding superseded reload")
		return ErrSuperseded
	}
	e.cancel = nil
	e.loading = false
	if err != nil {
		e.forest = []*tree.Node{}
	} else {
		e.forest = e.builder.Build(desc, name)
	}
	snap = e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
	if err != nil {
		log.WithError(err).Error("failed to load workspace")
		e.reporter.ReportError("Unable to load workspace data")
		return fmt.Errorf("reload workspace %q: %w", name, err)
	}
	log.WithField("nodes", tree.Count(snap.Forest)).Debug("workspace reloaded")
	return nil
}

// SwitchWorkspace selects another workspace, persists the choice and reloads.
// Selecting the current workspace does nothing.
func (e *Engine) SwitchWorkspace(ctx context.Context, name string) error {
	ref := workspace.Ref{Name: name}
	if err := ref.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	if e.selected.Name == name {
		e.mu.Unlock()
		return nil
	}
	e.selected = ref
	e.mu.Unlock()

	if err := e.store.SetSelected(ref); err != nil {
		e.logger.WithError(err).WithField("workspace", name).Warn("failed to persist selected workspace")
		e.reporter.ReportError(fmt.Sprintf("Unable to save selected workspace '%s'", name))
	}

	return e.ReloadWorkspace(ctx, false)
}

// OnWorkspaceChanged reacts to a workspace-changed notification. A change
// of the selected workspace reloads it. A publish intent is forwarded
// whichever workspace the notification names.
func (e *Engine) OnWorkspaceChanged(ctx context.Context, ev bus.WorkspaceChanged) error {
	e.mu.Lock()
	current := e.selected.Name == ev.WorkspaceName
	intents := e.intents
	e.mu.Unlock()

	var errs []error
	if current {
		if err := e.ReloadWorkspace(ctx, false); err != nil && !errors.Is(err, ErrSuperseded) {
			errs = append(errs, err)
		}
	}

	if p := ev.Publish; p != nil {
		if intents == nil {
			e.logger.WithField("workspace", ev.WorkspaceName).Warn("publish intent dropped, no dispatcher")
			return errors.Join(errs...)
		}
		var out intent.Outcome
		switch {
		case p.Workspace:
			// whole-workspace intents go out as a plain path publish, unscoped
			out = intents.Publish(ctx, intent.WorkspacePath(ev.WorkspaceName), "", nil)
		case p.Path != "":
			out = intents.Publish(ctx, p.Path, ev.WorkspaceName, nil)
		}
		if out.Err != nil {
			errs = append(errs, out.Err)
		}
	}
	return errors.Join(errs...)
}

// ReloadWorkspaceNames refreshes the list of known workspaces. On failure the
// previous list is kept.
func (e *Engine) ReloadWorkspaceNames(ctx context.Context) error {
	names, err := e.service.ListNames(ctx)
	if err != nil {
		e.logger.WithError(err).Error("failed to load workspace list")
		e.reporter.ReportError("Unable to load workspace list")
		return fmt.Errorf("reload workspace names: %w", err)
	}

	e.mu.Lock()
	e.names = append([]string(nil), names...)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
	return nil
}

// Selected returns the selected workspace.
func (e *Engine) Selected() workspace.Ref {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// Find returns the displayed node with the given id, or nil.
func (e *Engine) Find(id string) *tree.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return tree.Find(e.forest, id)
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Subscribe registers fn to receive every committed state change. It returns
// a function that removes the subscription. Deliveries are serialized, so fn
// must not wait on another engine call that publishes a snapshot.
func (e *Engine) Subscribe(fn func(Snapshot)) func() {
	e.mu.Lock()
	e.nextSub++
	id := e.nextSub
	e.subs[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

// Attach subscribes the engine to workspace-changed notifications on hub.
func (e *Engine) Attach(hub *bus.Hub) func() {
	return hub.Subscribe(bus.TopicWorkspaceChanged, func(msg bus.Message) {
		ev, err := bus.Decode[bus.WorkspaceChanged](msg.Data)
		if err != nil {
			e.logger.WithError(err).Warn("malformed workspace-changed notification")
			return
		}

		e.mu.Lock()
		ctx := e.baseCtx
		e.mu.Unlock()

		if err := e.OnWorkspaceChanged(ctx, ev); err != nil {
			e.logger.WithError(err).WithField("workspace", ev.WorkspaceName).Debug("workspace-changed handling failed")
		}
	})
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Workspace:      e.selected.Name,
		Forest:         e.forest,
		WorkspaceNames: append([]string{}, e.names...),
		Loading:        e.loading,
		Initial:        e.initial,
		Generation:     e.generation,
	}
}

// notify hands snap to the subscribers. Snapshots older than one already
// delivered are dropped, so subscribers never move back a generation.
func (e *Engine) notify(snap Snapshot) {
	e.deliverMu.Lock()
	defer e.deliverMu.Unlock()
	if snap.Generation < e.delivered {
		e.logger.WithField("generation", snap.Generation).Debug("dropping stale snapshot")
		return
	}
	e.delivered = snap.Generation

	e.mu.Lock()
	subs := make([]func(Snapshot), 0, len(e.subs))
	for id := 1; id <= e.nextSub; id++ {
		if fn, ok := e.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	e.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
