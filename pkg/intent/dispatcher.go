// Package intent turns user and bus intents on tree nodes into side effects:
// publish and unpublish requests, diff requests and selection announcements.
package intent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-projects/pkg/bus"
	"github.com/mattsolo1/grove-projects/pkg/service"
	"github.com/mattsolo1/grove-projects/pkg/status"
	"github.com/mattsolo1/grove-projects/pkg/tree"
)

// ErrUnknownNode is returned when an intent names a node that cannot be
// resolved.
var ErrUnknownNode = errors.New("unknown node")

// Context menu item ids.
const (
	ItemShowDiff  = "showDiff"
	ItemPublish   = "publish"
	ItemUnpublish = "unpublish"
)

// Publisher is the publish service.
type Publisher interface {
	Publish(ctx context.Context, path, workspace string) (int, error)
	Unpublish(ctx context.Context, path, workspace string) (int, error)
}

// Resolver looks nodes up by id in the displayed forest.
type Resolver interface {
	Find(id string) *tree.Node
}

// Origin tells how a selection came about.
type Origin int

const (
	OriginProgrammatic Origin = iota
	OriginClick
)

// Phase is the state of a single publish call.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseBusy
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseBusy:
		return "busy"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Outcome is the result of a publish or unpublish call.
type Outcome struct {
	Phase   Phase
	Code    int
	Message string // the status text that was reported
	Err     error
}

// OK reports whether the call succeeded.
func (o Outcome) OK() bool { return o.Phase == PhaseSucceeded }

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHub sets the hub selections are announced on and, unless
// WithDiffViewer is also given, diff requests are published to.
func WithHub(hub *bus.Hub) Option {
	return func(d *Dispatcher) { d.hub = hub }
}

// WithDiffViewer sets the collaborator that opens diffs.
func WithDiffViewer(v DiffViewer) Option {
	return func(d *Dispatcher) { d.diff = v }
}

// WithResolver sets the node lookup used for context menu commands.
func WithResolver(r Resolver) Option {
	return func(d *Dispatcher) { d.resolver = r }
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger.WithField("component", "intent")
		}
	}
}

// Dispatcher routes intents to the publish service, the diff viewer and
// the bus.
type Dispatcher struct {
	publisher Publisher
	reporter  status.Reporter
	diff      DiffViewer
	resolver  Resolver
	hub       *bus.Hub
	logger    *logrus.Entry
}

// New creates a dispatcher. A nil reporter discards status.
func New(publisher Publisher, reporter status.Reporter, opts ...Option) *Dispatcher {
	if reporter == nil {
		reporter = status.Discard{}
	}
	l := logrus.New()
	l.SetOutput(io.Discard)

	d := &Dispatcher{
		publisher: publisher,
		reporter:  reporter,
		logger:    logrus.NewEntry(l),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.diff == nil && d.hub != nil {
		d.diff = NewHubViewer(d.hub)
	}
	return d
}

// wording holds the status texts of one kind of publisher call.
type wording struct {
	busy, success, failure string
}

func pathWording(verb, path string) wording {
	return wording{
		busy:    fmt.Sprintf("%sing '%s'...", verb, path),
		success: fmt.Sprintf("%sed '%s'", verb, path),
		failure: fmt.Sprintf("Unable to %s '%s'", strings.ToLower(verb), path),
	}
}

func workspaceWording(verb, name string) wording {
	return wording{
		busy:    verb + "ing projects...",
		success: fmt.Sprintf("%sed all projects in '%s'", verb, name),
		failure: fmt.Sprintf("Unable to %s projects in '%s'", strings.ToLower(verb), name),
	}
}

// Publish publishes path, optionally scoped to workspace. onSuccess runs once
// if the publisher answers 201.
func (d *Dispatcher) Publish(ctx context.Context, path, workspace string, onSuccess func()) Outcome {
	return d.run(ctx, d.publisher.Publish, path, workspace, pathWording("Publish", path), onSuccess)
}

// Unpublish reverses Publish.
func (d *Dispatcher) Unpublish(ctx context.Context, path, workspace string, onSuccess func()) Outcome {
	return d.run(ctx, d.publisher.Unpublish, path, workspace, pathWording("Unpublish", path), onSuccess)
}

// PublishWorkspace publishes every project of the named workspace.
func (d *Dispatcher) PublishWorkspace(ctx context.Context, name string) Outcome {
	return d.run(ctx, d.publisher.Publish, WorkspacePath(name), "", workspaceWording("Publish", name), nil)
}

// UnpublishWorkspace unpublishes every project of the named workspace.
func (d *Dispatcher) UnpublishWorkspace(ctx context.Context, name string) Outcome {
	return d.run(ctx, d.publisher.Unpublish, WorkspacePath(name), "", workspaceWording("Unpublish", name), nil)
}

// WorkspacePath is the publisher path covering a whole workspace.
func WorkspacePath(name string) string {
	return "/" + name + "/*"
}

type publishFunc func(ctx context.Context, path, workspace string) (int, error)

func (d *Dispatcher) run(ctx context.Context, call publishFunc, path, workspace string, w wording, onSuccess func()) Outcome {
	log := d.logger.WithFields(logrus.Fields{"path": path, "workspace": workspace})

	out := Outcome{Phase: PhaseBusy}
	d.reporter.ShowBusy(w.busy)

	code, err := call(ctx, path, workspace)
	out.Code = code
	switch {
	case err != nil:
		out.Err = err
	case code != http.StatusCreated:
		out.Err = &service.StatusError{Op: w.failure, Code: code}
	}

	if out.Err != nil {
		out.Phase = PhaseFailed
		out.Message = w.failure
		log.WithError(out.Err).Warn("publisher request failed")
		d.reporter.ReportError(w.failure)
	} else {
		out.Phase = PhaseSucceeded
		out.Message = w.success
		d.reporter.ReportMessage(w.success)
	}
	d.reporter.HideBusy()

	if out.OK() && onSuccess != nil {
		onSuccess()
	}
	return out
}

// SelectNode announces a file selection. Only a genuine click on a file is
// announced.
func (d *Dispatcher) SelectNode(node *tree.Node, origin Origin) bool {
	if origin != OriginClick || !node.IsFile() {
		return false
	}
	if d.hub == nil {
		d.logger.WithField("path", node.Path).Debug("no hub, selection not announced")
		return false
	}
	d.hub.Publish(bus.TopicFileSelected, bus.FileSelected{
		Name:        node.Label,
		Path:        node.Path,
		ContentType: node.ContentType,
		Workspace:   node.Workspace,
	})
	return true
}

// ActivateNode handles double-click or enter on a node. Files open a diff.
func (d *Dispatcher) ActivateNode(ctx context.Context, node *tree.Node) error {
	if !node.IsFile() {
		return nil
	}
	return d.RequestDiff(ctx, node)
}

// OnContextMenu executes a context menu command.
func (d *Dispatcher) OnContextMenu(ctx context.Context, cmd bus.ContextMenuCommand) error {
	id := cmd.NodeID()
	log := d.logger.WithFields(logrus.Fields{"item": cmd.ItemID, "node": id})

	switch cmd.ItemID {
	case ItemShowDiff, ItemPublish, ItemUnpublish:
	default:
		log.Warn("ignoring unknown context menu item")
		return nil
	}

	var node *tree.Node
	if d.resolver != nil && id != "" {
		node = d.resolver.Find(id)
	}
	if node == nil {
		log.Warn("context menu node not found")
		d.reporter.ReportError(fmt.Sprintf("Unable to %s: unknown item '%s'", itemAction(cmd.ItemID), id))
		return fmt.Errorf("%s %q: %w", cmd.ItemID, id, ErrUnknownNode)
	}

	switch cmd.ItemID {
	case ItemShowDiff:
		return d.RequestDiff(ctx, node)
	case ItemPublish:
		return d.Publish(ctx, node.Path, node.Workspace, nil).Err
	default:
		return d.Unpublish(ctx, node.Path, node.Workspace, nil).Err
	}
}

func itemAction(item string) string {
	switch item {
	case ItemShowDiff:
		return "open diff"
	default:
		return item
	}
}

// Attach subscribes the dispatcher to context menu commands on hub.
func (d *Dispatcher) Attach(hub *bus.Hub) func() {
	return hub.Subscribe(bus.TopicContextMenu, func(msg bus.Message) {
		cmd, err := bus.Decode[bus.ContextMenuCommand](msg.Data)
		if err != nil {
			d.logger.WithError(err).Warn("malformed context menu command")
			return
		}
		if err := d.OnContextMenu(context.Background(), cmd); err != nil {
			d.logger.WithError(err).Debug("context menu command failed")
		}
	})
}
