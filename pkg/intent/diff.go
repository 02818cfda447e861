package intent

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-projects/pkg/bus"
	"github.com/mattsolo1/grove-projects/pkg/tree"
)

// DiffRequest asks a diff viewer to show the changes of a file.
type DiffRequest struct {
	Name        string `json:"name" mapstructure:"name"`
	Path        string `json:"path" mapstructure:"path"`
	Workspace   string `json:"workspace" mapstructure:"workspace"`
	ContentType string `json:"contentType,omitempty" mapstructure:"contentType"`
	Project     string `json:"project,omitempty" mapstructure:"project"`
	GitName     string `json:"gitName,omitempty" mapstructure:"gitName"` // empty when the project is not git-tracked
}

// DiffViewer shows diffs. Computing the diff is up to the viewer.
type DiffViewer interface {
	OpenDiff(ctx context.Context, req DiffRequest) error
}

// HubViewer hands diff requests to whoever listens on the diff topic.
type HubViewer struct {
	hub *bus.Hub
}

// NewHubViewer creates a viewer that publishes to hub.
func NewHubViewer(hub *bus.Hub) *HubViewer {
	return &HubViewer{hub: hub}
}

// OpenDiff publishes req on bus.TopicDiffOpen.
func (v *HubViewer) OpenDiff(_ context.Context, req DiffRequest) error {
	v.hub.Publish(bus.TopicDiffOpen, req)
	return nil
}

// NewDiffRequest describes the diff of node. The owning project is found at
// any depth; without one, or without a git binding, the repository is left
// out.
func NewDiffRequest(node *tree.Node) DiffRequest {
	req := DiffRequest{
		Name:        node.Label,
		Path:        node.Path,
		Workspace:   node.Workspace,
		ContentType: node.ContentType,
	}
	if project := node.Project(); project != nil {
		req.Project = project.Label
		if project.Git != nil {
			req.GitName = project.Git.RepositoryName
		}
	}
	return req
}

// RequestDiff opens the diff of node.
func (d *Dispatcher) RequestDiff(ctx context.Context, node *tree.Node) error {
	if node == nil {
		d.reporter.ReportError("Unable to open diff: unknown item")
		return fmt.Errorf("request diff: %w", ErrUnknownNode)
	}
	if d.diff == nil {
		d.logger.WithField("path", node.Path).Warn("no diff viewer configured")
		return nil
	}

	req := NewDiffRequest(node)
	d.logger.WithFields(logrus.Fields{
		"path":    req.Path,
		"gitName": req.GitName,
	}).Debug("requesting diff")

	if err := d.diff.OpenDiff(ctx, req); err != nil {
		d.reporter.ReportError(fmt.Sprintf("Unable to open diff for '%s'", node.Path))
		return fmt.Errorf("open diff for %s: %w", node.Path, err)
	}
	return nil
}
