package bus

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Topics the project tree listens on or announces to.
const (
	TopicWorkspaceChanged = "workspace.changed"
	TopicContextMenu      = "git-projects.tree.contextmenu"
	TopicFileSelected     = "workspace.file.selected"
	TopicDiffOpen         = "diff.open"

	TopicStatusBusy    = "status.busy"
	TopicStatusIdle    = "status.idle"
	TopicStatusError   = "status.error"
	TopicStatusMessage = "status.message"
)

// PublishIntent asks for a publish alongside a workspace change, either of
// the whole workspace or of a single path.
type PublishIntent struct {
	Workspace bool   `json:"workspace,omitempty" mapstructure:"workspace"`
	Path      string `json:"path,omitempty" mapstructure:"path"`
}

// WorkspaceChanged is announced whenever the content of a workspace changes.
type WorkspaceChanged struct {
	WorkspaceName string         `json:"name" mapstructure:"name"`
	Publish       *PublishIntent `json:"publish,omitempty" mapstructure:"publish"`
}

// ContextMenuCommand is a selection from the tree's context menu. Data
// identifies the node, either as its id or as a map with an "id" key.
type ContextMenuCommand struct {
	ItemID string `json:"itemId" mapstructure:"itemId"`
	Data   any    `json:"data,omitempty" mapstructure:"data"`
}

// NodeID extracts the node id carried in Data.
func (c ContextMenuCommand) NodeID() string {
	switch d := c.Data.(type) {
	case string:
		return d
	case map[string]any:
		if id, ok := d["id"].(string); ok {
			return id
		}
	}
	return ""
}

// FileSelected is announced when the user clicks a file node.
type FileSelected struct {
	Name        string `json:"name" mapstructure:"name"`
	Path        string `json:"path" mapstructure:"path"`
	ContentType string `json:"contentType" mapstructure:"contentType"`
	Workspace   string `json:"workspace" mapstructure:"workspace"`
}

// Decode converts a message payload into T. Payloads published in process
// usually already are a T or *T; payloads from the bridge are generic maps.
func Decode[T any](data any) (T, error) {
	var out T
	switch v := data.(type) {
	case T:
		return v, nil
	case *T:
		if v == nil {
			return out, fmt.Errorf("decode %T: nil payload", out)
		}
		return *v, nil
	case nil:
		return out, fmt.Errorf("decode %T: nil payload", out)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(data); err != nil {
		return out, fmt.Errorf("decode %T: %w", out, err)
	}
	return out, nil
}
