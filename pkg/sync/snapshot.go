package sync

import "github.com/mattsolo1/grove-projects/pkg/tree"

// Snapshot is a read-only view of the engine state. The forest is shared
// and must not be modified.
type Snapshot struct {
	Workspace      string       `json:"workspace" yaml:"workspace"`
	Forest         []*tree.Node `json:"forest" yaml:"forest"`
	WorkspaceNames []string     `json:"workspaceNames" yaml:"workspaceNames"`
	Loading        bool         `json:"loading" yaml:"loading"`
	// Initial marks the snapshots of the first load, which a surface builds
	// from scratch instead of refreshing in place.
	Initial    bool   `json:"-" yaml:"-"`
	Generation uint64 `json:"generation" yaml:"generation"`
}

// IsSelected reports whether name is the selected workspace.
func (s Snapshot) IsSelected(name string) bool {
	return s.Workspace == name
}

// Find returns the node with the given id, or nil.
func (s Snapshot) Find(id string) *tree.Node {
	return tree.Find(s.Forest, id)
}
