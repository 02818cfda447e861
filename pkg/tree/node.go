package tree

import (
	"encoding/hex"
)

// Kind categorizes the nodes of the project tree.
type Kind string

const (
	KindProject Kind = "project"
	KindFolder  Kind = "folder"
	KindFile    Kind = "file"
	KindSpinner Kind = "spinner" // transient loading placeholder, never part of a forest
)

// GitBinding ties a project to a version-control repository.
type GitBinding struct {
	RepositoryName string `json:"repositoryName" yaml:"repositoryName"`
}

// Node is a single entry of the normalized project tree.
type Node struct {
	ID          string       `json:"id" yaml:"id"`
	Label       string       `json:"label" yaml:"label"`
	Kind        Kind         `json:"kind" yaml:"kind"`
	Path        string       `json:"path" yaml:"path"` // relative to the owning workspace
	Workspace   string       `json:"workspace" yaml:"workspace"`
	ContentType string       `json:"contentType,omitempty" yaml:"contentType,omitempty"`
	Icon        IconCategory `json:"icon,omitempty" yaml:"icon,omitempty"`
	Git         *GitBinding  `json:"git,omitempty" yaml:"git,omitempty"`
	Status      string       `json:"status,omitempty" yaml:"status,omitempty"`
	Children    []*Node      `json:"children,omitempty" yaml:"children,omitempty"`

	Parent *Node `json:"-" yaml:"-"`
}

// IsFile reports whether the node is a file leaf.
func (n *Node) IsFile() bool { return n != nil && n.Kind == KindFile }

// Project returns the nearest ancestor of kind project, starting with the node
// itself. It returns nil when the chain has no project.
func (n *Node) Project() *Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Kind == KindProject {
			return cur
		}
	}
	return nil
}

// Depth is the number of ancestors above the node.
func (n *Node) Depth() int {
	d := 0
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		d++
	}
	return d
}

// NodeID derives the opaque identifier of a node from its workspace and
// relative path.
func NodeID(workspace, path string) string {
	h := newHasher()
	h.Write([]byte(workspace))
	h.Write([]byte{0})
	h.Write([]byte(path))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Placeholder returns the transient loading node a surface shows under
// parentID while its children are fetched.
func Placeholder(parentID string) *Node {
	return &Node{
		ID:    "spinner:" + parentID,
		Label: "Loading...",
		Kind:  KindSpinner,
	}
}

// ValidChild reports whether a node of kind child may appear under a node of
// kind parent. An empty parent kind stands for the forest root.
func ValidChild(parent, child Kind) bool {
	switch parent {
	case "":
		return child == KindProject
	case KindProject, KindFolder:
		return child == KindFolder || child == KindFile || child == KindSpinner
	default:
		return false
	}
}

// Draggable reports whether a selection may be dragged. Projects are pinned
// to the root.
func Draggable(nodes []*Node) bool {
	for _, n := range nodes {
		if n.Kind == KindProject {
			return false
		}
	}
	return true
}

// Walk visits the forest depth-first in display order. Returning false from fn
// stops the walk.
func Walk(forest []*Node, fn func(*Node) bool) bool {
	for _, n := range forest {
		if !fn(n) {
			return false
		}
		if !Walk(n.Children, fn) {
			return false
		}
	}
	return true
}

// Find returns the node with the given id, or nil.
func Find(forest []*Node, id string) *Node {
	var found *Node
	Walk(forest, func(n *Node) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Count returns the number of nodes in the forest.
func Count(forest []*Node) int {
	total := 0
	Walk(forest, func(*Node) bool {
		total++
		return true
	})
	return total
}
