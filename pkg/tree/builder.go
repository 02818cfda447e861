package tree

import (
	"github.com/mattsolo1/grove-projects/pkg/models"
)

// Builder converts backend workspace descriptions into a forest of nodes.
type Builder struct {
	classifier *Classifier
}

// NewBuilder creates a builder. A nil classifier uses the default extension
// sets.
func NewBuilder(classifier *Classifier) *Builder {
	if classifier == nil {
		classifier = DefaultClassifier()
	}
	return &Builder{classifier: classifier}
}

// Build returns one project root per project in desc, in order. Project
// paths are normalized against the workspace root, everything below against
// the selected workspace name.
func (b *Builder) Build(desc *models.Workspace, selected string) []*Node {
	if desc == nil {
		return []*Node{}
	}

	forest := make([]*Node, 0, len(desc.Projects))
	rootPrefix := ProjectPrefix(desc.RootPath)
	childPrefix := WorkspacePrefix(selected)

	for _, p := range desc.Projects {
		if p == nil {
			continue
		}
		path := Normalize(p.Path, rootPrefix)
		project := &Node{
			ID:        NodeID(desc.Name, path),
			Label:     p.Name,
			Kind:      KindProject,
			Path:      path,
			Workspace: desc.Name,
		}
		if p.GitTracked {
			project.Git = &GitBinding{RepositoryName: p.GitRepositoryName}
		}
		project.Children = b.children(project, p.Children(), selected, childPrefix)
		forest = append(forest, project)
	}
	return forest
}

func (b *Builder) children(parent *Node, entries []*models.Entry, workspace string, prefix int) []*Node {
	out := make([]*Node, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		path := Normalize(e.Path, prefix)
		n := &Node{
			ID:        NodeID(workspace, path),
			Label:     e.Name,
			Kind:      entryKind(e),
			Path:      path,
			Workspace: workspace,
			Status:    e.Status,
			Parent:    parent,
		}
		if n.Kind == KindFile {
			n.ContentType = e.ContentType
			n.Icon = b.classifier.Classify(e.Name)
		}
		if n.Kind == KindFolder {
			n.Children = b.children(n, e.Children(), workspace, prefix)
		}
		out = append(out, n)
	}
	return out
}

func entryKind(e *models.Entry) Kind {
	switch e.Type {
	case models.EntryFolder:
		return KindFolder
	case models.EntryFile:
		return KindFile
	}
	if e.HasChildren() {
		return KindFolder
	}
	return KindFile
}
