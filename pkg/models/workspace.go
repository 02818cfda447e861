package models

// Workspace is the description of a workspace as returned by the workspace
// service. Paths are absolute and include the workspace root.
type Workspace struct {
	Name     string     `json:"name" yaml:"name"`
	RootPath string     `json:"path" yaml:"path"`
	Projects []*Project `json:"projects" yaml:"projects"`
}

// Project is a root-level unit of a workspace.
type Project struct {
	Name              string   `json:"name" yaml:"name"`
	Type              string   `json:"type" yaml:"type"`
	GitTracked        bool     `json:"git" yaml:"git"`
	GitRepositoryName string   `json:"gitName,omitempty" yaml:"gitName,omitempty"`
	Path              string   `json:"path" yaml:"path"`
	Folders           []*Entry `json:"folders,omitempty" yaml:"folders,omitempty"`
	Files             []*Entry `json:"files,omitempty" yaml:"files,omitempty"`
}

// EntryType is the backend's type string for folder and file entries.
type EntryType string

const (
	EntryFolder EntryType = "folder"
	EntryFile   EntryType = "file"
)

// Entry is a folder or file below a project.
type Entry struct {
	Name        string    `json:"name" yaml:"name"`
	Type        EntryType `json:"type" yaml:"type"`
	Path        string    `json:"path" yaml:"path"`
	ContentType string    `json:"contentType,omitempty" yaml:"contentType,omitempty"`
	Status      string    `json:"status,omitempty" yaml:"status,omitempty"` // opaque VCS status
	Folders     []*Entry  `json:"folders,omitempty" yaml:"folders,omitempty"`
	Files       []*Entry  `json:"files,omitempty" yaml:"files,omitempty"`
}

// Children returns folders followed by files, each in the order supplied.
func (e *Entry) Children() []*Entry {
	return concat(e.Folders, e.Files)
}

// HasChildren reports whether the backend supplied any nested lists.
func (e *Entry) HasChildren() bool {
	return e.Folders != nil || e.Files != nil
}

// Children returns the project's folders followed by its files.
func (p *Project) Children() []*Entry {
	return concat(p.Folders, p.Files)
}

func concat(folders, files []*Entry) []*Entry {
	out := make([]*Entry, 0, len(folders)+len(files))
	out = append(out, folders...)
	return append(out, files...)
}
