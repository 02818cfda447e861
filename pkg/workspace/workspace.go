package workspace

import (
	"fmt"
	"strings"
)

// DefaultName is the workspace selected when nothing has been stored yet.
const DefaultName = "workspace"

// Ref identifies the selected workspace.
type Ref struct {
	Name string `json:"name" yaml:"name"`
}

// Default returns the reference used when no selection is persisted.
func Default() Ref {
	return Ref{Name: DefaultName}
}

// Validate checks that the reference names a workspace.
func (r Ref) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("workspace name cannot be empty")
	}
	if strings.Contains(r.Name, "/") {
		return fmt.Errorf("workspace name %q must not contain '/'", r.Name)
	}
	return nil
}

// Store persists the selected workspace between runs.
type Store interface {
	// Selected returns the stored reference, or nil when none is stored.
	Selected() (*Ref, error)
	// SetSelected replaces the stored reference.
	SetSelected(ref Ref) error
}

// Restore reads the persisted selection. When none is stored, or the stored
// one is unusable, it persists and returns the default.
func Restore(s Store) (Ref, error) {
	ref, err := s.Selected()
	if err != nil {
		return Default(), fmt.Errorf("read selected workspace: %w", err)
	}
	if ref != nil && ref.Validate() == nil {
		return *ref, nil
	}

	def := Default()
	if err := s.SetSelected(def); err != nil {
		return def, fmt.Errorf("persist default workspace: %w", err)
	}
	return def, nil
}
