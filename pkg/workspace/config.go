package workspace

import (
	"os"
	"path/filepath"
)

// DatabaseFile is the name of the preferences database inside the data dir.
const DatabaseFile = "preferences.db"

// GetDefaultDataDir returns the directory holding local state, honouring
// XDG_DATA_HOME and otherwise falling back to ~/.local/share/grove-projects.
func GetDefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "grove-projects")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "grove-projects")
}
