package tree

// Normalize strips the first prefixLength bytes from a backend path. It never
// fails: a path shorter than the prefix yields "" and a non-positive prefix
// returns the path unchanged.
func Normalize(absolutePath string, prefixLength int) string {
	if prefixLength <= 0 {
		return absolutePath
	}
	if prefixLength >= len(absolutePath) {
		return ""
	}
	return absolutePath[prefixLength:]
}

// ProjectPrefix is the prefix length for project paths: the workspace root
// returned with the backend response.
func ProjectPrefix(rootPath string) int {
	return len(rootPath)
}

// WorkspacePrefix is the prefix length for nodes below a project, which is
// "/<workspace>".
func WorkspacePrefix(workspace string) int {
	return len(workspace) + 1
}
