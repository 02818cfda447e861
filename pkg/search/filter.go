package search

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/mattsolo1/grove-projects/pkg/tree"
)

// Result is the outcome of filtering a forest. The zero value, and the
// result of an empty query, leaves every node visible.
type Result struct {
	Query   string
	matched map[string]struct{}
	visible map[string]struct{}
}

// Filter matches query against node labels, case-insensitively, and marks
// every match and its ancestors visible. The forest is not modified.
func Filter(forest []*tree.Node, query string) Result {
	r := Result{Query: query}
	if query == "" {
		return r
	}

	fold := cases.Fold()
	needle := fold.String(query)

	r.matched = make(map[string]struct{})
	r.visible = make(map[string]struct{})
	tree.Walk(forest, func(n *tree.Node) bool {
		if !strings.Contains(fold.String(n.Label), needle) {
			return true
		}
		r.matched[n.ID] = struct{}{}
		for cur := n; cur != nil; cur = cur.Parent {
			if _, seen := r.visible[cur.ID]; seen {
				break
			}
			r.visible[cur.ID] = struct{}{}
		}
		return true
	})
	return r
}

// Active reports whether the result restricts anything.
func (r Result) Active() bool { return r.Query != "" }

// Matched reports whether the node's label matched the query.
func (r Result) Matched(id string) bool {
	_, ok := r.matched[id]
	return ok
}

// Visible reports whether the node stays displayed under the filter.
func (r Result) Visible(id string) bool {
	if !r.Active() {
		return true
	}
	_, ok := r.visible[id]
	return ok
}

// Matches returns the number of matching nodes.
func (r Result) Matches() int { return len(r.matched) }
