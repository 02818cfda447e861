package browser

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattsolo1/grove-projects/internal/tui/browser/components/confirm"
	"github.com/mattsolo1/grove-projects/pkg/intent"
	"github.com/mattsolo1/grove-projects/pkg/search"
	"github.com/mattsolo1/grove-projects/pkg/tree"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.adjustScroll()
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case snapshotMsg:
		m.applySnapshot(msg)
		return m, m.inbox.wait()

	case busyMsg:
		m.busy = msg.text
		return m, m.inbox.wait()

	case idleMsg:
		m.busy = ""
		return m, m.inbox.wait()

	case statusMsg:
		m.statusMessage = msg.text
		m.statusIsError = msg.isErr
		return m, m.inbox.wait()

	case filterMsg:
		m.filter = search.Filter(m.snap.Forest, msg.query)
		m.buildDisplayTree()
		return m, m.inbox.wait()

	case actionDoneMsg:
		return m, nil

	case confirm.ConfirmedMsg:
		action, _ := msg.Payload.(pendingAction)
		return m, m.runPending(action)

	case confirm.CancelledMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) applySnapshot(msg snapshotMsg) {
	if msg.snap.Generation < m.snap.Generation {
		return
	}
	keep := ""
	if n := m.current(); n != nil {
		keep = n.ID
	}

	m.snap = msg.snap
	if m.snap.Initial && !m.snap.Loading {
		// A first load starts fully folded.
		m.collapsed = make(map[string]bool)
		m.closeAllFolds()
	}
	if m.filter.Active() {
		m.filter = search.Filter(m.snap.Forest, m.filter.Query)
	}
	m.buildDisplayTree()
	m.moveTo(keep)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if m.help.ShowAll {
		m.help.ShowAll = false
		return m, nil
	}

	if m.confirm.Active {
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}

	if m.picking {
		return m.handlePickerKey(msg)
	}

	// Handle search mode
	if m.searchInput.Focused() {
		switch {
		case key.Matches(msg, m.keys.Back): // Esc hides search and drops the filter
			m.toggleSearch()
			return m, nil
		case msg.Type == tea.KeyEnter:
			m.searchInput.Blur()
			m.search.Flush()
			return m, nil
		default:
			before := m.searchInput.Value()
			m.searchInput, cmd = m.searchInput.Update(msg)
			if v := m.searchInput.Value(); v != before {
				m.search.OnQueryChanged(v)
			}
			return m, cmd
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = true
	case key.Matches(msg, m.keys.Back):
		if m.search.State().Active {
			m.toggleSearch()
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.adjustScroll()
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.displayNodes)-1 {
			m.cursor++
			m.adjustScroll()
		}
	case key.Matches(msg, m.keys.PageUp):
		m.cursor -= m.pageSize()
		if m.cursor < 0 {
			m.cursor = 0
		}
		m.adjustScroll()
	case key.Matches(msg, m.keys.PageDown):
		m.cursor += m.pageSize()
		m.clampCursor()
		m.adjustScroll()
	case key.Matches(msg, m.keys.GoToTop):
		// Handle 'gg' - go to top when g is pressed twice
		if m.lastKey == "g" {
			m.cursor = 0
			m.adjustScroll()
			m.lastKey = ""
		} else {
			m.lastKey = "g"
		}
		return m, nil
	case key.Matches(msg, m.keys.GoToBottom):
		if len(m.displayNodes) > 0 {
			m.cursor = len(m.displayNodes) - 1
			m.adjustScroll()
		}
	case key.Matches(msg, m.keys.FoldPrefix):
		m.lastKey = "z"
		return m, nil
	case m.lastKey == "z":
		switch msg.String() {
		case "a":
			m.toggleFold()
		case "o":
			m.setFold(false)
		case "c":
			m.setFold(true)
		case "M":
			m.closeAllFolds()
		case "R":
			m.openAllFolds()
		}
	case key.Matches(msg, m.keys.Expand):
		m.setFold(false)
	case key.Matches(msg, m.keys.Collapse):
		m.collapseOrParent()
	case key.Matches(msg, m.keys.Select):
		node := m.current()
		if node == nil {
			break
		}
		if !node.IsFile() {
			m.toggleFold()
			break
		}
		if m.intents.SelectNode(node, intent.OriginClick) {
			m.statusMessage = fmt.Sprintf("Opened '%s'", node.Path)
			m.statusIsError = false
		}
	case key.Matches(msg, m.keys.Diff):
		if node := m.current(); node.IsFile() {
			cmd = m.runAction(func(ctx context.Context) error {
				return m.intents.ActivateNode(ctx, node)
			})
		}
	case key.Matches(msg, m.keys.Search):
		m.toggleSearch()
		if m.search.State().Active {
			cmd = m.searchInput.Focus()
		}
	case key.Matches(msg, m.keys.Publish):
		cmd = m.publishCurrent(false)
	case key.Matches(msg, m.keys.Unpublish):
		cmd = m.publishCurrent(true)
	case key.Matches(msg, m.keys.PublishAll):
		m.confirm.Activate(fmt.Sprintf("Publish all projects in '%s'?", m.snap.Workspace), actionPublishAll)
	case key.Matches(msg, m.keys.UnpublishAll):
		m.confirm.Activate(fmt.Sprintf("Unpublish all projects in '%s'?", m.snap.Workspace), actionUnpublishAll)
	case key.Matches(msg, m.keys.Workspaces):
		m.picking = true
		m.pickerCursor = 0
		for i, name := range m.snap.WorkspaceNames {
			if m.snap.IsSelected(name) {
				m.pickerCursor = i
			}
		}
	case key.Matches(msg, m.keys.Reload):
		cmd = m.runAction(func(ctx context.Context) error {
			return m.engine.ReloadWorkspace(ctx, false)
		})
	}

	m.lastKey = ""
	return m, cmd
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	names := m.snap.WorkspaceNames
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Quit):
		m.picking = false
	case key.Matches(msg, m.keys.Up):
		if m.pickerCursor > 0 {
			m.pickerCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.pickerCursor < len(names)-1 {
			m.pickerCursor++
		}
	case key.Matches(msg, m.keys.Select):
		m.picking = false
		if m.pickerCursor >= len(names) {
			return m, nil
		}
		name := names[m.pickerCursor]
		return m, m.runAction(func(ctx context.Context) error {
			return m.engine.SwitchWorkspace(ctx, name)
		})
	}
	return m, nil
}

func (m *Model) toggleSearch() {
	m.search.ToggleVisibility()
	m.searchInput.SetValue("")
	m.searchInput.Blur()
	m.filter = search.Result{}
	m.buildDisplayTree()
}

func (m Model) publishCurrent(unpublish bool) tea.Cmd {
	node := m.current()
	if node == nil {
		return nil
	}
	return m.runAction(func(ctx context.Context) error {
		if unpublish {
			return m.intents.Unpublish(ctx, node.Path, node.Workspace, nil).Err
		}
		return m.intents.Publish(ctx, node.Path, node.Workspace, nil).Err
	})
}

func (m Model) runPending(action pendingAction) tea.Cmd {
	name := m.snap.Workspace
	switch action {
	case actionPublishAll:
		return m.runAction(func(ctx context.Context) error {
			return m.intents.PublishWorkspace(ctx, name).Err
		})
	case actionUnpublishAll:
		return m.runAction(func(ctx context.Context) error {
			return m.intents.UnpublishWorkspace(ctx, name).Err
		})
	}
	return nil
}

// buildDisplayTree flattens the forest into the visible lines, honoring
// folds and the active filter. A filter shows every match regardless of
// folds.
func (m *Model) buildDisplayTree() {
	var nodes []*displayNode

	var walk func(children []*tree.Node, prefix string, depth int)
	walk = func(children []*tree.Node, prefix string, depth int) {
		visible := make([]*tree.Node, 0, len(children))
		for _, c := range children {
			if m.filter.Visible(c.ID) {
				visible = append(visible, c)
			}
		}
		for i, n := range visible {
			last := i == len(visible)-1
			connector, indent := "├─ ", "│  "
			if last {
				connector, indent = "└─ ", "   "
			}
			if depth == 0 {
				connector, indent = "", ""
			}
			nodes = append(nodes, &displayNode{node: n, prefix: prefix + connector, depth: depth})
			if m.filter.Active() || !m.collapsed[n.ID] {
				walk(n.Children, prefix+indent, depth+1)
			}
		}
	}
	walk(m.snap.Forest, "", 0)

	if m.snap.Loading && len(m.snap.Forest) == 0 {
		nodes = append(nodes, &displayNode{node: tree.Placeholder(m.snap.Workspace)})
	}

	m.displayNodes = nodes
	m.clampCursor()
}

// moveTo puts the cursor back on the node with the given id if it is still
// displayed.
func (m *Model) moveTo(id string) {
	if id == "" {
		return
	}
	for i, dn := range m.displayNodes {
		if dn.node.ID == id {
			m.cursor = i
			m.adjustScroll()
			return
		}
	}
}

// clampCursor ensures the cursor is within the valid range of display nodes.
func (m *Model) clampCursor() {
	if m.cursor >= len(m.displayNodes) {
		if len(m.displayNodes) > 0 {
			m.cursor = len(m.displayNodes) - 1
		} else {
			m.cursor = 0
		}
	}
}

// getViewportHeight calculates how many lines are available for the tree.
func (m *Model) getViewportHeight() int {
	// top margin, header, search bar, blank, blank, status, footer, scroll indicator (2)
	const fixedLines = 9
	availableHeight := m.height - fixedLines
	if availableHeight < 1 {
		return 1
	}
	return availableHeight
}

func (m *Model) pageSize() int {
	if n := m.getViewportHeight() / 2; n > 0 {
		return n
	}
	return 1
}

// adjustScroll ensures the cursor is visible in the viewport.
func (m *Model) adjustScroll() {
	viewportHeight := m.getViewportHeight()
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	} else if m.cursor >= m.scrollOffset+viewportHeight {
		m.scrollOffset = m.cursor - viewportHeight + 1
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

func foldable(n *tree.Node) bool {
	return n != nil && (n.Kind == tree.KindProject || n.Kind == tree.KindFolder)
}

// toggleFold toggles the fold state of the node under the cursor
func (m *Model) toggleFold() {
	n := m.current()
	if !foldable(n) {
		return
	}
	m.setFold(!m.collapsed[n.ID])
}

func (m *Model) setFold(closed bool) {
	n := m.current()
	if !foldable(n) {
		return
	}
	if closed {
		m.collapsed[n.ID] = true
	} else {
		delete(m.collapsed, n.ID)
	}
	m.buildDisplayTree()
}

// collapseOrParent folds an open node, or moves to the parent of a folded
// node or leaf.
func (m *Model) collapseOrParent() {
	n := m.current()
	if n == nil {
		return
	}
	if foldable(n) && !m.collapsed[n.ID] && len(n.Children) > 0 {
		m.setFold(true)
		return
	}
	if n.Parent != nil {
		m.moveTo(n.Parent.ID)
	}
}

func (m *Model) closeAllFolds() {
	tree.Walk(m.snap.Forest, func(n *tree.Node) bool {
		if foldable(n) {
			m.collapsed[n.ID] = true
		}
		return true
	})
	m.buildDisplayTree()
}

func (m *Model) openAllFolds() {
	m.collapsed = make(map[string]bool)
	m.buildDisplayTree()
}
