package browser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mattsolo1/grove-projects/pkg/tree"
)

var iconGlyphs = map[tree.IconCategory]string{
	tree.IconCode:    "{}",
	tree.IconStyle:   "# ",
	tree.IconText:    "≡ ",
	tree.IconPDF:     "▤ ",
	tree.IconImage:   "▣ ",
	tree.IconModel:   "◆ ",
	tree.IconGeneric: "· ",
}

func (m Model) View() string {
	if m.help.ShowAll {
		return "\n" + m.help.View(m.keys)
	}
	if m.confirm.Active {
		return "\n" + m.confirm.View()
	}
	if m.picking {
		return "\n" + m.renderPicker()
	}

	header := DefaultTheme.Header.Render("Projects") + " " +
		DefaultTheme.Info.Render(fmt.Sprintf("[%s]", m.snap.Workspace))
	if m.busy != "" || m.snap.Loading {
		header += " " + m.spinner.View()
	}

	parts := []string{header}
	if m.search.State().Active {
		parts = append(parts, m.searchInput.View())
	}
	parts = append(parts, "", m.renderTreeView(), "", m.renderStatus(), m.help.View(m.keys))

	return "\n" + lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderTreeView() string {
	if len(m.displayNodes) == 0 {
		if m.filter.Active() {
			return DefaultTheme.Muted.Render("No matching entries.")
		}
		return DefaultTheme.Muted.Render("No projects.")
	}

	var b strings.Builder

	viewportHeight := m.getViewportHeight()
	start := m.scrollOffset
	end := m.scrollOffset + viewportHeight
	if end > len(m.displayNodes) {
		end = len(m.displayNodes)
	}

	for i := start; i < end; i++ {
		dn := m.displayNodes[i]
		cursor := "  "
		if i == m.cursor {
			cursor = DefaultTheme.Highlight.Render("▶ ")
		}

		line := cursor + dn.prefix + m.renderNode(dn.node)
		if i == m.cursor {
			line = lipgloss.NewStyle().Bold(true).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(m.displayNodes) > viewportHeight {
		b.WriteString("\n")
		b.WriteString(DefaultTheme.Muted.Render(fmt.Sprintf(" (%d-%d of %d)", start+1, end, len(m.displayNodes))))
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderNode(n *tree.Node) string {
	label := n.Label
	if m.filter.Matched(n.ID) {
		label = DefaultTheme.Match.Render(label)
	}

	switch n.Kind {
	case tree.KindSpinner:
		return m.spinner.View() + " " + DefaultTheme.Muted.Render(label)
	case tree.KindProject:
		line := m.foldIndicator(n) + DefaultTheme.Project.Render(label)
		if n.Git != nil {
			line += DefaultTheme.Muted.Render(" ⎇ " + n.Git.RepositoryName)
		}
		return line
	case tree.KindFolder:
		return m.foldIndicator(n) + DefaultTheme.Folder.Render(label) + m.statusSuffix(n)
	default:
		glyph, ok := iconGlyphs[n.Icon]
		if !ok {
			glyph = iconGlyphs[tree.IconGeneric]
		}
		return DefaultTheme.Muted.Render(glyph) + " " + label + m.statusSuffix(n)
	}
}

func (m Model) foldIndicator(n *tree.Node) string {
	if m.collapsed[n.ID] && !m.filter.Active() {
		return "▸ "
	}
	return "▾ "
}

func (m Model) statusSuffix(n *tree.Node) string {
	if n.Status == "" {
		return ""
	}
	return DefaultTheme.Info.Render(" [" + n.Status + "]")
}

func (m Model) renderStatus() string {
	switch {
	case m.busy != "":
		return DefaultTheme.Highlight.Render(m.busy)
	case m.statusMessage == "":
		return ""
	case m.statusIsError:
		return DefaultTheme.Error.Render(m.statusMessage)
	default:
		return DefaultTheme.Success.Render(m.statusMessage)
	}
}

func (m Model) renderPicker() string {
	var b strings.Builder
	b.WriteString(DefaultTheme.Header.Render("Select Workspace"))
	b.WriteString("\n\n")

	if len(m.snap.WorkspaceNames) == 0 {
		b.WriteString(DefaultTheme.Muted.Render("No workspaces."))
		return b.String()
	}

	for i, name := range m.snap.WorkspaceNames {
		cursor := "  "
		if i == m.pickerCursor {
			cursor = DefaultTheme.Highlight.Render("▶ ")
		}
		marker := "  "
		if m.snap.IsSelected(name) {
			marker = DefaultTheme.Success.Render("✓ ")
		}
		b.WriteString(cursor + marker + name + "\n")
	}
	b.WriteString("\n")
	b.WriteString(DefaultTheme.Muted.Render("enter: switch  esc: cancel"))
	return b.String()
}
