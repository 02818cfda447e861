package browser

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the keybindings for the browser TUI
type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	GoToTop      key.Binding
	GoToBottom   key.Binding
	Expand       key.Binding
	Collapse     key.Binding
	FoldPrefix   key.Binding // z key for fold commands
	Select       key.Binding
	Diff         key.Binding
	Search       key.Binding
	Publish      key.Binding
	Unpublish    key.Binding
	PublishAll   key.Binding
	UnpublishAll key.Binding
	Workspaces   key.Binding
	Reload       key.Binding
	Back         key.Binding
	Help         key.Binding
	Quit         key.Binding
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Workspaces, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.GoToTop, k.GoToBottom},
		{k.Expand, k.Collapse, k.FoldPrefix, k.Select, k.Diff, k.Search},
		{k.Publish, k.Unpublish, k.PublishAll, k.UnpublishAll, k.Workspaces, k.Reload},
		{k.Back, k.Help, k.Quit},
	}
}

var keys = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("ctrl+u"),
		key.WithHelp("ctrl+u", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "page down"),
	),
	GoToTop: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("gg", "go to top"),
	),
	GoToBottom: key.NewBinding(
		key.WithKeys("G"),
		key.WithHelp("G", "go to bottom"),
	),
	Expand: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "expand"),
	),
	Collapse: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "collapse"),
	),
	FoldPrefix: key.NewBinding(
		key.WithKeys("z"),
		key.WithHelp("z", "fold commands (za/zo/zc/zM/zR)"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open file / toggle folder"),
	),
	Diff: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "show diff"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Publish: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "publish"),
	),
	Unpublish: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "unpublish"),
	),
	PublishAll: key.NewBinding(
		key.WithKeys("P"),
		key.WithHelp("P", "publish all"),
	),
	UnpublishAll: key.NewBinding(
		key.WithKeys("U"),
		key.WithHelp("U", "unpublish all"),
	),
	Workspaces: key.NewBinding(
		key.WithKeys("w"),
		key.WithHelp("w", "switch workspace"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
