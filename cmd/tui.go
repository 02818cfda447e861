package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-projects/cmd/config"
	"github.com/mattsolo1/grove-projects/internal/tui/browser"
)

// NewTuiCmd creates the `gp tui` command.
func NewTuiCmd(app **config.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse the projects of a workspace interactively",
		Long: `Launch an interactive Terminal User Interface for the project tree.
Search, fold, publish and switch workspaces without leaving the terminal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Check for TTY
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return fmt.Errorf("TUI mode requires an interactive terminal")
			}

			a := *app
			ctx := cmd.Context()

			inbox := browser.NewInbox(ctx)
			defer a.Reporter.Add(inbox)()

			if a.Bridge != nil {
				go func() {
					if err := a.Bridge.Run(ctx); err != nil {
						a.Logger.WithError(err).Warn("bus bridge stopped")
					}
				}()
			}

			model := browser.New(browser.Config{
				Context:  ctx,
				Engine:   a.Engine,
				Intents:  a.Dispatcher,
				Inbox:    inbox,
				Debounce: a.Debounce,
				Start:    true,
			})
			defer model.Close()

			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running TUI: %w", err)
			}

			return nil
		},
	}
	return cmd
}
