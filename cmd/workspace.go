package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-projects/cmd/config"
	"github.com/mattsolo1/grove-projects/pkg/tree"
)

func NewWorkspaceCmd(app **config.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "List, show and switch workspaces",
	}

	cmd.AddCommand(
		newWorkspaceListCmd(app),
		newWorkspaceCurrentCmd(app),
		newWorkspaceSwitchCmd(app),
	)

	return cmd
}

func newWorkspaceListCmd(app **config.App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the workspaces known to the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			a.Engine.Restore()
			if err := a.Engine.ReloadWorkspaceNames(cmd.Context()); err != nil {
				return err
			}

			snap := a.Engine.Snapshot()
			for _, name := range snap.WorkspaceNames {
				marker := " "
				if snap.IsSelected(name) {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
			}
			return nil
		},
	}
}

func newWorkspaceCurrentCmd(app **config.App) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the selected workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			ref := a.Engine.Restore()
			if err := a.Engine.ReloadWorkspace(cmd.Context(), true); err != nil {
				return err
			}
			snap := a.Engine.Snapshot()

			projects, git := 0, 0
			for _, p := range snap.Forest {
				projects++
				if p.Git != nil {
					git++
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROPERTY\tVALUE")
			fmt.Fprintln(w, "--------\t-----")
			fmt.Fprintf(w, "Workspace\t%s\n", ref.Name)
			fmt.Fprintf(w, "Projects\t%d (%d git)\n", projects, git)
			fmt.Fprintf(w, "Nodes\t%d\n", tree.Count(snap.Forest))
			return w.Flush()
		},
	}
}

func newWorkspaceSwitchCmd(app **config.App) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <name>",
		Short: "Select another workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			name := args[0]

			before := a.Engine.Restore()
			if before.Name == name {
				fmt.Fprintf(cmd.OutOrStdout(), "Already on workspace '%s'\n", name)
				return nil
			}
			if err := a.Engine.SwitchWorkspace(cmd.Context(), name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Switched to workspace '%s' (%d projects)\n", name, len(a.Engine.Snapshot().Forest))
			return nil
		},
	}
}
