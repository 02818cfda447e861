package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mattsolo1/grove-projects/cmd/config"
	"github.com/mattsolo1/grove-projects/pkg/tree"
)

func NewTreeCmd(app **config.App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the project tree of the selected workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			ctx := cmd.Context()

			a.Engine.Restore()
			if err := a.Engine.ReloadWorkspace(ctx, true); err != nil {
				return err
			}
			snap := a.Engine.Snapshot()

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(snap)
			case "text":
				fmt.Fprintf(out, "%s\n", snap.Workspace)
				printForest(out, snap.Forest, "")
				return nil
			default:
				return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")
	return cmd
}

// printForest writes nodes as an indented tree.
func printForest(w io.Writer, nodes []*tree.Node, prefix string) {
	for i, n := range nodes {
		connector, indent := "├── ", "│   "
		if i == len(nodes)-1 {
			connector, indent = "└── ", "    "
		}
		fmt.Fprintf(w, "%s%s%s\n", prefix, connector, describe(n))
		printForest(w, n.Children, prefix+indent)
	}
}

func describe(n *tree.Node) string {
	var b strings.Builder
	b.WriteString(n.Label)
	switch n.Kind {
	case tree.KindProject, tree.KindFolder:
		b.WriteString("/")
	}
	if n.Git != nil {
		fmt.Fprintf(&b, " (git: %s)", n.Git.RepositoryName)
	}
	if n.Kind == tree.KindFile && n.Icon != tree.IconGeneric {
		fmt.Fprintf(&b, " [%s]", n.Icon)
	}
	if n.Status != "" {
		fmt.Fprintf(&b, " {%s}", n.Status)
	}
	return b.String()
}
