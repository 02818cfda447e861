package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-projects/cmd/config"
	"github.com/mattsolo1/grove-projects/pkg/intent"
)

func NewPublishCmd(app **config.App) *cobra.Command {
	return newPublisherCmd(app, "publish", "Publish a path or every project of the selected workspace", false)
}

func NewUnpublishCmd(app **config.App) *cobra.Command {
	return newPublisherCmd(app, "unpublish", "Unpublish a path or every project of the selected workspace", true)
}

func newPublisherCmd(app **config.App, use, short string, unpublish bool) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   use + " [path]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			ctx := cmd.Context()
			ws := a.Engine.Restore().Name

			var out intent.Outcome
			switch {
			case all && len(args) > 0:
				return fmt.Errorf("--all does not take a path")
			case all && unpublish:
				out = a.Dispatcher.UnpublishWorkspace(ctx, ws)
			case all:
				out = a.Dispatcher.PublishWorkspace(ctx, ws)
			case len(args) == 0:
				return fmt.Errorf("a path is required unless --all is given")
			case unpublish:
				out = a.Dispatcher.Unpublish(ctx, args[0], ws, nil)
			default:
				out = a.Dispatcher.Publish(ctx, args[0], ws, nil)
			}

			fmt.Fprintln(cmd.OutOrStdout(), out.Message)
			return out.Err
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Target every project of the selected workspace")
	return cmd
}
