package cmd

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-projects/cmd/config"
	"github.com/mattsolo1/grove-projects/pkg/bus"
	"github.com/mattsolo1/grove-projects/pkg/sync"
	"github.com/mattsolo1/grove-projects/pkg/tree"
)

func NewWatchCmd(app **config.App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the message bus and reload the tree on workspace changes",
		Long: `Connect to the message bus configured with bus.url and keep the tree of the
selected workspace in sync until interrupted. Every reload and status message
is printed as it happens.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := *app
			if a.Bridge == nil {
				return errors.New("bus.url is not configured")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			unsubscribe := a.Engine.Subscribe(func(s sync.Snapshot) {
				if s.Loading {
					return
				}
				fmt.Fprintf(out, "[%d] %s: %d projects, %d nodes\n", s.Generation, s.Workspace, len(s.Forest), tree.Count(s.Forest))
			})
			defer unsubscribe()

			for _, topic := range []string{bus.TopicStatusMessage, bus.TopicStatusError} {
				prefix := "status"
				if topic == bus.TopicStatusError {
					prefix = "error"
				}
				defer a.Hub.Subscribe(topic, func(m bus.Message) {
					fmt.Fprintf(out, "%s: %v\n", prefix, m.Data)
				})()
			}

			if err := a.Engine.Start(ctx); err != nil {
				a.Logger.WithError(err).Warn("initial load failed")
			}
			return a.Bridge.Run(ctx)
		},
	}
}
