package cli

import (
	"net/http"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show connection, room and memory counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result StatsResult

			if err := client.Get("/stats", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Run a maintenance sweep now",
		Long: `Ask the server to run its maintenance sweep immediately. Idle rooms,
stale games, expired sessions and old rate-limit windows are removed.

Requires --admin-token when the server is started with one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result CleanupResult

			if err := client.Do(http.MethodPost, "/debug/cleanup", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}
