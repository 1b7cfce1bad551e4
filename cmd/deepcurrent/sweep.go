package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gadicohen93/deepcurrent/services"
)

// sweepCmd fails running episodes older than the configured TTL. The serve
// loop does this on a ticker; this command is the one-shot equivalent.
func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Fail stale running episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeStore, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			episodeSvc := services.NewEpisodeService(st)
			sweeper := services.NewSweeper(st, episodeSvc, noopQueue{}, cfg.Sweeper.TTL, cfg.Sweeper.Interval)

			swept, err := sweeper.SweepOnce(cmd.Context())
			if err != nil {
				return err
			}
			slog.Info("sweep complete", "swept", swept)
			return nil
		},
	}
}

type noopQueue struct{}

func (noopQueue) EnqueueCheck(string, int) {}
