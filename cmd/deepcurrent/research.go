package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gadicohen93/deepcurrent/evolution"
	"github.com/gadicohen93/deepcurrent/runner"
	"github.com/gadicohen93/deepcurrent/services"
)

// researchCmd runs a single research episode from the command line. The
// post-episode evolution check runs inline before exit so short-lived CLI
// invocations still feed the strategy loop.
func researchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "research <topic-id> <query>",
		Short: "Run a research episode for a topic",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, closeStore, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			episodeSvc := services.NewEpisodeService(st)
			strategySvc := services.NewStrategyService(st)
			orchestrator := evolution.NewOrchestrator(st, strategySvc, evolution.OrchestratorConfig{
				Thresholds: evolution.Thresholds{
					MinEpisodes:         cfg.Evolution.MinEpisodes,
					LowSaveRate:         cfg.Evolution.LowSaveRate,
					HighFollowups:       cfg.Evolution.HighFollowups,
					LowPrimaryToolUsage: cfg.Evolution.LowPrimaryToolUsage,
					PrimaryTool:         cfg.Evolution.PrimaryTool,
				},
				WindowSize:       cfg.Evolution.WindowSize,
				CandidateRollout: cfg.Evolution.CandidateRollout,
			})

			researchSvc := services.NewResearchService(
				episodeSvc, strategySvc, runner.NewScripted(),
				inlineQueue{ctx: ctx, orchestrator: orchestrator}, cfg.Research.Timeout)

			episode, err := researchSvc.Run(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(episode)
		},
	}
	return cmd
}

// inlineQueue runs evolution checks synchronously instead of queueing them.
type inlineQueue struct {
	ctx          context.Context
	orchestrator *evolution.Orchestrator
}

func (q inlineQueue) EnqueueCheck(topicID string, strategyVersion int) {
	entry, err := q.orchestrator.CheckAndEvolve(q.ctx, topicID, strategyVersion)
	if err != nil {
		slog.Warn("evolution check failed", "topic_id", topicID, "error", err)
		return
	}
	if entry != nil {
		slog.Info("strategy evolved",
			"topic_id", topicID, "from", entry.FromVersion, "to", entry.ToVersion, "reason", entry.Reason)
	}
}
