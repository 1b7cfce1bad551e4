package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gadicohen93/deepcurrent/config"
	"github.com/gadicohen93/deepcurrent/pkg/otel"
)

var cfg *config.Config

func main() {
	rootCmd := &cobra.Command{
		Use:   "deepcurrent",
		Short: "DeepCurrent - self-evolving research strategy engine",
		Long: `DeepCurrent runs research episodes for tracked topics and evolves
each topic's research strategy from its own outcomes. Strategies that save
too little, wander through too many followups, or neglect the primary
knowledge tool get mutated candidates trialed against them at a rollout
percentage.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg = config.Load()
			slog.SetDefault(slog.New(otel.NewPrettyHandler()))
		},
	}

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		topicCmd(),
		researchCmd(),
		strategyCmd(),
		sweepCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("deepcurrent dev")
		},
	}
}
