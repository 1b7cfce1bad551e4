package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gadicohen93/deepcurrent/evolution"
	"github.com/gadicohen93/deepcurrent/pkg/otel"
	"github.com/gadicohen93/deepcurrent/runner"
	"github.com/gadicohen93/deepcurrent/server"
	"github.com/gadicohen93/deepcurrent/services"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the DeepCurrent API server.

Serves topic, episode, strategy and evolution-log endpoints, a websocket
stream of evolution events, and Prometheus metrics. The evolution worker
and the stale-episode sweeper run alongside the server.

Required configuration:
  - PostgreSQL database (DEEPCURRENT_DATABASE_URL)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Otel.Enabled {
		res, err := otel.Init(otel.Config{
			ServiceName: "deepcurrent",
			Environment: cfg.Otel.Environment,
		})
		if err != nil {
			slog.Warn("otel init failed", "error", err)
		} else {
			slog.SetDefault(res.Logger)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := res.Shutdown(shutdownCtx); err != nil {
					slog.Error("otel shutdown", "error", err)
				}
			}()
		}
	}

	st, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()
	slog.Info("database connection established")

	if err := st.InitSchema(ctx); err != nil {
		return err
	}

	topicSvc := services.NewTopicService(st)
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
	worker := evolution.NewWorker(orchestrator, cfg.Evolution.QueueSize, cfg.Evolution.Concurrency)

	researchSvc := services.NewResearchService(
		episodeSvc, strategySvc, runner.NewScripted(), worker, cfg.Research.Timeout)
	sweeper := services.NewSweeper(st, episodeSvc, worker, cfg.Sweeper.TTL, cfg.Sweeper.Interval)

	srv := server.NewServer(cfg, st, topicSvc, episodeSvc, strategySvc, researchSvc)
	orchestrator.SetEventSink(srv.Hub())

	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("evolution worker stopped", "error", err)
		}
	}()
	go sweeper.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "host", cfg.Server.Host, "port", cfg.Server.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeStore, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			if err := st.InitSchema(cmd.Context()); err != nil {
				return err
			}
			slog.Info("schema ready")
			return nil
		},
	}
}
