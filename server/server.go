package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gadicohen93/deepcurrent/config"
	"github.com/gadicohen93/deepcurrent/pkg/otel"
	"github.com/gadicohen93/deepcurrent/server/handlers"
	"github.com/gadicohen93/deepcurrent/services"
	"github.com/gadicohen93/deepcurrent/store"
)

const ReadTimeout = 30 * time.Second

type Server struct {
	cfg    *config.Config
	router *chi.Mux
	server *http.Server
	hub    *Hub
	store  *store.Store
}

func NewServer(
	cfg *config.Config,
	s *store.Store,
	topicSvc *services.TopicService,
	episodeSvc *services.EpisodeService,
	strategySvc *services.StrategyService,
	researchSvc *services.ResearchService,
) *Server {
	hub := NewHub()
	router := chi.NewRouter()

	router.Use(otel.Middleware("deepcurrent"))
	router.Use(Recovery)
	router.Use(Logger)
	router.Use(CORS(cfg.Server.AllowedOrigins))

	healthH := handlers.NewHealthHandler(func(ctx context.Context) error {
		return s.Pool().Ping(ctx)
	})
	router.Get("/health", healthH.Health)
	router.Get("/health/live", healthH.Liveness)

	router.Handle("/metrics", promhttp.Handler())

	wsHandler := NewWSHandler(hub)
	router.Get("/api/v1/ws", wsHandler.ServeHTTP)

	router.Route("/api/v1", func(r chi.Router) {
		topicH := handlers.NewTopicHandler(topicSvc)
		r.Post("/topics", topicH.Create)
		r.Get("/topics", topicH.List)
		r.Get("/topics/{id}", topicH.Get)

		episodeH := handlers.NewEpisodeHandler(episodeSvc, researchSvc, hub)
		r.Post("/topics/{id}/research", episodeH.Research)
		r.Get("/topics/{id}/episodes", episodeH.List)
		r.Get("/episodes/{id}", episodeH.Get)

		strategyH := handlers.NewStrategyHandler(strategySvc, hub)
		r.Get("/topics/{id}/strategies", strategyH.List)
		r.Get("/topics/{id}/strategies/{version}", strategyH.Get)
		r.Post("/topics/{id}/strategies/{version}/promote", strategyH.Promote)

		evolutionH := handlers.NewEvolutionHandler(s)
		r.Get("/topics/{id}/evolution", evolutionH.List)
	})

	return &Server{
		cfg:    cfg,
		router: router,
		hub:    hub,
		store:  s,
	}
}

// Hub exposes the websocket hub so the evolution worker can publish events.
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  ReadTimeout,
		WriteTimeout: 0,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
