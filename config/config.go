package config

import (
	"time"

	iconfig "github.com/gadicohen93/deepcurrent/shared/config"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Evolution EvolutionConfig
	Sweeper   SweeperConfig
	Research  ResearchConfig
	Otel      OtelConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL string
}

type EvolutionConfig struct {
	WindowSize          int
	CandidateRollout    int
	MinEpisodes         int
	LowSaveRate         float64
	HighFollowups       float64
	LowPrimaryToolUsage float64
	PrimaryTool         string
	QueueSize           int
	Concurrency         int
}

type SweeperConfig struct {
	TTL      time.Duration
	Interval time.Duration
}

type ResearchConfig struct {
	Timeout time.Duration
}

type OtelConfig struct {
	Enabled     bool
	Environment string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           iconfig.GetEnvWithFallback("DEEPCURRENT_SERVER_HOST", "HOST", "0.0.0.0"),
			Port:           iconfig.GetEnvIntWithFallback("DEEPCURRENT_SERVER_PORT", "PORT", 8080),
			AllowedOrigins: []string{iconfig.GetEnv("DEEPCURRENT_ALLOWED_ORIGIN", "*")},
		},
		Database: DatabaseConfig{
			URL: iconfig.GetEnvWithFallback("DEEPCURRENT_DATABASE_URL", "DATABASE_URL",
				"postgres://postgres@localhost:5432/deepcurrent?sslmode=disable"),
		},
		Evolution: EvolutionConfig{
			WindowSize:          iconfig.GetEnvInt("DEEPCURRENT_EVOLUTION_WINDOW", 20),
			CandidateRollout:    iconfig.GetEnvInt("DEEPCURRENT_CANDIDATE_ROLLOUT", 20),
			MinEpisodes:         iconfig.GetEnvInt("DEEPCURRENT_MIN_EPISODES", 5),
			LowSaveRate:         iconfig.GetEnvFloat("DEEPCURRENT_LOW_SAVE_RATE", 0.4),
			HighFollowups:       iconfig.GetEnvFloat("DEEPCURRENT_HIGH_FOLLOWUPS", 8),
			LowPrimaryToolUsage: iconfig.GetEnvFloat("DEEPCURRENT_LOW_PRIMARY_TOOL_USAGE", 0.2),
			PrimaryTool:         iconfig.GetEnv("DEEPCURRENT_PRIMARY_TOOL", "senso"),
			QueueSize:           iconfig.GetEnvInt("DEEPCURRENT_EVOLUTION_QUEUE_SIZE", 256),
			Concurrency:         iconfig.GetEnvInt("DEEPCURRENT_EVOLUTION_CONCURRENCY", 2),
		},
		Sweeper: SweeperConfig{
			TTL:      iconfig.GetEnvDuration("DEEPCURRENT_EPISODE_TTL", 10*time.Minute),
			Interval: iconfig.GetEnvDuration("DEEPCURRENT_SWEEP_INTERVAL", time.Minute),
		},
		Research: ResearchConfig{
			Timeout: iconfig.GetEnvDuration("DEEPCURRENT_RESEARCH_TIMEOUT", 5*time.Minute),
		},
		Otel: OtelConfig{
			Enabled:     iconfig.GetEnvBool("DEEPCURRENT_OTEL_ENABLED", false),
			Environment: iconfig.GetEnv("DEEPCURRENT_ENVIRONMENT", "development"),
		},
	}
}
