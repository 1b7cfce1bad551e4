package domain

import "time"

// Strategy lifecycle states.
const (
	StrategyCandidate = "candidate"
	StrategyActive    = "active"
	StrategyArchived  = "archived"
)

// Episode lifecycle states.
const (
	EpisodePending   = "pending"
	EpisodeRunning   = "running"
	EpisodeCompleted = "completed"
	EpisodeFailed    = "failed"
)

type Topic struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// StrategyVersion is one entry in a topic's append-only strategy log.
// Rows are never deleted; superseded versions are archived.
type StrategyVersion struct {
	ID                string         `json:"id"`
	TopicID           string         `json:"topic_id"`
	Version           int            `json:"version"`
	Status            string         `json:"status"` // candidate, active, archived
	RolloutPercentage int            `json:"rollout_percentage"`
	ParentVersion     *int           `json:"parent_version,omitempty"`
	Config            StrategyConfig `json:"config"`
	CreatedAt         time.Time      `json:"created_at"`
	ArchivedAt        *time.Time     `json:"archived_at,omitempty"`
}

type Episode struct {
	ID              string         `json:"id"`
	TopicID         string         `json:"topic_id"`
	StrategyVersion int            `json:"strategy_version"`
	Query           string         `json:"query"`
	Status          string         `json:"status"` // pending, running, completed, failed
	SourcesReturned []string       `json:"sources_returned"`
	SourcesSaved    []string       `json:"sources_saved"`
	FollowupCount   int            `json:"followup_count"`
	ToolUsage       map[string]int `json:"tool_usage,omitempty"` // tool name -> call count
	DurationMs      int64          `json:"duration_ms"`
	ErrorMessage    string         `json:"error_message,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	StartedAt       *time.Time     `json:"started_at,omitempty"`
	FinishedAt      *time.Time     `json:"finished_at,omitempty"`
}

// Terminal reports whether the episode has reached a final state.
func (e *Episode) Terminal() bool {
	return e.Status == EpisodeCompleted || e.Status == EpisodeFailed
}

// EpisodeOutcome carries the agent runner's structured result into Complete.
type EpisodeOutcome struct {
	SourcesReturned []string       `json:"sources_returned"`
	SourcesSaved    []string       `json:"sources_saved"`
	FollowupCount   int            `json:"followup_count"`
	ToolUsage       map[string]int `json:"tool_usage,omitempty"`
	DurationMs      int64          `json:"duration_ms"`
}

// EvolutionEntry is an append-only audit record of one strategy evolution.
type EvolutionEntry struct {
	ID          string           `json:"id"`
	TopicID     string           `json:"topic_id"`
	FromVersion int              `json:"from_version"`
	ToVersion   int              `json:"to_version"`
	Reason      string           `json:"reason"`
	Metrics     *StrategyMetrics `json:"metrics"`
	CreatedAt   time.Time        `json:"created_at"`
}

// StrategyMetrics aggregates terminal episodes for one (topic, version) pair
// over a sliding window. SampleSize 0 means no data, not a failing strategy.
type StrategyMetrics struct {
	TopicID         string             `json:"topic_id"`
	StrategyVersion int                `json:"strategy_version"`
	SampleSize      int                `json:"sample_size"`
	SourcesReturned int                `json:"sources_returned"`
	SaveRate        float64            `json:"save_rate"`
	AvgFollowups    float64            `json:"avg_followups"`
	FailureRate     float64            `json:"failure_rate"`
	ToolUsage       map[string]float64 `json:"tool_usage,omitempty"` // tool name -> share of all calls
}
