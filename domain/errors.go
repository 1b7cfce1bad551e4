package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced topic, episode or strategy
	// version does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned on an illegal lifecycle transition, such as
	// completing an already-terminal episode. It indicates a caller bug and is
	// never retried.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrVersionConflict is returned when two concurrent strategy mutations
	// race for the same topic. The loser retries against fresh state.
	ErrVersionConflict = errors.New("strategy version conflict")
)
