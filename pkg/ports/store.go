package ports

import (
	"context"
	"time"
)

// Result is the record of one finished game run.
type Result struct {
	RunID      string             `json:"run_id"`
	Game       string             `json:"game"`
	Players    []string           `json:"players"`
	Scores     map[string]float64 `json:"scores"`
	States     int                `json:"states"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
}

// ResultStore persists game results.
type ResultStore interface {
	// Save persists the result under its run id.
	Save(ctx context.Context, result Result) error

	// Load retrieves a result.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (Result, error)

	// List returns the ids of the stored runs.
	List(ctx context.Context) ([]string, error)
}
