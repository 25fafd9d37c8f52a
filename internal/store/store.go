// Package store defines the RunStore interface for keeping a history of
// simulation runs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nvandessel/stairwalk/internal/experiment"
	"github.com/nvandessel/stairwalk/internal/summary"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Run is a stored simulation: its parameters, its summary, and the endpoint
// sample. Full walks are not stored; they can be regenerated from Params.
type Run struct {
	ID        string            `json:"id"`
	Params    experiment.Params `json:"params"`
	Summary   summary.Summary   `json:"summary"`
	Ends      []float64         `json:"ends,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// RunFromResult converts an experiment result into a storable run.
func RunFromResult(res *experiment.Result) Run {
	return Run{
		ID:        res.ID,
		Params:    res.Params,
		Summary:   res.Summary,
		Ends:      res.Ends(),
		CreatedAt: res.CreatedAt,
	}
}

// RunStore defines the interface for persisting run history.
type RunStore interface {
	// SaveRun inserts or replaces a run.
	SaveRun(ctx context.Context, run Run) error

	// GetRun returns a run including its endpoint sample.
	// Returns ErrNotFound if no run has the given ID.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns runs newest first, without endpoint samples.
	// A limit <= 0 returns all runs.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// DeleteRun removes a run. Returns ErrNotFound if it does not exist.
	DeleteRun(ctx context.Context, id string) error

	Close() error
}
