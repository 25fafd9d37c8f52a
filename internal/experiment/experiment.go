// Package experiment runs a complete staircase simulation: it seeds the
// random stream, builds the walk ensemble, and summarizes the endpoints.
package experiment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/nvandessel/stairwalk/internal/config"
	"github.com/nvandessel/stairwalk/internal/logging"
	"github.com/nvandessel/stairwalk/internal/summary"
	"github.com/nvandessel/stairwalk/internal/walk"
)

// Params fully determines a simulation. Two runs with equal Params produce
// identical ensembles.
type Params struct {
	Seed      uint64     `json:"seed"`
	Trials    int        `json:"trials"`
	Rules     walk.Rules `json:"rules"`
	Bins      int        `json:"bins"`
	Threshold float64    `json:"threshold"`
}

// DefaultParams returns the classic 500-walk, 100-step simulation.
func DefaultParams() Params {
	return FromConfig(config.Default())
}

// FromConfig builds Params from a loaded configuration.
func FromConfig(c *config.StairwalkConfig) Params {
	return Params{
		Seed:      c.Simulation.Seed,
		Trials:    c.Simulation.Trials,
		Rules:     c.Rules(),
		Bins:      c.Summary.Bins,
		Threshold: c.Summary.Threshold,
	}
}

// Validate checks that the params describe a runnable simulation.
func (p Params) Validate() error {
	if p.Trials < 1 {
		return fmt.Errorf("trials must be at least 1, got %d", p.Trials)
	}
	if p.Bins < 1 {
		return fmt.Errorf("bins must be at least 1, got %d", p.Bins)
	}
	return p.Rules.Validate()
}

// Result is the outcome of one simulation.
type Result struct {
	ID        string          `json:"id"`
	Params    Params          `json:"params"`
	CreatedAt time.Time       `json:"created_at"`
	Summary   summary.Summary `json:"summary"`
	Ensemble  *walk.Ensemble  `json:"-"`

	ends []float64
}

// Ends returns the endpoint sample of the result's ensemble. Results built
// by Execute share one precomputed slice, which callers must not modify.
func (r *Result) Ends() []float64 {
	if r.ends != nil {
		return r.ends
	}
	if r.Ensemble == nil {
		return []float64{}
	}
	return r.Ensemble.Ends()
}

type options struct {
	logger *slog.Logger
	events *logging.EventLogger
	now    func() time.Time
}

// Option configures Execute.
type Option func(*options)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithEvents sets the per-trial event trace.
func WithEvents(el *logging.EventLogger) Option {
	return func(o *options) { o.events = el }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Execute runs the simulation described by p.
func Execute(ctx context.Context, p Params, opts ...Option) (*Result, error) {
	o := options{logger: logging.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	createdAt := o.now().UTC()
	id := RunID(p, createdAt)
	start := time.Now()

	o.logger.Debug("starting simulation", "run", id, "seed", p.Seed, "trials", p.Trials, "steps", p.Rules.Steps)
	o.events.Log(map[string]any{"event": "run_start", "run": id, "seed": p.Seed, "trials": p.Trials})

	var observe walk.Observer
	if o.events != nil {
		observe = func(t walk.Trial, w walk.Walk) {
			event := map[string]any{
				"event":  "trial",
				"run":    id,
				"trial":  t.Index,
				"end":    t.End,
				"resets": t.Resets,
			}
			if o.events.Trace() {
				event["path"] = []int(w)
			}
			o.events.Log(event)
		}
	}

	ens, err := walk.Run(ctx, walk.NewRand(p.Seed), p.Trials, p.Rules, observe)
	if err != nil {
		return nil, fmt.Errorf("running ensemble: %w", err)
	}

	ends := ens.Ends()
	s := summary.Summarize(ends, p.Bins, p.Threshold, ens.ResetWalks())

	o.logger.Debug("simulation finished", "run", id, "exceedance", s.Exceedance, "duration", time.Since(start))
	o.events.Log(map[string]any{"event": "run_end", "run": id, "exceedance": s.Exceedance, "mean": s.Mean})

	return &Result{
		ID:        id,
		Params:    p,
		CreatedAt: createdAt,
		Summary:   s,
		Ensemble:  ens,
		ends:      ends,
	}, nil
}

// RunID derives a stable identifier from the params and creation time.
func RunID(p Params, createdAt time.Time) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%+v|%d|%g|%d", p.Seed, p.Trials, p.Rules, p.Bins, p.Threshold, createdAt.UnixNano())
	return "run-" + hex.EncodeToString(h.Sum(nil))[:12]
}
