package walk

import (
	"context"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Trial describes one completed walk, as reported to an Observer.
type Trial struct {
	Index  int
	End    int
	Resets int
}

// Observer is called after each trial completes. It must not retain the walk.
type Observer func(t Trial, w Walk)

// Ensemble is an ordered collection of independent walks.
type Ensemble struct {
	Rules  Rules
	Walks  []Walk
	Resets []int // resets per walk, parallel to Walks
}

// Run generates trials walks from a single random stream, in order.
// Cancellation is checked between trials.
func Run(ctx context.Context, rng *rand.Rand, trials int, r Rules, observe Observer) (*Ensemble, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if trials < 0 {
		return nil, fmt.Errorf("%w: trials must be non-negative, got %d", ErrInvalidRules, trials)
	}

	e := &Ensemble{
		Rules:  r,
		Walks:  make([]Walk, 0, trials),
		Resets: make([]int, 0, trials),
	}
	for i := range trials {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w, resets := Generate(rng, r)
		e.Walks = append(e.Walks, w)
		e.Resets = append(e.Resets, resets)
		if observe != nil {
			observe(Trial{Index: i, End: w.End(), Resets: resets}, w)
		}
	}
	return e, nil
}

// Len returns the number of walks in the ensemble.
func (e *Ensemble) Len() int {
	return len(e.Walks)
}

// Matrix returns the ensemble as a dense trials x (steps+1) table.
// It returns nil for an empty ensemble.
func (e *Ensemble) Matrix() *mat.Dense {
	if len(e.Walks) == 0 {
		return nil
	}
	cols := e.Rules.Steps + 1
	data := make([]float64, 0, len(e.Walks)*cols)
	for _, w := range e.Walks {
		for _, p := range w {
			data = append(data, float64(p))
		}
	}
	return mat.NewDense(len(e.Walks), cols, data)
}

// Ends returns the final position of every walk, read as the last row of
// the transposed ensemble table.
func (e *Ensemble) Ends() []float64 {
	m := e.Matrix()
	if m == nil {
		return []float64{}
	}
	t := m.T()
	last, _ := t.Dims()
	return mat.Row(nil, last-1, t)
}

// ResetWalks counts the walks that fell back to the ground floor at least once.
func (e *Ensemble) ResetWalks() int {
	n := 0
	for _, r := range e.Resets {
		if r > 0 {
			n++
		}
	}
	return n
}
