package walk

import (
	"math/rand/v2"
)

// Walk is the sequence of positions visited by one walker, starting at 0.
type Walk []int

// End returns the final position of the walk, or 0 for an empty walk.
func (w Walk) End() int {
	if len(w) == 0 {
		return 0
	}
	return w[len(w)-1]
}

// NewRand returns the deterministic random stream used for a seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// Step applies one turn of the rules to pos and reports whether the turn
// ended in a reset. Draws are consumed in a fixed order: die, bonus die
// (only on a top face), reset draw.
func Step(rng *rand.Rand, pos int, r Rules) (next int, reset bool) {
	next = pos
	die := throw(rng, r.Faces)
	switch {
	case die <= r.DownMax:
		next = max(0, next-1)
	case die <= r.UpMax:
		next++
	default:
		next += throw(rng, r.Faces)
	}

	if rng.Float64() <= r.ResetProbability {
		return 0, true
	}
	return next, false
}

// Generate builds a single walk of r.Steps turns starting at position 0.
// It returns the walk and the number of resets that occurred along it.
func Generate(rng *rand.Rand, r Rules) (Walk, int) {
	w := make(Walk, 1, r.Steps+1)
	resets := 0
	for range r.Steps {
		next, reset := Step(rng, w[len(w)-1], r)
		if reset {
			resets++
		}
		w = append(w, next)
	}
	return w, resets
}

func throw(rng *rand.Rand, faces int) int {
	return rng.IntN(faces) + 1
}
