// Package walk simulates dice-driven random walks up a staircase.
//
// A walk starts on step 0. Each turn a die is thrown: low faces move one
// step down (never below the ground floor), middle faces move one step up,
// and the top face grants a bonus throw whose value is climbed. Independently,
// a small per-turn probability resets the walker to the ground floor.
package walk

import (
	"errors"
	"fmt"
)

// Default simulation parameters.
const (
	DefaultSteps            = 100
	DefaultTrials           = 500
	DefaultFaces            = 6
	DefaultDownMax          = 2
	DefaultUpMax            = 5
	DefaultResetProbability = 0.001
)

// ErrInvalidRules is returned (wrapped) when Rules fail validation.
var ErrInvalidRules = errors.New("invalid walk rules")

// Rules configures the step rule applied on every turn of a walk.
type Rules struct {
	// Steps is the number of turns per walk. A walk has Steps+1 positions.
	Steps int `json:"steps" yaml:"steps"`

	// Faces is the number of faces on the die.
	Faces int `json:"faces" yaml:"faces"`

	// DownMax is the highest face that moves the walker one step down.
	DownMax int `json:"down_max" yaml:"down_max"`

	// UpMax is the highest face that moves the walker one step up.
	// Faces above UpMax grant a bonus throw.
	UpMax int `json:"up_max" yaml:"up_max"`

	// ResetProbability is the per-turn chance of falling back to step 0.
	ResetProbability float64 `json:"reset_probability" yaml:"reset_probability"`
}

// DefaultRules returns the classic six-sided staircase rules.
func DefaultRules() Rules {
	return Rules{
		Steps:            DefaultSteps,
		Faces:            DefaultFaces,
		DownMax:          DefaultDownMax,
		UpMax:            DefaultUpMax,
		ResetProbability: DefaultResetProbability,
	}
}

// Validate checks that the rules describe a well-formed die and step rule.
func (r Rules) Validate() error {
	if r.Steps < 0 {
		return fmt.Errorf("%w: steps must be non-negative, got %d", ErrInvalidRules, r.Steps)
	}
	if r.Faces < 1 {
		return fmt.Errorf("%w: faces must be at least 1, got %d", ErrInvalidRules, r.Faces)
	}
	if r.DownMax < 0 || r.DownMax > r.Faces {
		return fmt.Errorf("%w: down_max must be between 0 and %d, got %d", ErrInvalidRules, r.Faces, r.DownMax)
	}
	if r.UpMax < r.DownMax || r.UpMax > r.Faces {
		return fmt.Errorf("%w: up_max must be between %d and %d, got %d", ErrInvalidRules, r.DownMax, r.Faces, r.UpMax)
	}
	if r.ResetProbability < 0 || r.ResetProbability > 1 {
		return fmt.Errorf("%w: reset_probability must be between 0 and 1, got %f", ErrInvalidRules, r.ResetProbability)
	}
	return nil
}
