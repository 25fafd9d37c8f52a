// Package summary computes distribution statistics over walk endpoints.
package summary

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Defaults for the summary stage.
const (
	DefaultBins      = 15
	DefaultThreshold = 60.0
)

// Histogram is an equal-width binning of a sample.
// Edges has len(Counts)+1 entries. Every bin is half-open except the last,
// which also includes its upper edge.
type Histogram struct {
	Edges  []float64 `json:"edges"`
	Counts []float64 `json:"counts"`
}

// Summary describes the endpoint distribution of an ensemble.
type Summary struct {
	Samples    int       `json:"samples"`
	Threshold  float64   `json:"threshold"`
	Exceedance float64   `json:"exceedance"`
	Mean       float64   `json:"mean"`
	StdDev     float64   `json:"std_dev"`
	Median     float64   `json:"median"`
	Min        float64   `json:"min"`
	Max        float64   `json:"max"`
	ResetWalks int       `json:"reset_walks"`
	Histogram  Histogram `json:"histogram"`
}

// NewHistogram bins values into bins equal-width bins spanning [min, max].
// A sample with a single distinct value v is binned over [v-0.5, v+0.5].
// An empty sample or a non-positive bin count yields an empty histogram.
func NewHistogram(values []float64, bins int) Histogram {
	if len(values) == 0 || bins < 1 {
		return Histogram{Edges: []float64{}, Counts: []float64{}}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	edges := floats.Span(make([]float64, bins+1), lo, hi)

	// stat.Histogram treats the last divider as exclusive; nudge it so the
	// maximum lands in the last bin.
	dividers := slices.Clone(edges)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, sorted, nil)

	return Histogram{Edges: edges, Counts: counts}
}

// Total returns the number of values counted by the histogram.
func (h Histogram) Total() float64 {
	return floats.Sum(h.Counts)
}

// ExceedanceFraction returns the share of values strictly greater than
// threshold. It is 0 for an empty sample.
func ExceedanceFraction(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	n := floats.Count(func(v float64) bool { return v > threshold }, values)
	return float64(n) / float64(len(values))
}

// Summarize computes the endpoint statistics. resetWalks is carried through
// as reported by the ensemble.
func Summarize(ends []float64, bins int, threshold float64, resetWalks int) Summary {
	s := Summary{
		Samples:    len(ends),
		Threshold:  threshold,
		Exceedance: ExceedanceFraction(ends, threshold),
		ResetWalks: resetWalks,
		Histogram:  NewHistogram(ends, bins),
	}
	if len(ends) == 0 {
		return s
	}

	sorted := slices.Clone(ends)
	slices.Sort(sorted)

	s.Mean, s.StdDev = stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		s.StdDev = 0
	}
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	return s
}
