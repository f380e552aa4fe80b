// Package perfmodel fits and evaluates the per-stage latency/cost
// model described in spec.md §4.1: a closed form over read, compute,
// and write phases, reduced to five coefficients plus a cold-start
// percentile, with offline Monte-Carlo sampling from each phase's
// fitted covariance for the chance-constrained solver.
package perfmodel

import "math"

// Mode selects which quantity Predict returns.
type Mode int

const (
	ModeLatency Mode = iota
	ModeCost
)

// Cost-model constants from spec.md §4.1. Preserved bit-faithfully —
// see SPEC_FULL.md / Design Notes Open Question (2).
const (
	costAlpha = 2.9225
	costBeta  = 0.02
)

// ConfigPair is one (memory_mb, num_func) profiling grid point.
type ConfigPair struct {
	MemoryMB int
	NumFunc  int
}

// EqVCPU computes the equivalent-vCPU product for a configuration:
// round((mem/1792)*numFunc, 1). 1792 MB is defined as one vCPU.
func EqVCPU(memoryMB int, numFunc int) float64 {
	v := float64(memoryMB) / 1792.0 * float64(numFunc)
	return math.Round(v*10) / 10
}

// PhaseFit holds a fitted phase's parameter vector and covariance, in
// row-major form (covariance is len(params)*len(params)).
type PhaseFit struct {
	Params []float64
	Cov    []float64 // row-major len(Params) x len(Params)
}

// StagePerfModel is the per-stage performance model of spec.md §3.
type StagePerfModel struct {
	StageID int
	Name    string

	AllowParallel bool
	HasParent     bool

	// CanIntraParallel[i] records, for phase i in {read, compute,
	// write}, whether that phase's time was fit against k*d rather
	// than d alone.
	CanIntraParallel [3]bool
	// ParentRelevant is only meaningful when AllowParallel is false:
	// whether read time was fit against f_io2 (depends on parent d).
	ParentRelevant bool

	ColdSamples []float64

	Read    PhaseFit
	Compute PhaseFit
	Write   PhaseFit

	// Reduced 5-coefficient closed form (spec.md §4.1).
	CX      float64
	CKDorD  float64
	CLogX   float64
	CX2     float64
	CConst  float64

	// LatencyColdPercentile / CostColdPercentile select which
	// percentile of ColdSamples stands in for the cold term at
	// prediction time; cost uses p0 to avoid double-counting cold
	// time across stages summed outside any single critical path
	// (spec.md §4.1).
	LatencyColdPercentile float64
	CostColdPercentile    float64
}

// NewStagePerfModel constructs a model with the default percentiles
// (p70 for latency, p0 for cost) and AllowParallel=true.
func NewStagePerfModel(stageID int, name string) *StagePerfModel {
	return &StagePerfModel{
		StageID:               stageID,
		Name:                  name,
		AllowParallel:         true,
		CanIntraParallel:      [3]bool{true, true, true},
		LatencyColdPercentile: 70,
		CostColdPercentile:    0,
	}
}
