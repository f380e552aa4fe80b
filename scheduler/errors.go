// Package scheduler ties the performance model, symbolic emitter, and
// PCP solver into the Jolteon configuration search of spec.md §4.6,
// plus the simpler heuristic baselines (Caerus, Orion, Ditto)
// recovered from original_source/workflow/scheduler.py as supplemental
// strategies sharing the same DAG and model substrate.
package scheduler

import "errors"

// ErrBoundViolation is returned when the PCP solver could not find a
// feasible configuration for the requested bound.
var ErrBoundViolation = errors.New("scheduler: no feasible configuration for bound")
