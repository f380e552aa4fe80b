// Package pcp implements the chance-constrained configuration solver
// of spec.md §4.5: the scenario sample-size lower bound from
// scenario-program theory, and a constrained non-linear minimisation
// over the symbolic objective/constraint functions built by the emit
// package.
package pcp

import "errors"

// ErrInfeasible is returned when no box-feasible point could be found
// that satisfies every scenario constraint.
var ErrInfeasible = errors.New("pcp: infeasible")
