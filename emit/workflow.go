package emit

import "fmt"

// BoundType selects which of the two §4.4 optimization shapes a
// workflow uses: bound the critical-path latency and minimize cost,
// or bound the total cost and minimize critical-path latency.
type BoundType int

const (
	BoundLatency BoundType = iota
	BoundCost
)

// ObjectiveFunc and ConstraintFunc are the two function shapes the pcp
// solver consumes (spec.md §4.4): the objective is a pure function of
// (x, p); the constraint additionally takes the runtime bound b so the
// same expression tree can be evaluated against any bound without
// rebuilding it.
type ObjectiveFunc func(x, p []float64) float64
type ConstraintFunc func(x, p []float64, b float64) float64

func pathLatencyExpr(stages []StageFlags, path []int) Expr {
	sum := make(Sum, 0, len(path))
	for _, id := range path {
		sum = append(sum, StageLatencyExpr(stages[id]))
	}
	return sum
}

func totalCostExpr(stages []StageFlags) Expr {
	sum := make(Sum, 0, len(stages))
	for _, f := range stages {
		sum = append(sum, StageCostExpr(f))
	}
	return sum
}

// BuildWorkflowFuncs assembles the workflow-level objective and
// constraint(s) from per-stage flags and the critical/secondary paths
// (spec.md §4.4). secondaryPath may be nil when the DAG has only one
// source-to-sink path, in which case the returned secondary constraint
// is nil.
func BuildWorkflowFuncs(stages []StageFlags, criticalPath, secondaryPath []int, bound BoundType) (ObjectiveFunc, ConstraintFunc, ConstraintFunc, error) {
	if len(criticalPath) == 0 {
		return nil, nil, nil, fmt.Errorf("emit: empty critical path")
	}

	criticalLatency := pathLatencyExpr(stages, criticalPath)
	totalCost := totalCostExpr(stages)

	var secondaryLatency Expr
	if len(secondaryPath) > 0 {
		secondaryLatency = pathLatencyExpr(stages, secondaryPath)
	}

	switch bound {
	case BoundLatency:
		objective := func(x, p []float64) float64 { return totalCost.Eval(x, p) }
		constraint := func(x, p []float64, b float64) float64 { return criticalLatency.Eval(x, p) - b }

		var secondaryConstraint ConstraintFunc
		if secondaryLatency != nil {
			secondaryConstraint = func(x, p []float64, b float64) float64 { return secondaryLatency.Eval(x, p) - b }
		}
		return objective, constraint, secondaryConstraint, nil

	case BoundCost:
		objective := func(x, p []float64) float64 { return criticalLatency.Eval(x, p) }
		constraint := func(x, p []float64, b float64) float64 { return totalCost.Eval(x, p) - b }

		var secondaryConstraint ConstraintFunc
		if secondaryLatency != nil {
			// Critical path must remain at least as slow as the
			// secondary path: secondary - critical <= 0. The bound b
			// is unused here but kept in the signature so both
			// constraints share one type.
			secondaryConstraint = func(x, p []float64, b float64) float64 {
				return secondaryLatency.Eval(x, p) - criticalLatency.Eval(x, p)
			}
		}
		return objective, constraint, secondaryConstraint, nil
	}

	return nil, nil, nil, fmt.Errorf("emit: unknown bound type %v", bound)
}
