package emit

import (
	"fmt"
	"io"
)

// WriteFunctionsFile renders the objective and constraint expressions
// as readable Go-looking source for the "emitted functions file"
// artifact of spec.md §6. It is never parsed back in by this program;
// BuildWorkflowFuncs is what actually gets evaluated.
func WriteFunctionsFile(w io.Writer, stages []StageFlags, criticalPath, secondaryPath []int, bound BoundType) {
	criticalLatency := pathLatencyExpr(stages, criticalPath)
	totalCost := totalCostExpr(stages)

	fmt.Fprintln(w, "// generated: do not edit")
	fmt.Fprintln(w)
	fmt.Fprint(w, "func totalCost(x, p []float64) float64 { return ")
	totalCost.WriteGo(w)
	fmt.Fprintln(w, " }")
	fmt.Fprint(w, "func criticalPathLatency(x, p []float64) float64 { return ")
	criticalLatency.WriteGo(w)
	fmt.Fprintln(w, " }")

	if len(secondaryPath) > 0 {
		secondaryLatency := pathLatencyExpr(stages, secondaryPath)
		fmt.Fprint(w, "func secondaryPathLatency(x, p []float64) float64 { return ")
		secondaryLatency.WriteGo(w)
		fmt.Fprintln(w, " }")
	}

	switch bound {
	case BoundLatency:
		fmt.Fprintln(w, "func objective(x, p []float64) float64 { return totalCost(x, p) }")
		fmt.Fprintln(w, "func constraint(x, p []float64, b float64) float64 { return criticalPathLatency(x, p) - b }")
	case BoundCost:
		fmt.Fprintln(w, "func objective(x, p []float64) float64 { return criticalPathLatency(x, p) }")
		fmt.Fprintln(w, "func constraint(x, p []float64, b float64) float64 { return totalCost(x, p) - b }")
	}
}
