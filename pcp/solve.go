package pcp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/sangwoongk/jolteon-go/emit"
)

// Status reports how a Solve call terminated.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusMaxIterations
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusMaxIterations:
		return "max-iterations"
	default:
		return "unknown"
	}
}

// Result is the outcome of a chance-constrained minimisation.
type Result struct {
	X      []float64
	Status Status
}

const (
	feasibilityTol  = 1e-3
	penaltyStart    = 1e2
	penaltyGrowth   = 10.0
	continuationN   = 6
)

// Solve finds x minimising objective(x, thetaHat) subject to
// max_i constraint(x, scenarios[i], bound) <= 0, the same holding for
// secondaryConstraint when non-nil, and x within bounds (spec.md
// §4.5). initialGuess may be nil, in which case the midpoint of each
// box bound is used.
//
// gonum/optimize has no native support for inequality-constrained NLP,
// so this uses an exterior penalty method: a sequence of unconstrained
// Nelder-Mead minimisations of objective + penalty*violations^2, with
// the penalty weight increased each round (a standard continuation
// scheme) and each round warm-started from the previous round's point.
func Solve(dim int, objective emit.ObjectiveFunc, constraint, secondaryConstraint emit.ConstraintFunc, bound float64, thetaHat []float64, scenarios [][]float64, bounds [][2]float64, initialGuess []float64) (Result, error) {
	if len(bounds) != dim {
		return Result{}, fmt.Errorf("pcp: expected %d box bounds, got %d", dim, len(bounds))
	}

	x0 := make([]float64, dim)
	if initialGuess != nil {
		copy(x0, initialGuess)
	} else {
		for i, b := range bounds {
			x0[i] = (b[0] + b[1]) / 2
		}
	}

	violation := func(x []float64) float64 {
		var maxV float64
		for _, theta := range scenarios {
			v := constraint(x, theta, bound)
			if v > maxV {
				maxV = v
			}
			if secondaryConstraint != nil {
				v2 := secondaryConstraint(x, theta, bound)
				if v2 > maxV {
					maxV = v2
				}
			}
		}
		for i, b := range bounds {
			if x[i] < b[0] {
				if d := b[0] - x[i]; d > maxV {
					maxV = d
				}
			}
			if x[i] > b[1] {
				if d := x[i] - b[1]; d > maxV {
					maxV = d
				}
			}
		}
		return maxV
	}

	penalty := penaltyStart
	x := x0
	for round := 0; round < continuationN; round++ {
		p := penalty
		fn := func(xi []float64) float64 {
			v := violation(xi)
			pen := 0.0
			if v > 0 {
				pen = p * v * v
			}
			return objective(xi, thetaHat) + pen
		}

		problem := optimize.Problem{Func: fn}
		settings := &optimize.Settings{MajorIterations: 2000}
		res, err := optimize.Minimize(problem, x, settings, &optimize.NelderMead{})
		if err != nil && res == nil {
			return Result{}, fmt.Errorf("pcp: solver round %d: %w", round, err)
		}
		x = res.X
		penalty *= penaltyGrowth
	}

	if v := violation(x); v > feasibilityTol*math.Max(1, bound) {
		return Result{X: x, Status: StatusInfeasible}, ErrInfeasible
	}

	return Result{X: x, Status: StatusOptimal}, nil
}
