package perfmodel

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrFit is returned when non-linear least squares fails to converge
// (spec.md §7 "fit" error kind).
var ErrFit = errors.New("perfmodel: least-squares fit did not converge")

// model evaluates the fitted function at sample i given the current
// parameter vector. jacobianRow fills the partial derivatives of the
// model w.r.t. each parameter at sample i.
type model interface {
	eval(params []float64, i int) float64
	jacobianRow(params []float64, i int, row []float64)
	numSamples() int
	numParams() int
	y(i int) float64
}

// levenbergMarquardt fits model m starting from init, returning the
// converged parameter vector and its covariance estimate
// sigma^2 * (J^T J)^-1. Returns ErrFit if the damping factor grows
// past 1e12 without finding a step that reduces the residual. If
// J^T J is singular at the final iterate, the covariance falls back
// to a 1e-6 diagonal and no error is returned.
func levenbergMarquardt(m model, init []float64, maxIter int) ([]float64, []float64, error) {
	n := m.numSamples()
	p := m.numParams()
	params := append([]float64(nil), init...)

	lambda := 1e-3
	residuals := make([]float64, n)
	jac := mat.NewDense(n, p, nil)

	computeResidualsAndRSS := func(pr []float64) float64 {
		var rss float64
		for i := 0; i < n; i++ {
			r := m.y(i) - m.eval(pr, i)
			residuals[i] = r
			rss += r * r
		}
		return rss
	}

	rss := computeResidualsAndRSS(params)

	row := make([]float64, p)
	for iter := 0; iter < maxIter; iter++ {
		for i := 0; i < n; i++ {
			m.jacobianRow(params, i, row)
			for j := 0; j < p; j++ {
				jac.Set(i, j, row[j])
			}
		}

		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		var jtr mat.VecDense
		rvec := mat.NewVecDense(n, residuals)
		jtr.MulVec(jac.T(), rvec)

		for j := 0; j < p; j++ {
			jtj.Set(j, j, jtj.At(j, j)*(1+lambda))
		}

		var delta mat.VecDense
		if err := delta.SolveVec(&jtj, &jtr); err != nil {
			lambda *= 10
			if lambda > 1e12 {
				return nil, nil, ErrFit
			}
			continue
		}

		trial := make([]float64, p)
		for j := 0; j < p; j++ {
			trial[j] = params[j] + delta.AtVec(j)
		}
		trialRSS := computeResidualsAndRSS(trial)
		if math.IsNaN(trialRSS) || math.IsInf(trialRSS, 0) {
			lambda *= 10
			if lambda > 1e12 {
				return nil, nil, ErrFit
			}
			continue
		}
		if trialRSS < rss {
			improvement := rss - trialRSS
			params = trial
			rss = trialRSS
			lambda = math.Max(lambda/10, 1e-12)
			if improvement < 1e-14*(rss+1e-14) {
				break
			}
		} else {
			lambda *= 10
			if lambda > 1e12 {
				return nil, nil, ErrFit
			}
		}
	}

	// Final covariance: sigma^2 * (J^T J)^-1.
	for i := 0; i < n; i++ {
		m.jacobianRow(params, i, row)
		for j := 0; j < p; j++ {
			jac.Set(i, j, row[j])
		}
	}
	var jtj mat.Dense
	jtj.Mul(jac.T(), jac)
	var jtjInv mat.Dense
	if err := jtjInv.Inverse(&jtj); err != nil {
		// Singular: fall back to a small diagonal covariance so
		// downstream sampling remains well-defined (spec.md only
		// requires offline sampling to be deterministic, not that
		// every fit be well-conditioned).
		cov := make([]float64, p*p)
		for j := 0; j < p; j++ {
			cov[j*p+j] = 1e-6
		}
		return params, cov, nil
	}

	dof := float64(n - p)
	if dof < 1 {
		dof = 1
	}
	sigma2 := rss / dof

	cov := make([]float64, p*p)
	for r := 0; r < p; r++ {
		for c := 0; c < p; c++ {
			cov[r*p+c] = sigma2 * jtjInv.At(r, c)
		}
	}
	return params, cov, nil
}

// meanAbsRelError computes mean(|pred-y|/|y|) over all samples.
func meanAbsRelError(y, pred []float64) float64 {
	var sum float64
	for i := range y {
		sum += math.Abs((pred[i] - y[i]) / y[i])
	}
	return sum / float64(len(y))
}

// meanRelError computes mean((pred-y)/y) over all samples (signed).
func meanRelError(y, pred []float64) float64 {
	var sum float64
	for i := range y {
		sum += (pred[i] - y[i]) / y[i]
	}
	return sum / float64(len(y))
}
