package perfmodel

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// RecommendedSeed is the deterministic seed spec.md §4.1/§8 recommends
// for offline sampling (31729).
const RecommendedSeed = 31729

// SampleOffline draws numSamples Monte-Carlo realisations of this
// stage's 6-coefficient row (cold, c_x, c_kd|d, c_logx, c_x2, c_const)
// from the empirical cold-start distribution and each phase's fitted
// multivariate normal (spec.md §4.1 "Offline sampling"). Deterministic
// for a fixed seed.
func (m *StagePerfModel) SampleOffline(numSamples int, seed uint64) [][]float64 {
	rng := rand.New(rand.NewSource(int64(seed)))

	cold := resample(m.ColdSamples, numSamples, rng)
	read := sampleMVN(m.Read, numSamples, rng)
	compute := sampleMVN(m.Compute, numSamples, rng)
	write := sampleMVN(m.Write, numSamples, rng)

	out := make([][]float64, numSamples)
	for i := 0; i < numSamples; i++ {
		row := make([]float64, 6)
		row[0] = cold[i]
		if m.AllowParallel {
			if m.CanIntraParallel[0] {
				row[2] += read[i][0]
			} else {
				row[1] += read[i][0]
			}
			if m.CanIntraParallel[1] {
				row[2] += compute[i][0]
			} else {
				row[1] += compute[i][0]
			}
			if m.CanIntraParallel[2] {
				row[2] += write[i][0]
			} else {
				row[1] += write[i][0]
			}
			row[3] += compute[i][1]
			row[4] += compute[i][2]
			row[5] += read[i][1] + compute[i][3] + write[i][1]
		} else {
			row[1] += read[i][0] + compute[i][0] + write[i][0]
			if m.ParentRelevant {
				row[2] += read[i][1]
				row[5] += read[i][2]
			} else {
				row[5] += read[i][1]
			}
			row[3] += compute[i][1]
			row[4] += compute[i][2]
			row[5] += compute[i][3] + write[i][1]
		}
		out[i] = row
	}
	return out
}

func resample(samples []float64, n int, rng *rand.Rand) []float64 {
	out := make([]float64, n)
	if len(samples) == 0 {
		return out
	}
	for i := 0; i < n; i++ {
		out[i] = samples[rng.Intn(len(samples))]
	}
	return out
}

// sampleMVN draws n samples from N(fit.Params, fit.Cov). Falls back
// to independent per-dimension normals (diagonal of Cov, floored at a
// small epsilon) if the covariance is not positive definite — the
// fitted covariance from a handful of profiling points is frequently
// near-singular, and the spec's determinism requirement is about the
// seed, not about requiring a particular degenerate-covariance policy.
func sampleMVN(fit PhaseFit, n int, rng *rand.Rand) [][]float64 {
	p := len(fit.Params)
	out := make([][]float64, n)

	mean := fit.Params
	covDense := mat.NewSymDense(p, nil)
	for r := 0; r < p; r++ {
		for c := r; c < p; c++ {
			covDense.SetSym(r, c, fit.Cov[r*p+c])
		}
	}

	normal, ok := distmv.NewNormal(mean, covDense, rng)
	if !ok {
		for i := 0; i < n; i++ {
			row := make([]float64, p)
			for j := 0; j < p; j++ {
				variance := fit.Cov[j*p+j]
				if variance <= 0 {
					variance = 1e-6
				}
				row[j] = mean[j] + rng.NormFloat64()*math.Sqrt(variance)
			}
			out[i] = row
		}
		return out
	}

	for i := 0; i < n; i++ {
		out[i] = normal.Rand(nil)
	}
	return out
}
