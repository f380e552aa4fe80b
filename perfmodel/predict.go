package perfmodel

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Params returns the 6-element parameter vector (cold, c_x, c_kd|d,
// c_logx, c_x2, c_const) used both for prediction and as the
// parameter-file layout of spec.md §4.4/§6.
func (m *StagePerfModel) Params(coldPercentile float64) []float64 {
	cold := percentile(m.ColdSamples, coldPercentile)
	return []float64{cold, m.CX, m.CKDorD, m.CLogX, m.CX2, m.CConst}
}

func percentile(samples []float64, p float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	return stat.Quantile(p/100.0, stat.LinInterp, sorted, nil)
}

// Predict evaluates the reduced closed form for this stage
// (spec.md §4.1). vcpuPerFunc is the per-function equivalent vCPU
// allocation (memory_mb/1792); numFunc is d; parentD is the parent's
// parallelism degree, used only when AllowParallel is false and
// ParentRelevant is true.
func (m *StagePerfModel) Predict(mode Mode, numFunc int, vcpuPerFunc float64, parentD int) float64 {
	memoryMB := vcpuPerFunc * 1792
	k := EqVCPU(int(math.Round(memoryMB)), 1)
	kd := EqVCPU(int(math.Round(memoryMB)), numFunc)
	d := float64(numFunc)

	var x [5]float64
	if m.AllowParallel {
		x = [5]float64{1.0 / d, 1.0 / kd, math.Log(d) / d, 1.0 / (d * d), 1.0}
		if m.CanIntraParallel[1] {
			x[2] = math.Log(kd) / kd
			x[3] = 1.0 / (kd * kd)
		}
	} else {
		pd := float64(parentD)
		if !m.ParentRelevant {
			pd = 0
		}
		x = [5]float64{1.0 / k, pd, math.Log(k) / k, 1.0 / (k * k), 1.0}
	}

	percentileForMode := m.LatencyColdPercentile
	if mode == ModeCost {
		percentileForMode = m.CostColdPercentile
	}
	params := m.Params(percentileForMode)

	pred := params[0]
	for i := 0; i < 5; i++ {
		pred += params[1+i] * x[i]
	}

	if mode == ModeLatency {
		return pred
	}
	return (pred*float64(numFunc)*vcpuPerFunc*costAlpha + costBeta*float64(numFunc)) / 1e5
}
