package workflow

import "github.com/sangwoongk/jolteon-go/perfmodel"

// PredictLatency returns the maximum, over every source-to-sink path,
// of the summed per-stage latency predictions along that path
// (spec.md §4.2 Prediction).
func (wf *Workflow) PredictLatency() float64 {
	paths := wf.FindPaths()
	var best float64
	for i, path := range paths {
		var total float64
		parentD := 1
		for _, id := range path {
			st := wf.Stages[id]
			total += st.PerfModel.Predict(perfmodel.ModeLatency, st.Config.NumFunc, vcpuOf(st), parentD)
			if st.AllowParallel {
				parentD = st.Config.NumFunc
			}
		}
		if i == 0 || total > best {
			best = total
		}
	}
	return best
}

// PredictCost returns the sum of per-stage cost predictions across
// every stage in the workflow (spec.md §4.2 Prediction).
func (wf *Workflow) PredictCost() float64 {
	var total float64
	for _, st := range wf.Stages {
		total += st.PerfModel.Predict(perfmodel.ModeCost, st.Config.NumFunc, vcpuOf(st), wf.ParentDOf(st.ID))
	}
	return total
}

func vcpuOf(st *Stage) float64 {
	return float64(st.Config.MemoryMB) / 1792.0
}
