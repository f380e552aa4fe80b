package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangwoongk/jolteon-go/perfmodel"
)

// TestPredictLatency_DiamondTakesMaxPath builds a diamond DAG where the
// two source-to-sink paths have deliberately different summed
// predictions, so a min/sum bug and the correct max would disagree.
func TestPredictLatency_DiamondTakesMaxPath(t *testing.T) {
	cfg := []byte(`{
		"num_stages": 4,
		"workflow_name": "diamond",
		"0": {"stage_name": "s0", "parents": [], "children": [1, 2], "allow_parallel": "true"},
		"1": {"stage_name": "s1", "parents": [0], "children": [3], "allow_parallel": "true"},
		"2": {"stage_name": "s2", "parents": [0], "children": [3], "allow_parallel": "true"},
		"3": {"stage_name": "s3", "parents": [1, 2], "children": [], "allow_parallel": "true"}
	}`)
	wf, err := Parse(cfg)
	require.NoError(t, err)

	constants := map[string]float64{"s0": 1, "s1": 2, "s2": 5, "s3": 1}
	for _, st := range wf.Stages {
		st.PerfModel.CConst = constants[st.Name]
		st.Config = Config{MemoryMB: 1792, NumFunc: 1}
	}

	// path 0,1,3 sums to 4; path 0,2,3 sums to 7.
	assert.Equal(t, 7.0, wf.PredictLatency())
}

func TestPredictCost_SumsAcrossEveryStage(t *testing.T) {
	wf, err := Parse(linearConfig())
	require.NoError(t, err)

	for _, st := range wf.Stages {
		st.PerfModel.CConst = 1
		st.Config = Config{MemoryMB: 1792, NumFunc: 1}
	}

	single := wf.Stages[0].PerfModel.Predict(perfmodel.ModeCost, 1, 1.0, 0)
	assert.Equal(t, single*float64(len(wf.Stages)), wf.PredictCost())
}
