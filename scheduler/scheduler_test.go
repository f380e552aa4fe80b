package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangwoongk/jolteon-go/emit"
	"github.com/sangwoongk/jolteon-go/perfmodel"
	"github.com/sangwoongk/jolteon-go/workflow"
)

func twoStageWorkflow(t *testing.T, secondAllowParallel bool) *workflow.Workflow {
	t.Helper()
	allow := "false"
	if secondAllowParallel {
		allow = "true"
	}
	cfg := []byte(`{
		"num_stages": 2,
		"workflow_name": "pair",
		"critical_path": [0, 1],
		"0": {"stage_name": "s0", "parents": [], "children": [1], "allow_parallel": "true"},
		"1": {"stage_name": "s1", "parents": [0], "children": [], "allow_parallel": "` + allow + `"}
	}`)
	wf, err := workflow.Parse(cfg)
	require.NoError(t, err)
	return wf
}

func constantProfile(grid []perfmodel.ConfigPair) perfmodel.StageProfile {
	n := len(grid)
	row := func(v float64) [][2]float64 {
		out := make([][2]float64, n)
		for i := range out {
			out[i] = [2]float64{v, v}
		}
		return out
	}
	return perfmodel.StageProfile{
		Cold:    [][][2]float64{row(0.05), row(0.05), row(0.05)},
		Read:    [][][2]float64{row(1.0), row(1.0), row(1.0)},
		Compute: [][][2]float64{row(1.0), row(1.0), row(1.0)},
		Write:   [][][2]float64{row(0.5), row(0.5), row(0.5)},
	}
}

func testGrid() []perfmodel.ConfigPair {
	return []perfmodel.ConfigPair{
		{MemoryMB: 896, NumFunc: 1},
		{MemoryMB: 1792, NumFunc: 2},
		{MemoryMB: 3584, NumFunc: 4},
	}
}

func TestJolteon_PinsNonParallelStageToOne(t *testing.T) {
	wf := twoStageWorkflow(t, false)
	grid := testGrid()
	profile := perfmodel.Profile{
		"s0": constantProfile(grid),
		"s1": constantProfile(grid),
	}

	j := NewJolteon(wf)
	j.MaxSampleSize = 200
	require.NoError(t, j.Train(profile, grid))
	require.NoError(t, j.SetBound(emit.BoundLatency, 1000, 0.9, 0.9))

	_, err := j.Solve(perfmodel.RecommendedSeed)
	require.NoError(t, err)

	assert.Equal(t, 1, wf.Stages[1].Config.NumFunc, "d_1 must be pinned to 1 regardless of solver output")
}

func TestJolteon_StageFlagsReflectAllowParallel(t *testing.T) {
	wf := twoStageWorkflow(t, false)
	grid := testGrid()
	profile := perfmodel.Profile{
		"s0": constantProfile(grid),
		"s1": constantProfile(grid),
	}
	j := NewJolteon(wf)
	require.NoError(t, j.Train(profile, grid))

	flags := j.stageFlags()
	assert.True(t, flags[0].AllowParallel)
	assert.False(t, flags[1].AllowParallel)
}

func TestJolteon_BoxBoundsZeroParallelismForPinnedStage(t *testing.T) {
	wf := twoStageWorkflow(t, false)
	grid := testGrid()
	profile := perfmodel.Profile{
		"s0": constantProfile(grid),
		"s1": constantProfile(grid),
	}
	j := NewJolteon(wf)
	require.NoError(t, j.Train(profile, grid))

	bounds := j.boxBounds()
	assert.Equal(t, [2]float64{0, 0}, bounds[2*1], "non-parallel stage's d box must collapse to 0")
}

func TestJolteon_SetBoundValidatesInputs(t *testing.T) {
	wf := twoStageWorkflow(t, true)
	j := NewJolteon(wf)

	assert.Error(t, j.SetBound(emit.BoundLatency, -1, 0.9, 0.9))
	assert.Error(t, j.SetBound(emit.BoundLatency, 10, 1.5, 0.9))
	assert.Error(t, j.SetBound(emit.BoundLatency, 10, 0.9, 0))
	assert.NoError(t, j.SetBound(emit.BoundLatency, 10, 0.9, 0.9))
}

func TestCaerus_SplitsProportionally(t *testing.T) {
	wf := twoStageWorkflow(t, true)
	c := NewCaerus(wf)
	ratios := c.CompRatio([]float64{1, 3})
	require.NoError(t, c.SetConfig(40))

	assert.InDelta(t, 0.25, ratios[0], 1e-9)
	assert.InDelta(t, 0.75, ratios[1], 1e-9)
	assert.Equal(t, 10, wf.Stages[0].Config.NumFunc)
	assert.Equal(t, 30, wf.Stages[1].Config.NumFunc)
}

func TestDitto_WeightsByComputeCoefficient(t *testing.T) {
	wf := twoStageWorkflow(t, true)
	wf.Stages[0].PerfModel.CX = 1.0
	wf.Stages[1].PerfModel.CX = 3.0

	d := NewDitto(wf)
	d.CompRatio(nil)
	require.NoError(t, d.SetConfig(40))
	assert.Less(t, wf.Stages[0].Config.NumFunc, wf.Stages[1].Config.NumFunc)
}
