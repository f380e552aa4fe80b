package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearConfig() []byte {
	return []byte(`{
		"num_stages": 4,
		"workflow_name": "linear",
		"critical_path": [0, 1, 2, 3],
		"0": {"stage_name": "s0", "parents": [], "children": [1], "allow_parallel": "true"},
		"1": {"stage_name": "s1", "parents": [0], "children": [2], "allow_parallel": "true"},
		"2": {"stage_name": "s2", "parents": [1], "children": [3], "allow_parallel": "true"},
		"3": {"stage_name": "s3", "parents": [2], "children": [], "allow_parallel": "true"}
	}`)
}

func TestParse_LinearDAG(t *testing.T) {
	wf, err := Parse(linearConfig())
	require.NoError(t, err)
	require.Len(t, wf.Stages, 4)
	assert.Equal(t, []int{0}, wf.Sources)
	assert.Equal(t, []int{3}, wf.Sinks)
	assert.Equal(t, []int{0, 1, 2, 3}, wf.CriticalPath)

	for i, st := range wf.Stages {
		assert.Equal(t, i, st.ID)
		assert.True(t, st.AllowParallel)
	}
	assert.Equal(t, StatusReady, wf.Stages[0].Status)
	assert.Equal(t, StatusWaiting, wf.Stages[1].Status)
}

func TestParse_AllowParallelFalse(t *testing.T) {
	cfg := []byte(`{
		"num_stages": 4,
		"workflow_name": "linear",
		"0": {"stage_name": "s0", "parents": [], "children": [1], "allow_parallel": "true"},
		"1": {"stage_name": "s1", "parents": [0], "children": [2], "allow_parallel": "true"},
		"2": {"stage_name": "s2", "parents": [1], "children": [3], "allow_parallel": "true"},
		"3": {"stage_name": "s3", "parents": [2], "children": [], "allow_parallel": "false"}
	}`)
	wf, err := Parse(cfg)
	require.NoError(t, err)
	assert.False(t, wf.Stages[3].AllowParallel)
	assert.False(t, wf.Stages[3].PerfModel.AllowParallel)
}

func TestParse_CycleRejected(t *testing.T) {
	cfg := []byte(`{
		"num_stages": 3,
		"workflow_name": "cyclic",
		"0": {"stage_name": "s0", "parents": [], "children": [1], "allow_parallel": "true"},
		"1": {"stage_name": "s1", "parents": [0, 2], "children": [2], "allow_parallel": "true"},
		"2": {"stage_name": "s2", "parents": [1], "children": [1], "allow_parallel": "true"}
	}`)
	_, err := Parse(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotDAG)
}

func TestParse_AsymmetricEdgeRejected(t *testing.T) {
	cfg := []byte(`{
		"num_stages": 2,
		"workflow_name": "asym",
		"0": {"stage_name": "s0", "parents": [], "children": [1], "allow_parallel": "true"},
		"1": {"stage_name": "s1", "parents": [], "children": [], "allow_parallel": "true"}
	}`)
	_, err := Parse(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAsymmetricEdge)
}

func TestFindPaths_Diamond(t *testing.T) {
	// 0 -> {1,2} -> 3
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

	paths := wf.FindPaths()
	require.Len(t, paths, 2)
	assert.ElementsMatch(t, [][]int{{0, 1, 3}, {0, 2, 3}}, paths)
}

func TestRefreshReadyAndFinish(t *testing.T) {
	wf, err := Parse(linearConfig())
	require.NoError(t, err)

	require.Equal(t, StatusReady, wf.Stages[0].Status)
	wf.MarkRunning(0)
	assert.Equal(t, StatusRunning, wf.Stages[0].Status)
	wf.MarkFinished(0)
	assert.Equal(t, StatusFinished, wf.Stages[0].Status)

	wf.RefreshReady()
	assert.Equal(t, StatusReady, wf.Stages[1].Status)
	assert.Equal(t, StatusWaiting, wf.Stages[2].Status)
	assert.False(t, wf.AllFinished())
}

func TestUpdateConfigs(t *testing.T) {
	wf, err := Parse(linearConfig())
	require.NoError(t, err)

	err = wf.UpdateConfigs([]int{512, 1024, 1792, 3584}, []int{1, 2, 4, 8})
	require.NoError(t, err)
	assert.Equal(t, 1792, wf.Stages[2].Config.MemoryMB)
	assert.Equal(t, 8, wf.Stages[3].Config.NumFunc)

	err = wf.UpdateConfigs([]int{1}, []int{1})
	assert.Error(t, err)
}
