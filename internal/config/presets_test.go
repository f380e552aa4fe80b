package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults_ParsesBundledPresets(t *testing.T) {
	d, err := LoadDefaults("presets")
	require.NoError(t, err)
	assert.Equal(t, "1", d.Version)
	assert.Contains(t, d.Workloads, "ml")
	assert.Contains(t, d.Workloads, "tpcds")
	assert.Contains(t, d.Workloads, "video")
}

func TestResolve_UnknownWorkload(t *testing.T) {
	_, _, err := Resolve("presets", "nonexistent")
	assert.Error(t, err)
}

func TestResolve_ML(t *testing.T) {
	path, grid, err := Resolve("presets", "ml")
	require.NoError(t, err)
	assert.Equal(t, "presets/ml.json", path)
	require.NotEmpty(t, grid)
	assert.Equal(t, 512, grid[0].MemoryMB)
}
