// Package config ports the teacher's defaults.yaml lookup
// (cmd/default_config.go) to resolve a workload name (-w in spec.md
// §6) to a bundled workflow-config JSON path and a default
// configuration grid.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sangwoongk/jolteon-go/perfmodel"
)

// DefaultPresetsDir is where the bundled defaults.yaml and per-workload
// workflow-config JSON files live relative to the module root.
const DefaultPresetsDir = "internal/config/presets"

// GridEntry mirrors one (memory_mb, num_func) pair in defaults.yaml.
type GridEntry struct {
	MemoryMB int `yaml:"memory_mb"`
	NumFunc  int `yaml:"num_func"`
}

// WorkloadPreset is one entry of defaults.yaml's workloads map.
type WorkloadPreset struct {
	ConfigPath string      `yaml:"config_path"`
	Grid       []GridEntry `yaml:"grid"`
}

// Defaults is the full defaults.yaml structure. All top-level keys
// must be listed to satisfy strict KnownFields(true) parsing.
type Defaults struct {
	Version   string                    `yaml:"version"`
	Workloads map[string]WorkloadPreset `yaml:"workloads"`
}

// LoadDefaults strict-parses dir/defaults.yaml,
// rejecting unknown fields the way cmd/default_config.go does (typos
// in the preset file must surface as errors, not silently zero out).
func LoadDefaults(dir string) (Defaults, error) {
	path := filepath.Join(dir, "defaults.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return Defaults{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var d Defaults
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&d); err != nil {
		return Defaults{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return d, nil
}

// Resolve looks up a workload name in Defaults and returns the
// workflow-config path joined against dir (relative when dir is) and the default
// config grid as perfmodel.ConfigPair values.
func Resolve(dir, workload string) (configPath string, grid []perfmodel.ConfigPair, err error) {
	d, err := LoadDefaults(dir)
	if err != nil {
		return "", nil, err
	}

	preset, ok := d.Workloads[workload]
	if !ok {
		return "", nil, fmt.Errorf("config: unknown workload %q", workload)
	}

	grid = make([]perfmodel.ConfigPair, len(preset.Grid))
	for i, g := range preset.Grid {
		grid[i] = perfmodel.ConfigPair{MemoryMB: g.MemoryMB, NumFunc: g.NumFunc}
	}
	return filepath.Join(dir, preset.ConfigPath), grid, nil
}
