package workflow

import (
	"encoding/json"
	"fmt"
)

// boolString accepts the "true"/"false"/"True"/"False" string forms
// the workflow config file uses for allow_parallel (spec.md §6).
type boolString bool

func (b *boolString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("allow_parallel must be a string: %w", err)
	}
	switch s {
	case "true", "True":
		*b = true
	case "false", "False":
		*b = false
	default:
		return fmt.Errorf("allow_parallel: invalid value %q", s)
	}
	return nil
}

// stageConfig is the JSON shape of one numbered stage entry.
type stageConfig struct {
	StageName     string            `json:"stage_name"`
	Parents       []int             `json:"parents"`
	Children      []int             `json:"children"`
	AllowParallel *boolString       `json:"allow_parallel,omitempty"`
	InputFiles    []string          `json:"input_files,omitempty"`
	OutputFiles   []string          `json:"output_files,omitempty"`
	ReadPattern   string            `json:"read_pattern,omitempty"`
	ExtraArgs     map[string]string `json:"extra_args,omitempty"`
}

// fileConfig is the top-level JSON shape of a workflow config file.
type fileConfig struct {
	NumStages     int                    `json:"num_stages"`
	WorkflowName  string                 `json:"workflow_name"`
	CriticalPath  []int                  `json:"critical_path,omitempty"`
	SecondaryPath []int                  `json:"secondary_path,omitempty"`
	Stages        map[string]stageConfig `json:"-"`
}

// UnmarshalJSON pulls the per-index "0".."N-1" stage entries out of the
// flat top-level object, since they share a namespace with num_stages
// and workflow_name.
func (f *fileConfig) UnmarshalJSON(data []byte) error {
	type alias fileConfig
	aux := struct {
		*alias
	}{alias: (*alias)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Stages = make(map[string]stageConfig, f.NumStages)
	for i := 0; i < f.NumStages; i++ {
		key := fmt.Sprintf("%d", i)
		msg, ok := raw[key]
		if !ok {
			return fmt.Errorf("workflow config: missing stage entry %q", key)
		}
		var sc stageConfig
		if err := json.Unmarshal(msg, &sc); err != nil {
			return fmt.Errorf("workflow config: stage %q: %w", key, err)
		}
		f.Stages[key] = sc
	}
	return nil
}
