// Package workflow owns the stage graph: stage identity, parent/child
// adjacency, the DAG invariant, path enumeration, and the status state
// machine driven by the profiler/executor.
package workflow

import "github.com/sangwoongk/jolteon-go/perfmodel"

// Status is the lifecycle state of a stage, advanced only by the
// execution loop (Workflow.RefreshReady/MarkRunning/MarkFinished, called
// from the profiler package).
type Status int

const (
	StatusWaiting Status = iota
	StatusReady
	StatusRunning
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "WAITING"
	case StatusReady:
		return "READY"
	case StatusRunning:
		return "RUNNING"
	case StatusFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// Config is a stage's current resource configuration: memory in
// megabytes and the number of parallel function invocations.
type Config struct {
	MemoryMB int
	NumFunc  int
}

// Stage is one node of the workflow DAG. Parents and children are
// represented as integer indices into Workflow.Stages, never through
// owning back-references (see SPEC_FULL.md / Design Notes).
type Stage struct {
	ID       int
	Name     string
	Parents  []int
	Children []int

	AllowParallel bool
	Config        Config
	Status        Status

	InputFiles  []string
	OutputFiles []string
	ReadPattern string
	ExtraArgs   map[string]string

	PerfModel *perfmodel.StagePerfModel
}

// NewStage constructs a stage with the default allow-parallel
// configuration (true) and WAITING status.
func NewStage(id int, name string) *Stage {
	return &Stage{
		ID:            id,
		Name:          name,
		AllowParallel: true,
		Status:        StatusWaiting,
		PerfModel:     perfmodel.NewStagePerfModel(id, name),
	}
}

// HasParent reports whether the stage has at least one parent.
func (s *Stage) HasParent() bool {
	return len(s.Parents) > 0
}

// advance is the only mutator of Status, restricted to callers inside
// this package and profiler (via the exported Workflow methods in graph.go).
func (s *Stage) advance(next Status) {
	s.Status = next
}
