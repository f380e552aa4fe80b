package workflow

import (
	"encoding/json"
	"fmt"
	"os"
)

// Workflow is an ordered sequence of stages plus derived sources,
// sinks, and the optional critical/secondary paths used by the
// scheduler's objective and constraints.
type Workflow struct {
	Name  string
	Stages []*Stage

	Sources []int
	Sinks   []int

	CriticalPath  []int
	SecondaryPath []int
}

// Load parses a workflow config file (spec.md §6) into a Workflow,
// validates parent/child symmetry, and checks the DAG invariant via
// Kahn's algorithm. Returns ErrAsymmetricEdge / ErrNotDAG on failure.
func Load(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("workflow: read config: %w", err)
	}
	return Parse(data)
}

// Parse builds a Workflow from raw workflow-config JSON bytes.
func Parse(data []byte) (*Workflow, error) {
	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("workflow: parse config: %w", err)
	}

	wf := &Workflow{Name: fc.WorkflowName}
	wf.Stages = make([]*Stage, fc.NumStages)
	for i := 0; i < fc.NumStages; i++ {
		sc := fc.Stages[fmt.Sprintf("%d", i)]
		st := NewStage(i, sc.StageName)
		st.InputFiles = sc.InputFiles
		st.OutputFiles = sc.OutputFiles
		st.ReadPattern = sc.ReadPattern
		st.ExtraArgs = sc.ExtraArgs
		if sc.AllowParallel != nil {
			st.AllowParallel = bool(*sc.AllowParallel)
			st.PerfModel.AllowParallel = st.AllowParallel
		}
		wf.Stages[i] = st
	}

	for i := 0; i < fc.NumStages; i++ {
		sc := fc.Stages[fmt.Sprintf("%d", i)]
		wf.Stages[i].Parents = append([]int(nil), sc.Parents...)
		wf.Stages[i].Children = append([]int(nil), sc.Children...)
	}

	if err := wf.checkSymmetry(); err != nil {
		return nil, err
	}

	for _, st := range wf.Stages {
		st.PerfModel.HasParent = st.HasParent()
		if len(st.Parents) == 0 {
			wf.Sources = append(wf.Sources, st.ID)
		}
		if len(st.Children) == 0 {
			wf.Sinks = append(wf.Sinks, st.ID)
		}
	}

	for _, id := range wf.Sources {
		wf.Stages[id].advance(StatusReady)
	}

	if !wf.checkDAG() {
		return nil, ErrNotDAG
	}

	if len(fc.CriticalPath) > 0 {
		wf.CriticalPath = fc.CriticalPath
	}
	if len(fc.SecondaryPath) > 0 {
		wf.SecondaryPath = fc.SecondaryPath
	}

	return wf, nil
}

func (wf *Workflow) checkSymmetry() error {
	for _, st := range wf.Stages {
		for _, p := range st.Parents {
			if p < 0 || p >= len(wf.Stages) {
				return fmt.Errorf("%w: stage %d has out-of-range parent %d", ErrAsymmetricEdge, st.ID, p)
			}
			if !containsInt(wf.Stages[p].Children, st.ID) {
				return fmt.Errorf("%w: stage %d parent %d does not list it as a child", ErrAsymmetricEdge, st.ID, p)
			}
		}
		for _, c := range st.Children {
			if c < 0 || c >= len(wf.Stages) {
				return fmt.Errorf("%w: stage %d has out-of-range child %d", ErrAsymmetricEdge, st.ID, c)
			}
			if !containsInt(wf.Stages[c].Parents, st.ID) {
				return fmt.Errorf("%w: stage %d child %d does not list it as a parent", ErrAsymmetricEdge, st.ID, c)
			}
		}
	}
	return nil
}

// checkDAG runs Kahn's algorithm from the source set; the graph is a
// DAG iff every stage is reachable by the topological drain.
func (wf *Workflow) checkDAG() bool {
	inDegree := make([]int, len(wf.Stages))
	for i, st := range wf.Stages {
		inDegree[i] = len(st.Parents)
	}

	queue := append([]int(nil), wf.Sources...)
	count := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		count++
		for _, c := range wf.Stages[id].Children {
			inDegree[c]--
			if inDegree[c] == 0 {
				queue = append(queue, c)
			}
		}
	}
	return count >= len(wf.Stages)
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// FindPaths enumerates every source-to-sink walk via BFS, extending
// paths by non-cycle children until the tip is a sink.
func (wf *Workflow) FindPaths() [][]int {
	isSink := make(map[int]bool, len(wf.Sinks))
	for _, s := range wf.Sinks {
		isSink[s] = true
	}

	var paths [][]int
	queue := make([][]int, 0, len(wf.Sources))
	for _, s := range wf.Sources {
		queue = append(queue, []int{s})
	}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		tip := path[len(path)-1]
		if isSink[tip] {
			paths = append(paths, path)
			continue
		}
		for _, c := range wf.Stages[tip].Children {
			if containsInt(path, c) {
				continue
			}
			newPath := append(append([]int(nil), path...), c)
			queue = append(queue, newPath)
		}
	}
	return paths
}

// StageByID returns the stage with the given ID.
func (wf *Workflow) StageByID(id int) *Stage {
	return wf.Stages[id]
}

// UpdateConfigs writes solver output back into each stage's config.
func (wf *Workflow) UpdateConfigs(memoryMB, numFunc []int) error {
	if len(memoryMB) != len(wf.Stages) || len(numFunc) != len(wf.Stages) {
		return fmt.Errorf("workflow: config slices must have length %d", len(wf.Stages))
	}
	for i, st := range wf.Stages {
		st.Config.MemoryMB = memoryMB[i]
		st.Config.NumFunc = numFunc[i]
	}
	return nil
}

// ResetStatuses moves every stage back to WAITING except sources,
// which go to READY, ahead of a fresh profiling epoch.
func (wf *Workflow) ResetStatuses() {
	for _, st := range wf.Stages {
		st.advance(StatusWaiting)
	}
	for _, id := range wf.Sources {
		wf.Stages[id].advance(StatusReady)
	}
}

// RefreshReady promotes WAITING stages whose parents are all FINISHED
// to READY. Called by the dispatcher after every scan.
func (wf *Workflow) RefreshReady() {
	for _, st := range wf.Stages {
		if st.Status != StatusWaiting {
			continue
		}
		ready := true
		for _, p := range st.Parents {
			if wf.Stages[p].Status != StatusFinished {
				ready = false
				break
			}
		}
		if ready {
			st.advance(StatusReady)
		}
	}
}

// AllFinished reports whether every stage has reached FINISHED.
func (wf *Workflow) AllFinished() bool {
	for _, st := range wf.Stages {
		if st.Status != StatusFinished {
			return false
		}
	}
	return true
}

// MarkRunning transitions a READY stage to RUNNING; it is the only
// caller-visible way to start a dispatch (profiler package).
func (wf *Workflow) MarkRunning(id int) {
	wf.Stages[id].advance(StatusRunning)
}

// MarkFinished transitions a RUNNING stage to FINISHED once its
// dispatch worker has exited.
func (wf *Workflow) MarkFinished(id int) {
	wf.Stages[id].advance(StatusFinished)
}

// ParentDOf returns the parallelism degree of a stage's last
// allow-parallel parent, used as the f_io2 "p" input for stages whose
// read time depends on parent fan-out. Returns 0 if there is none.
func (wf *Workflow) ParentDOf(id int) int {
	st := wf.Stages[id]
	for i := len(st.Parents) - 1; i >= 0; i-- {
		p := wf.Stages[st.Parents[i]]
		if p.AllowParallel {
			return p.Config.NumFunc
		}
	}
	return 0
}

// MaxAllowParallelism returns a default total-parallelism budget for
// the baseline schedulers (Caerus/Orion/Ditto): 16 per allow-parallel
// stage, a round number large enough to let CompRatio's split produce
// more than one function per stage on a typical DAG.
func (wf *Workflow) MaxAllowParallelism() int {
	n := 0
	for _, st := range wf.Stages {
		if st.AllowParallel {
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return 16 * n
}
