package scheduler

import (
	"fmt"
	"math"

	"github.com/sangwoongk/jolteon-go/emit"
	"github.com/sangwoongk/jolteon-go/pcp"
	"github.com/sangwoongk/jolteon-go/perfmodel"
	"github.com/sangwoongk/jolteon-go/workflow"
)

const vcpuFloorThreshold = 1024.0 / 1792.0

// Jolteon is the chance-constrained scheduler of spec.md §4.6: train
// every stage's performance model, bound either latency or cost at a
// service level, solve the resulting scenario program, and round the
// result back into the workflow's (memory, num_func) configuration.
type Jolteon struct {
	wf            *workflow.Workflow
	MaxSampleSize int
	MaxParallelism int
	MaxVCPU       float64

	boundType    emit.BoundType
	bound        float64
	risk         float64
	confidenceError float64
}

func NewJolteon(wf *workflow.Workflow) *Jolteon {
	return &Jolteon{
		wf:             wf,
		MaxSampleSize:  10000,
		MaxParallelism: 64,
		MaxVCPU:        10,
	}
}

// Train fits every stage's performance model from a profile record
// (spec.md §4.6 step 1).
func (j *Jolteon) Train(profile perfmodel.Profile, grid []perfmodel.ConfigPair) error {
	for _, st := range j.wf.Stages {
		sp, ok := profile[st.Name]
		if !ok {
			return fmt.Errorf("scheduler: profile missing stage %q", st.Name)
		}
		if err := st.PerfModel.Train(sp, grid); err != nil {
			return err
		}
	}
	return nil
}

// SetBound records the target bound and derives risk/confidenceError
// from service_level/confidence (spec.md §4.6 step 2).
func (j *Jolteon) SetBound(boundType emit.BoundType, bound, serviceLevel, confidence float64) error {
	if bound <= 0 {
		return fmt.Errorf("scheduler: bound must be positive")
	}
	if serviceLevel <= 0 || serviceLevel >= 1 {
		return fmt.Errorf("scheduler: service level must be in (0,1)")
	}
	if confidence <= 0 || confidence >= 1 {
		return fmt.Errorf("scheduler: confidence must be in (0,1)")
	}
	j.boundType = boundType
	j.bound = bound
	j.risk = 1 - serviceLevel
	j.confidenceError = 1 - confidence
	return nil
}

func (j *Jolteon) stageFlags() []emit.StageFlags {
	flags := make([]emit.StageFlags, len(j.wf.Stages))
	for i, st := range j.wf.Stages {
		parentID := -1
		if st.PerfModel.ParentRelevant {
			parentID = j.parentIDOf(st)
		}
		flags[i] = emit.StageFlags{
			StageID:       i,
			AllowParallel: st.AllowParallel,
			ComputeUsesKD: st.PerfModel.CanIntraParallel[1],
			ParentRelevant: st.PerfModel.ParentRelevant,
			ParentID:      parentID,
		}
	}
	return flags
}

func (j *Jolteon) parentIDOf(st *workflow.Stage) int {
	for i := len(st.Parents) - 1; i >= 0; i-- {
		p := j.wf.Stages[st.Parents[i]]
		if p.AllowParallel {
			return p.ID
		}
	}
	return -1
}

func (j *Jolteon) thetaHat() []float64 {
	theta := make([]float64, 0, 6*len(j.wf.Stages))
	for _, st := range j.wf.Stages {
		theta = append(theta, st.PerfModel.Params(st.PerfModel.LatencyColdPercentile)...)
	}
	return theta
}

func (j *Jolteon) scenarios(seed uint64) [][]float64 {
	perStage := make([][][]float64, len(j.wf.Stages))
	for i, st := range j.wf.Stages {
		perStage[i] = st.PerfModel.SampleOffline(j.MaxSampleSize, seed+uint64(i))
	}

	rows := make([][]float64, j.MaxSampleSize)
	for s := 0; s < j.MaxSampleSize; s++ {
		row := make([]float64, 0, 6*len(j.wf.Stages))
		for i := range j.wf.Stages {
			row = append(row, perStage[i][s]...)
		}
		rows[s] = row
	}
	return rows
}

func (j *Jolteon) boxBounds() [][2]float64 {
	bounds := make([][2]float64, 2*len(j.wf.Stages))
	for i, st := range j.wf.Stages {
		dMax := float64(j.MaxParallelism - 1)
		if !st.AllowParallel {
			dMax = 0
		}
		bounds[2*i] = [2]float64{0, dMax}
		bounds[2*i+1] = [2]float64{vcpuFloorThreshold, j.MaxVCPU}
	}
	return bounds
}

// Solve runs the full spec.md §4.6 composition: emit the workflow
// functions, derive the required scenario count from the PCP
// lower bound, solve, and round the result into each stage's
// (memory_mb, num_func). Returns ErrBoundViolation if the solver could
// not find a feasible point.
func (j *Jolteon) Solve(seed uint64) (pcp.Result, error) {
	flags := j.stageFlags()
	objective, constraint, secondaryConstraint, err := emit.BuildWorkflowFuncs(flags, j.wf.CriticalPath, j.wf.SecondaryPath, j.boundType)
	if err != nil {
		return pcp.Result{}, fmt.Errorf("scheduler: %w", err)
	}

	numVars := 2 * len(j.wf.Stages)
	numSamples := pcp.SampleSize(numVars, j.risk, j.confidenceError)
	if numSamples > j.MaxSampleSize {
		numSamples = j.MaxSampleSize
	}

	allScenarios := j.scenarios(seed)
	scenarios := allScenarios[:numSamples]

	res, err := pcp.Solve(numVars, objective, constraint, secondaryConstraint, j.bound, j.thetaHat(), scenarios, j.boxBounds(), nil)
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrBoundViolation, err)
	}

	j.applyResult(res)
	return res, nil
}

// applyResult rounds the solver's decision vector per spec.md §4.6
// step 6 and writes it back into the workflow's stage configs.
func (j *Jolteon) applyResult(res pcp.Result) {
	memoryMB := make([]int, len(j.wf.Stages))
	numFunc := make([]int, len(j.wf.Stages))

	for i, st := range j.wf.Stages {
		d := int(math.Floor(res.X[2*i])) + 1
		if !st.AllowParallel {
			d = 1
		}

		k := res.X[2*i+1]
		var vcpu float64
		if k < 1 {
			if k > vcpuFloorThreshold {
				vcpu = 1
			} else {
				vcpu = vcpuFloorThreshold
			}
		} else {
			vcpu = math.Floor(k)
		}

		numFunc[i] = d
		memoryMB[i] = int(vcpu * 1792)
	}

	j.wf.UpdateConfigs(memoryMB, numFunc)
}
