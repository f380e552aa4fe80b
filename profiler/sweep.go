package profiler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/sangwoongk/jolteon-go/internal/billing"
	"github.com/sangwoongk/jolteon-go/perfmodel"
	"github.com/sangwoongk/jolteon-go/workflow"
)

// BillingRecord is one invocation's log-extracted billing info
// located within a profiling sweep (spec.md §4.3 "log-extracted
// billed duration/memory"). Invocations whose Invoker returned no log
// text (e.g. StaticInvoker in tests that don't care about billing)
// contribute no record.
type BillingRecord struct {
	StageName string
	Epoch     int
	billing.Info
}

// Sweep drives one stage through every (memory, parallelism) pair in
// grid, numEpochs times, repsPerConfig repetitions per epoch, and
// assembles the resulting [epoch][config][avg,p95] arrays spec.md §4.2
// expects (reps within an epoch/config run concurrently, matching how
// a real deployment would fan invocations out). Cold start is derived
// per spec.md §4.3 as the batch's wall-clock time minus the summed
// average (respectively p95) phase times, the same wall-clock
// bookkeeping dispatchStage performs for the DAG-execution path.
func Sweep(ctx context.Context, invoker Invoker, stage *workflow.Stage, grid []perfmodel.ConfigPair, numEpochs, repsPerConfig int) (perfmodel.StageProfile, []BillingRecord, error) {
	if repsPerConfig < 1 {
		repsPerConfig = 1
	}

	sp := perfmodel.StageProfile{
		Cold:    make([][][2]float64, numEpochs),
		Read:    make([][][2]float64, numEpochs),
		Compute: make([][][2]float64, numEpochs),
		Write:   make([][][2]float64, numEpochs),
	}
	var bills []BillingRecord

	for e := 0; e < numEpochs; e++ {
		sp.Cold[e] = make([][2]float64, len(grid))
		sp.Read[e] = make([][2]float64, len(grid))
		sp.Compute[e] = make([][2]float64, len(grid))
		sp.Write[e] = make([][2]float64, len(grid))

		for ci, pair := range grid {
			cfg := workflow.Config{MemoryMB: pair.MemoryMB, NumFunc: pair.NumFunc}
			if err := invoker.UpdateConfig(ctx, stage, cfg); err != nil {
				return perfmodel.StageProfile{}, nil, fmt.Errorf("%w: stage %s epoch %d config %v", err, stage.Name, e, pair)
			}
			stage.Config = cfg

			start := time.Now()
			invs, logs, err := invokeConcurrently(ctx, invoker, stage, repsPerConfig)
			if err != nil {
				return perfmodel.StageProfile{}, nil, err
			}
			wallTime := time.Since(start).Seconds()

			readAvgP95 := avgP95(readFloats(invs))
			computeAvgP95 := avgP95(computeFloats(invs))
			writeAvgP95 := avgP95(writeFloats(invs))

			sp.Read[e][ci] = readAvgP95
			sp.Compute[e][ci] = computeAvgP95
			sp.Write[e][ci] = writeAvgP95
			sp.Cold[e][ci] = [2]float64{
				wallTime - (readAvgP95[0] + computeAvgP95[0] + writeAvgP95[0]),
				wallTime - (readAvgP95[1] + computeAvgP95[1] + writeAvgP95[1]),
			}

			for _, log := range logs {
				if log == "" {
					continue
				}
				info, err := billing.Extract(log)
				if err != nil {
					return perfmodel.StageProfile{}, nil, fmt.Errorf("%w: stage %s epoch %d: %v", ErrInvocation, stage.Name, e, err)
				}
				bills = append(bills, BillingRecord{StageName: stage.Name, Epoch: e, Info: info})
			}
		}
	}
	return sp, bills, nil
}

func invokeConcurrently(ctx context.Context, invoker Invoker, stage *workflow.Stage, reps int) ([]Invocation, []string, error) {
	var wg sync.WaitGroup
	results := make([]Invocation, reps)
	logs := make([]string, reps)
	errs := make([]error, reps)

	for i := 0; i < reps; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			inv, log, err := invoker.Invoke(ctx, stage)
			results[idx] = inv
			logs[idx] = log
			errs[idx] = err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, nil, fmt.Errorf("%w: stage %s: %v", ErrInvocation, stage.Name, err)
		}
	}
	return results, logs, nil
}

func readFloats(invs []Invocation) []float64    { return phaseFloats(invs, func(i Invocation) float64 { return i.Read }) }
func computeFloats(invs []Invocation) []float64 { return phaseFloats(invs, func(i Invocation) float64 { return i.Compute }) }
func writeFloats(invs []Invocation) []float64   { return phaseFloats(invs, func(i Invocation) float64 { return i.Write }) }

func phaseFloats(invs []Invocation, f func(Invocation) float64) []float64 {
	out := make([]float64, len(invs))
	for i, inv := range invs {
		out[i] = f(inv)
	}
	return out
}

func avgP95(samples []float64) [2]float64 {
	if len(samples) == 0 {
		return [2]float64{}
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	avg := sum / float64(len(samples))

	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	p95 := stat.Quantile(0.95, stat.LinInterp, sorted, nil)
	return [2]float64{avg, p95}
}

// SweepWorkflow runs Sweep over every stage of a workflow and
// assembles the combined profile record, plus every billing record
// extracted along the way (spec.md §4.3).
func SweepWorkflow(ctx context.Context, invoker Invoker, wf *workflow.Workflow, grid []perfmodel.ConfigPair, numEpochs, repsPerConfig int) (perfmodel.Profile, []BillingRecord, error) {
	profile := make(perfmodel.Profile, len(wf.Stages))
	var bills []BillingRecord
	for _, stage := range wf.Stages {
		sp, stageBills, err := Sweep(ctx, invoker, stage, grid, numEpochs, repsPerConfig)
		if err != nil {
			return nil, nil, err
		}
		profile[stage.Name] = sp
		bills = append(bills, stageBills...)
	}
	return profile, bills, nil
}
