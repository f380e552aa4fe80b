package profiler

import (
	"context"
	"fmt"
	"time"

	"github.com/sangwoongk/jolteon-go/workflow"
)

// StageResult is a stage's wall-clock time plus the raw invocation
// results its dispatch worker collected, spec.md §4.3's return shape.
type StageResult struct {
	WallTime    time.Duration
	Invocations []Invocation
}

type workerDone struct {
	stageID int
	result  StageResult
	err     error
}

// Execute lazily runs the whole workflow to completion (spec.md §4.3):
// a single-threaded dispatcher sweeps for READY stages, dispatches
// each to its own worker goroutine, and advances RUNNING stages to
// FINISHED only once their worker has exited, observed through a
// non-blocking liveness check rather than a blocking join per worker.
func Execute(ctx context.Context, wf *workflow.Workflow, invoker Invoker, repsPerConfig int) (map[int]StageResult, error) {
	results := make(map[int]StageResult, len(wf.Stages))
	done := make(chan workerDone, len(wf.Stages))
	pending := 0

	for !wf.AllFinished() {
		wf.RefreshReady()

		for _, st := range wf.Stages {
			if st.Status != workflow.StatusReady {
				continue
			}
			wf.MarkRunning(st.ID)
			pending++
			go dispatchStage(ctx, invoker, st, repsPerConfig, done)
		}

		if pending == 0 {
			return nil, fmt.Errorf("profiler: dispatcher stalled, no stage is ready or running")
		}

		select {
		case d := <-done:
			pending--
			if d.err != nil {
				return nil, d.err
			}
			results[d.stageID] = d.result
			wf.MarkFinished(d.stageID)
		case <-time.After(time.Millisecond):
			// non-blocking liveness poll; loop back to re-sweep READY
		}
	}
	return results, nil
}

func dispatchStage(ctx context.Context, invoker Invoker, st *workflow.Stage, repsPerConfig int, done chan<- workerDone) {
	start := time.Now()
	invs, _, err := invokeConcurrently(ctx, invoker, st, repsPerConfig)
	if err != nil {
		done <- workerDone{stageID: st.ID, err: err}
		return
	}
	done <- workerDone{
		stageID: st.ID,
		result:  StageResult{WallTime: time.Since(start), Invocations: invs},
	}
}
