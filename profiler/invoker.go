package profiler

import (
	"context"
	"fmt"

	"github.com/sangwoongk/jolteon-go/workflow"
)

// Invocation carries the three profiled phase durations (seconds) a
// single stage invocation reports back, matching the step columns of
// spec.md §4.2's profile arrays. Cold-start is deliberately absent
// here: spec.md §4.3 derives it at the sweep level as wall_time minus
// the summed phase times, not as something the invoker reports.
type Invocation struct {
	Read    float64
	Compute float64
	Write   float64
}

// Invoker executes one stage invocation against a given configuration
// and reports back timing plus the raw cloud log text (spec.md §6:
// "invoke(stage, payload) → (json_body, log_text)"), or reconfigures a
// deployed function ahead of the next invocation (spec.md §4.2
// "Profiling driver").
type Invoker interface {
	Invoke(ctx context.Context, stage *workflow.Stage) (Invocation, string, error)
	UpdateConfig(ctx context.Context, stage *workflow.Stage, cfg workflow.Config) error
}

// ErrInvocation wraps a failed stage invocation.
var ErrInvocation = fmt.Errorf("profiler: invocation failed")

// ErrProfileUpdate wraps a failed function reconfiguration.
var ErrProfileUpdate = fmt.Errorf("profiler: config update failed")
