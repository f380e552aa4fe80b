package profiler

import (
	"context"
	"sync"

	"github.com/sangwoongk/jolteon-go/workflow"
)

// StaticInvoker is a deterministic test double: it returns whatever
// Invocation is queued for a stage, in order, without making any
// network calls. Safe for concurrent use by the sweep dispatcher.
type StaticInvoker struct {
	mu      sync.Mutex
	queued  map[string][]Invocation
	logs    map[string][]string
	configs map[string][]workflow.Config
}

func NewStaticInvoker() *StaticInvoker {
	return &StaticInvoker{
		queued:  make(map[string][]Invocation),
		logs:    make(map[string][]string),
		configs: make(map[string][]workflow.Config),
	}
}

// Enqueue appends an Invocation to be returned the next time stage is
// invoked, with no accompanying log text.
func (s *StaticInvoker) Enqueue(stageName string, inv Invocation) {
	s.EnqueueWithLog(stageName, inv, "")
}

// EnqueueWithLog is Enqueue plus the cloud log text Invoke should
// return alongside it, for tests that exercise billing extraction.
func (s *StaticInvoker) EnqueueWithLog(stageName string, inv Invocation, log string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queued[stageName] = append(s.queued[stageName], inv)
	s.logs[stageName] = append(s.logs[stageName], log)
}

func (s *StaticInvoker) Invoke(ctx context.Context, stage *workflow.Stage) (Invocation, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.queued[stage.Name]
	if len(q) == 0 {
		return Invocation{}, "", nil
	}
	inv := q[0]
	s.queued[stage.Name] = q[1:]

	var log string
	if logQ := s.logs[stage.Name]; len(logQ) > 0 {
		log = logQ[0]
		s.logs[stage.Name] = logQ[1:]
	}
	return inv, log, nil
}

func (s *StaticInvoker) UpdateConfig(ctx context.Context, stage *workflow.Stage, cfg workflow.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[stage.Name] = append(s.configs[stage.Name], cfg)
	return nil
}

// ConfigsSeen returns every config UpdateConfig was called with for a
// stage, in call order — used by tests to assert the sweep visited
// the whole grid.
func (s *StaticInvoker) ConfigsSeen(stageName string) []workflow.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]workflow.Config(nil), s.configs[stageName]...)
}
