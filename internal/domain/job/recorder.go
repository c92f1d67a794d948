// Package job holds domain policies for job claiming, retry, and run tracing.
package job

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/draftforge/pipeline-api/internal/domain/model"
)

// Clock abstracts time.Now for deterministic tests.
type Clock func() time.Time

// StepRecorder accumulates the ordered step log for exactly one job
// execution. Each execution owns its recorder; nothing is shared across
// concurrent jobs. The log is persisted once, at finalization.
type StepRecorder struct {
	mu    sync.Mutex
	clock Clock
	start time.Time
	steps []model.RunStep
	cost  float64
}

// NewStepRecorder opens a recorder whose duration measures from now.
func NewStepRecorder(clock Clock) *StepRecorder {
	if clock == nil {
		clock = time.Now
	}
	return &StepRecorder{
		clock: clock,
		start: clock(),
	}
}

// Record appends a step entry. Data must be JSON-marshalable; a marshal
// failure records the step with no data rather than dropping it.
func (r *StepRecorder) Record(step string, data any) {
	var raw json.RawMessage
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			raw = b
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, model.RunStep{
		Step:      step,
		Data:      raw,
		Timestamp: r.clock(),
	})
}

// AddCost accumulates external-API cost attributed to this execution.
func (r *StepRecorder) AddCost(c float64) {
	if c <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cost += c
}

// Steps returns a copy of the recorded step log.
func (r *StepRecorder) Steps() []model.RunStep {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.RunStep, len(r.steps))
	copy(out, r.steps)
	return out
}

// Cost returns the accumulated cost, zero if unmeasured.
func (r *StepRecorder) Cost() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cost
}

// Elapsed returns wall-clock duration since the recorder was opened.
func (r *StepRecorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clock().Sub(r.start)
}
