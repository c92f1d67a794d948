// Package metrics emits job and pipeline lifecycle metrics.
package metrics

import (
	"time"

	obserrors "github.com/draftforge/pipeline-api/internal/observability/errors"
	"github.com/draftforge/pipeline-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// JobMetric captures details about a job lifecycle event for metric emission.
type JobMetric struct {
	JobType    string
	Transition string
	Result     string
	Duration   time.Duration
	Err        error
}

// EmitJobLifecycle emits standardised job lifecycle metrics.
func EmitJobLifecycle(sink statsd.Sink, in JobMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"job_type":   in.JobType,
		"transition": in.Transition,
		"result":     in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("job.transition", 1, tags)
	if in.Duration > 0 {
		sink.Timing("job.duration", in.Duration, CloneTags(tags))
	}
}

// StageMetric captures details about a single pipeline stage call.
type StageMetric struct {
	Stage    string
	JobType  string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitStageCall emits metrics for one pipeline stage round trip.
func EmitStageCall(sink statsd.Sink, in StageMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"stage":    in.Stage,
		"job_type": in.JobType,
		"result":   in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("stage.call", 1, tags)
	if in.Duration > 0 {
		sink.Timing("stage.duration", in.Duration, CloneTags(tags))
	}
}

// EmitRunCost records the metered cost of a finished run.
func EmitRunCost(sink statsd.Sink, jobType string, cost float64) {
	if sink == nil || cost <= 0 {
		return
	}
	sink.Gauge("run.cost", cost, map[string]string{"job_type": jobType})
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
