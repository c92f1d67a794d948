package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMetric struct {
	name  string
	value any
	tags  map[string]string
}

// recordingSink captures emitted metrics for assertions.
type recordingSink struct {
	counts  []recordedMetric
	gauges  []recordedMetric
	timings []recordedMetric
}

func (s *recordingSink) Count(name string, value int64, tags map[string]string) {
	s.counts = append(s.counts, recordedMetric{name: name, value: value, tags: tags})
}

func (s *recordingSink) Gauge(name string, value float64, tags map[string]string) {
	s.gauges = append(s.gauges, recordedMetric{name: name, value: value, tags: tags})
}

func (s *recordingSink) Timing(name string, value time.Duration, tags map[string]string) {
	s.timings = append(s.timings, recordedMetric{name: name, value: value, tags: tags})
}

func TestEmitJobLifecycle(t *testing.T) {
	sink := &recordingSink{}
	EmitJobLifecycle(sink, JobMetric{
		JobType:    "process_order",
		Transition: "complete",
		Result:     ResultSuccess,
		Duration:   250 * time.Millisecond,
	})

	require.Len(t, sink.counts, 1)
	assert.Equal(t, "job.transition", sink.counts[0].name)
	assert.Equal(t, map[string]string{
		"job_type":   "process_order",
		"transition": "complete",
		"result":     ResultSuccess,
	}, sink.counts[0].tags)

	require.Len(t, sink.timings, 1)
	assert.Equal(t, "job.duration", sink.timings[0].name)
}

func TestEmitJobLifecycleErrorTagging(t *testing.T) {
	sink := &recordingSink{}
	EmitJobLifecycle(sink, JobMetric{
		JobType:    "process_order",
		Transition: "fail",
		Result:     ResultError,
		Err:        errors.New("boom"),
	})

	require.Len(t, sink.counts, 1)
	assert.Equal(t, "errors_errorstring", sink.counts[0].tags["error_class"])
	assert.Empty(t, sink.timings, "no timing without a duration")
}

func TestEmitJobLifecycleNilSink(t *testing.T) {
	// Must not panic.
	EmitJobLifecycle(nil, JobMetric{JobType: "process_order"})
}

func TestEmitStageCall(t *testing.T) {
	sink := &recordingSink{}
	EmitStageCall(sink, StageMetric{
		Stage:    "editor",
		Result:   ResultSuccess,
		Duration: time.Second,
	})

	require.Len(t, sink.counts, 1)
	assert.Equal(t, "stage.call", sink.counts[0].name)
	assert.Equal(t, "editor", sink.counts[0].tags["stage"])
	require.Len(t, sink.timings, 1)
	assert.Equal(t, "stage.duration", sink.timings[0].name)
}

func TestEmitRunCost(t *testing.T) {
	sink := &recordingSink{}
	EmitRunCost(sink, "pacing_content_generation", 0.42)

	require.Len(t, sink.gauges, 1)
	assert.Equal(t, "run.cost", sink.gauges[0].name)
	assert.InDelta(t, 0.42, sink.gauges[0].value.(float64), 1e-9)

	EmitRunCost(sink, "pacing_content_generation", 0)
	assert.Len(t, sink.gauges, 1, "zero cost is not emitted")
}

func TestCloneTags(t *testing.T) {
	assert.Nil(t, CloneTags(nil))

	src := map[string]string{"a": "1"}
	clone := CloneTags(src)
	clone["a"] = "2"
	assert.Equal(t, "1", src["a"])
}
