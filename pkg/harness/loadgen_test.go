package harness

import (
	"testing"
	"time"

	"github.com/dbpulse/dbpulse/pkg/workqueue"
	"github.com/stretchr/testify/require"
)

func TestPatternRates(t *testing.T) {
	testCases := []struct {
		name     string
		pattern  Pattern
		elapsed  time.Duration
		expected float64
	}{
		{"constant is time-independent", ConstantPattern(100), 42 * time.Second, 100},
		{"burst uses its fixed rate", BurstPattern(250, 10*time.Second), 5 * time.Second, 250},
		{"ramp at start", RampPattern(10, 200, 30*time.Second), 0, 10},
		{"ramp at midpoint", RampPattern(10, 200, 30*time.Second), 15 * time.Second, 105},
		{"ramp at end", RampPattern(10, 200, 30*time.Second), 30 * time.Second, 200},
		{"ramp clamps past its duration", RampPattern(10, 200, 30*time.Second), 60 * time.Second, 200},
		{"sine at phase zero", SinePattern(100, 50, 20*time.Second), 0, 100},
		{"sine at peak", SinePattern(100, 50, 20*time.Second), 5 * time.Second, 150},
		{"sine floors at 1 rps", SinePattern(2, 100, 20*time.Second), 15 * time.Second, 1},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.expected, tc.pattern.rate(tc.elapsed), 0.001)
		})
	}
}

func TestPatternValidation(t *testing.T) {
	require.NoError(t, ConstantPattern(100).Validate())
	require.NoError(t, BurstPattern(100, time.Second).Validate())
	require.NoError(t, RampPattern(10, 200, time.Second).Validate())
	require.NoError(t, SinePattern(100, 50, time.Second).Validate())

	require.Error(t, ConstantPattern(0).Validate())
	require.Error(t, BurstPattern(100, 0).Validate())
	require.Error(t, RampPattern(0, 200, time.Second).Validate())
	require.Error(t, SinePattern(100, 50, 0).Validate())
	require.Error(t, Pattern{Kind: "sawtooth"}.Validate())
}

func TestConstantGenerationCountAndPacing(t *testing.T) {
	const total = 100
	queue := workqueue.New[WorkItem](total)
	defer queue.Close()

	gen := NewLoadGenerator(ConstantPattern(1000), total, queue)
	took := gen.Generate(SequentialRequestFactory("req"))

	// 100 requests at 1000 rps should take roughly 100ms; sleeps are
	// best-effort so only assert approximate bounds
	require.Equal(t, total, queue.Size())
	require.GreaterOrEqual(t, took, 90*time.Millisecond)
	require.Less(t, took, 5*time.Second)

	item, err := queue.Receive()
	require.NoError(t, err)
	require.Equal(t, "req-0", item.Request.ID)
}

func TestBurstGenerationStopsOnDuration(t *testing.T) {
	const total = 1000000
	queue := workqueue.New[WorkItem](total)
	defer queue.Close()

	gen := NewLoadGenerator(BurstPattern(10000, 100*time.Millisecond), total, queue)
	took := gen.Generate(SequentialRequestFactory("req"))

	require.GreaterOrEqual(t, took, 100*time.Millisecond)
	require.Less(t, queue.Size(), total)
}

func TestRampGenerationStopsOnDuration(t *testing.T) {
	const total = 1000000
	queue := workqueue.New[WorkItem](1000)
	defer queue.Close()

	gen := NewLoadGenerator(RampPattern(50, 100, 100*time.Millisecond), total, queue)
	took := gen.Generate(SequentialRequestFactory("req"))

	require.GreaterOrEqual(t, took, 100*time.Millisecond)
	require.Less(t, queue.Size(), 1000)
}

func TestGenerationStopsWhenQueueCloses(t *testing.T) {
	queue := workqueue.New[WorkItem](10)
	queue.Close()

	gen := NewLoadGenerator(ConstantPattern(1000), 100, queue)
	took := gen.Generate(SequentialRequestFactory("req"))

	require.Equal(t, 0, queue.Size())
	require.Less(t, took, time.Second)
}

func TestRequestFactories(t *testing.T) {
	seq := SequentialRequestFactory("load")
	require.Equal(t, "load-0", seq(0).ID)
	require.Equal(t, "load-7", seq(7).ID)

	uuids := UUIDRequestFactory()
	a, b := uuids(0), uuids(0)
	require.NotEmpty(t, a.ID)
	require.NotEqual(t, a.ID, b.ID)
}
