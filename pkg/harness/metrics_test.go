package harness_test

import (
	"sync"
	"testing"

	"github.com/dbpulse/dbpulse/pkg/harness"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	c := harness.NewMetricsCollector()
	c.RecordSuccess()
	c.RecordSuccess()
	c.RecordFailure()

	m := c.Snapshot()
	require.Equal(t, uint64(3), m.TotalProcessed)
	require.Equal(t, uint64(2), m.TotalSucceeded)
	require.Equal(t, uint64(1), m.TotalFailed)
}

func TestMetricsConsistencyUnderConcurrency(t *testing.T) {
	const writers = 8
	const perWriter = 1000

	c := harness.NewMetricsCollector()
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				if j%2 == 0 {
					c.RecordSuccess()
				} else {
					c.RecordFailure()
				}
				// every observation must be internally consistent
				m := c.Snapshot()
				if m.TotalProcessed != m.TotalSucceeded+m.TotalFailed {
					t.Errorf("inconsistent snapshot: %+v", m)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	m := c.Snapshot()
	require.Equal(t, uint64(writers*perWriter), m.TotalProcessed)
	require.Equal(t, m.TotalProcessed, m.TotalSucceeded+m.TotalFailed)
}
