package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallStats_SnapshotPercentiles(t *testing.T) {
	s := New(time.Hour)
	s.Record(100 * time.Millisecond)
	s.Record(200 * time.Millisecond)
	s.Record(300 * time.Millisecond)
	s.Record(400 * time.Millisecond)
	s.Record(500 * time.Millisecond)

	snap := s.Snapshot()
	require.Equal(t, 5, snap.Count)
	assert.Equal(t, int64(100), snap.MinMs)
	assert.Equal(t, int64(500), snap.MaxMs)
	assert.InDelta(t, 300, snap.AvgMs, 1e-9)
	assert.InDelta(t, 300, snap.P50Ms, 1e-9)
	assert.InDelta(t, 480, snap.P95Ms, 1e-9)
	assert.InDelta(t, 496, snap.P99Ms, 1e-9)
}

func TestCallStats_PrunesExpiredSamples(t *testing.T) {
	s := New(10 * time.Millisecond)
	s.Record(100 * time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	assert.Equal(t, 0, s.Snapshot().Count)

	s.Record(200 * time.Millisecond)
	snap := s.Snapshot()
	require.Equal(t, 1, snap.Count)
	assert.Equal(t, int64(200), snap.MinMs)
	assert.Equal(t, int64(200), snap.MaxMs)
}

func TestCallStats_ErrorsCountedSeparately(t *testing.T) {
	s := New(time.Hour)
	s.RecordError()
	s.RecordError()
	s.Record(50 * time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Count)
	assert.Equal(t, int64(2), snap.Errors)
}

func TestCallStats_NegativeDurationClamped(t *testing.T) {
	s := New(time.Hour)
	s.Record(-10 * time.Millisecond)

	snap := s.Snapshot()
	require.Equal(t, 1, snap.Count)
	assert.Equal(t, int64(0), snap.MinMs)
	assert.Equal(t, int64(0), snap.MaxMs)
}
