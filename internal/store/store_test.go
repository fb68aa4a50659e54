package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weathermap/internal/model"
	"weathermap/internal/utilization"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testLoads() []utilization.LinkLoad {
	return []utilization.LinkLoad{
		{
			Link:     model.Link{Dev1: "core", Port1: "eth0", Dev2: "edge", Port2: "xe-0/0/0"},
			Out1Mbps: 120.5, Out2Mbps: 480.25,
		},
		{
			Link:     model.Link{Dev1: "edge", Port1: "wan0", Dev2: "isp", Port2: "wan"},
			Out1Mbps: 800, Out2Mbps: 300,
		},
	}
}

func TestInsertAndRecent(t *testing.T) {
	s := newTestStore(t)

	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.InsertBatch(ts, testLoads()))

	samples, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.Equal(t, ts.Unix(), samples[0].Timestamp)
	assert.Equal(t, "core", samples[0].Dev1)
	assert.Equal(t, "eth0", samples[0].Port1)
	assert.Equal(t, 120.5, samples[0].Out1Mbps)
	assert.Equal(t, 480.25, samples[0].Out2Mbps)
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	s := newTestStore(t)

	old := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	recent := old.Add(24 * time.Hour)
	require.NoError(t, s.InsertBatch(old, testLoads()))
	require.NoError(t, s.InsertBatch(recent, testLoads()))

	samples, err := s.Recent(100)
	require.NoError(t, err)
	require.Len(t, samples, 4)
	assert.Equal(t, recent.Unix(), samples[0].Timestamp)
	assert.Equal(t, old.Unix(), samples[3].Timestamp)
}

func TestRecentHonorsLimit(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertBatch(time.Now(), testLoads()))

	samples, err := s.Recent(1)
	require.NoError(t, err)
	assert.Len(t, samples, 1)
}

func TestInsertBatchReplacesSameKey(t *testing.T) {
	s := newTestStore(t)

	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	loads := testLoads()[:1]
	require.NoError(t, s.InsertBatch(ts, loads))

	loads[0].Out1Mbps = 999
	require.NoError(t, s.InsertBatch(ts, loads))

	samples, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 999.0, samples[0].Out1Mbps)
}

func TestPrune(t *testing.T) {
	s := newTestStore(t)

	stale := time.Now().Add(-40 * 24 * time.Hour)
	fresh := time.Now()
	require.NoError(t, s.InsertBatch(stale, testLoads()))
	require.NoError(t, s.InsertBatch(fresh, testLoads()))

	require.NoError(t, s.Prune(30*24*time.Hour))

	samples, err := s.Recent(100)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	for _, sm := range samples {
		assert.Equal(t, fresh.Unix(), sm.Timestamp)
	}
}
