package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weathermap/internal/model"
	"weathermap/internal/utilization"
)

func TestEmpty(t *testing.T) {
	c := New()
	assert.True(t, c.Empty())

	c.Update([]byte("png"), nil, nil, time.Now())
	assert.False(t, c.Empty())
}

func TestUpdateAndSnapshot(t *testing.T) {
	c := New()
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	loads := []utilization.LinkLoad{
		{Link: model.Link{Dev1: "core", Port1: "eth0", Dev2: "edge", Port2: "eth1"}, Out1Mbps: 10, Out2Mbps: 20},
	}
	problems := []model.Problem{{Entity: "down-sw", Reason: "fetching device: timeout"}}

	c.Update([]byte("png-bytes"), loads, problems, at)

	snap := c.Snapshot()
	assert.Equal(t, []byte("png-bytes"), snap.PNG)
	require.Len(t, snap.Loads, 1)
	assert.Equal(t, 10.0, snap.Loads[0].Out1Mbps)
	require.Len(t, snap.Problems, 1)
	assert.Equal(t, at, snap.LastRender)
}

func TestSnapshotIsolatedFromLaterUpdates(t *testing.T) {
	c := New()
	loads := []utilization.LinkLoad{
		{Link: model.Link{Dev1: "a", Port1: "p", Dev2: "b", Port2: "q"}, Out1Mbps: 1},
	}
	c.Update([]byte("one"), loads, nil, time.Now())

	snap := c.Snapshot()
	c.Update([]byte("two"), nil, nil, time.Now())

	assert.Equal(t, []byte("one"), snap.PNG)
	assert.Len(t, snap.Loads, 1)
	assert.Empty(t, c.Snapshot().Loads)
}

func TestConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Update([]byte("png"), nil, nil, time.Now())
		}()
		go func() {
			defer wg.Done()
			_ = c.Snapshot()
		}()
	}
	wg.Wait()
	assert.False(t, c.Empty())
}
