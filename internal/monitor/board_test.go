package monitor

import (
	"testing"
	"time"

	"github.com/banshee-data/ringtrack/internal/ring"
	"github.com/banshee-data/ringtrack/internal/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testGeometry() ring.Geometry {
	return ring.Geometry{CircleLength: 400, LineLength: 75, Total: 100, UpdateInterval: 100 * time.Millisecond}
}

func TestBoard_ObservesStandalonePositions(t *testing.T) {
	clock := timeutil.NewMockClock(t0)
	g := testGeometry()
	board := NewBoard(g, ring.DefaultIdleColor, clock)

	_, ok := board.LastFrame()
	assert.False(t, ok)

	track := ring.MustTrack(ring.MustSpeedProfile(map[float64]float64{0: 15}), "blue", "express")
	positions := make([]*ring.Position, g.Total)
	for i := range positions {
		p, err := ring.NewPosition(i, g.For(i), nil, ring.Options{Clock: clock})
		require.NoError(t, err)
		require.True(t, p.AttachTracks([]*ring.Track{track}))
		p.SetObserver(board.Observe)
		p.Start()
		defer p.Stop()
		positions[i] = p
	}

	clock.Set(t0.Add(10 * time.Second))
	for _, p := range positions {
		p.Update()
	}

	f, ok := board.LastFrame()
	require.True(t, ok)
	assert.Equal(t, uint64(100), f.Seq)
	assert.Equal(t, ring.Color("blue"), f.Colors[18])
	assert.Equal(t, ring.DefaultIdleColor, f.Colors[40])
	require.Len(t, f.Hits, 1)
	assert.Equal(t, 150.0, f.Hits[0].State.Distance)
	assert.Equal(t, []ring.IndexRange{{Lo: 18, Hi: 37}}, f.Hits[0].Coverage.Ranges())
}

func TestBoard_SkippedStepNotApplied(t *testing.T) {
	clock := timeutil.NewMockClock(t0)
	g := testGeometry()
	board := NewBoard(g, ring.DefaultIdleColor, clock)

	track := ring.MustTrack(ring.MustSpeedProfile(map[float64]float64{0: 15}), "blue", "")
	p, err := ring.NewPosition(0, g, nil, ring.Options{Clock: clock})
	require.NoError(t, err)
	require.True(t, p.AttachTracks([]*ring.Track{track}))
	p.SetObserver(board.Observe)
	p.Start()
	defer p.Stop()

	clock.Set(t0.Add(10 * time.Second))
	p.Update()
	f, ok := board.LastFrame()
	require.True(t, ok)
	require.Len(t, f.Hits, 1)
	assert.True(t, f.Hits[0].Applied)

	// Clock regression: the step is skipped and the frame says so.
	clock.Set(t0.Add(5 * time.Second))
	p.Update()
	f, _ = board.LastFrame()
	require.Len(t, f.Hits, 1)
	assert.False(t, f.Hits[0].Applied)
	assert.Zero(t, f.Hits[0].Coverage.Len())
	assert.Equal(t, 150.0, f.Hits[0].State.Distance)
}
