package ring

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeedProfileLookup(t *testing.T) {
	t.Parallel()
	p := MustSpeedProfile(map[float64]float64{0: 5, 50: 6, 100: 7})

	tests := []struct {
		distance float64
		want     float64
	}{
		{0, 5},
		{10, 5},
		{25, 5}, // equidistant from 0 and 50
		{40, 6},
		{75, 6}, // equidistant from 50 and 100
		{99, 7},
		{1000, 7},
		{-20, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Lookup(tt.distance), "Lookup(%v)", tt.distance)
	}
}

func TestSpeedProfileLookup_TieGoesToLowerKey(t *testing.T) {
	t.Parallel()
	p := MustSpeedProfile(map[float64]float64{100: 2, 0: 1})
	assert.Equal(t, 1.0, p.Lookup(50))
}

func TestSpeedProfileLookup_SingleEntry(t *testing.T) {
	t.Parallel()
	p := MustSpeedProfile(map[float64]float64{200: 4.5})
	assert.Equal(t, 4.5, p.Lookup(0))
	assert.Equal(t, 4.5, p.Lookup(1e9))
}

func TestNewSpeedProfile_Empty(t *testing.T) {
	t.Parallel()
	_, err := NewSpeedProfile(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyProfile))

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "speed profile", cfgErr.Field)
}

func TestNewSpeedProfile_RejectsBadEntries(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		speeds map[float64]float64
	}{
		{"negative key", map[float64]float64{-1: 5}},
		{"NaN key", map[float64]float64{math.NaN(): 5}},
		{"infinite key", map[float64]float64{math.Inf(1): 5}},
		{"negative speed", map[float64]float64{0: -3}},
		{"NaN speed", map[float64]float64{0: math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSpeedProfile(tt.speeds)
			var cfgErr *ConfigurationError
			assert.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got %v", err)
		})
	}
}

func TestSpeedProfileEntries_Sorted(t *testing.T) {
	t.Parallel()
	p := MustSpeedProfile(map[float64]float64{400: 4.5, 0: 5, 150: 7.5, 50: 6})
	require.Equal(t, 4, p.Len())
	assert.Equal(t, []ProfileEntry{
		{Distance: 0, Speed: 5},
		{Distance: 50, Speed: 6},
		{Distance: 150, Speed: 7.5},
		{Distance: 400, Speed: 4.5},
	}, p.Entries())
}

func TestNewTrack(t *testing.T) {
	t.Parallel()
	p := MustSpeedProfile(map[float64]float64{0: 1})

	tr, err := NewTrack(p, "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultTrackColor, tr.Color())
	assert.Equal(t, "red", tr.Label())

	tagged := MustTrack(p, "blue", "express")
	assert.Equal(t, "express", tagged.Label())
	assert.Same(t, p, tagged.Profile())

	_, err = NewTrack(nil, "blue", "")
	assert.True(t, errors.Is(err, ErrEmptyProfile))
}
