package merra2

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestIndex_MatchesBruteForce(t *testing.T) {
	axes := map[string]GridAxis{
		"lat":      LatAxis(),
		"lon":      LonAxis(),
		"sparse":   {3, 7, 8, 20, 21, 40},
		"single":   {5},
		"reversed": {9, 6, 3, 0},
	}
	for name, axis := range axes {
		t.Run(name, func(t *testing.T) {
			for v := -10.0; v <= 600; v += 0.37 {
				got, err := NearestIndex(v, axis)
				require.NoError(t, err)
				gotDiff := math.Abs(v - float64(got))
				for _, a := range axis {
					assert.LessOrEqual(t, gotDiff, math.Abs(v-float64(a)), "v=%v got=%d other=%d", v, got, a)
				}
			}
		})
	}
}

func TestNearestIndex_TieGoesToFirst(t *testing.T) {
	got, err := NearestIndex(0.5, GridAxis{0, 1})
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	got, err = NearestIndex(0.5, GridAxis{1, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestNearestIndex_EmptyAxis(t *testing.T) {
	_, err := NearestIndex(1, nil)
	assert.ErrorIs(t, err, ErrEmptyAxis)

	_, err = Locate(Coordinate{Lat: 10, Lon: 10}, LatAxis(), GridAxis{})
	assert.ErrorIs(t, err, ErrEmptyAxis)
}

func TestNativeConversion(t *testing.T) {
	assert.InDelta(t, 0.0, NativeLat(-90), 1e-12)
	assert.InDelta(t, 360.0, NativeLat(90), 1e-12)
	assert.InDelta(t, 0.0, NativeLon(-180), 1e-12)
	assert.InDelta(t, 288.0, NativeLon(0), 1e-12)
	assert.InDelta(t, 24.0, LatDegrees(228), 1e-12)
	assert.InDelta(t, -125.0, LonDegrees(88), 1e-12)
}

func TestLocateBox(t *testing.T) {
	box := BoundingBox{
		SouthWest: Coordinate{Lat: 24, Lon: -125},
		NorthEast: Coordinate{Lat: 50, Lon: -66},
	}
	r, err := LocateBox(box, LatAxis(), LonAxis())
	require.NoError(t, err)

	assert.Equal(t, GridPoint{Lat: 228, Lon: 88}, r.SouthWest)
	assert.Equal(t, GridPoint{Lat: 280, Lon: 182}, r.NorthEast)
	assert.Len(t, r.Latitudes(), 53)
	assert.Len(t, r.Longitudes(), 95)
	assert.InDelta(t, 24.0, r.Latitudes()[0], 1e-12)
	assert.InDelta(t, 50.0, r.Latitudes()[52], 1e-12)
	assert.Equal(t, "T2M[0:23][228:280][88:182]", r.Subset("T2M"))
}

func TestLocateBox_SwappedCorners(t *testing.T) {
	box := BoundingBox{
		SouthWest: Coordinate{Lat: 50, Lon: -66},
		NorthEast: Coordinate{Lat: 24, Lon: -125},
	}
	r, err := LocateBox(box, LatAxis(), LonAxis())
	require.NoError(t, err)
	assert.Equal(t, GridPoint{Lat: 228, Lon: 88}, r.SouthWest)
	assert.Equal(t, GridPoint{Lat: 280, Lon: 182}, r.NorthEast)
}
