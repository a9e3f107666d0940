package merra2_test

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1996-tech/MERRA-2-Weather-Data/internal/merra2"
	"github.com/1996-tech/MERRA-2-Weather-Data/internal/merra2/merra2test"
)

var (
	testLats = []float64{40.0, 40.5}
	testLons = []float64{-100.0, -99.375}
)

func writeFile(t *testing.T, variable string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), merra2test.FileName("20200102"))
	values := merra2test.Grid(merra2.HoursPerFile, 2, 2, func(h, i, j int) float32 {
		return float32(h*100 + i*10 + j)
	})
	merra2test.WriteDailyFile(t, path, variable, testLats, testLons, values)
	return path
}

func TestScanner_ScanAll(t *testing.T) {
	path := writeFile(t, "T2M")

	s, err := merra2.NewScanner(path, "T2M", testLats, testLons)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), s.Date())
	assert.Equal(t, 96, s.TotalRecCount())

	recs, err := s.ScanAll()
	require.NoError(t, err)
	require.Len(t, recs, 96)

	assert.Equal(t, merra2.Reading{
		Timestamp: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		Latitude:  40.0,
		Longitude: -100.0,
		Value:     0,
	}, recs[0])

	last := recs[95]
	assert.Equal(t, time.Date(2020, 1, 2, 23, 0, 0, 0, time.UTC), last.Timestamp)
	assert.Equal(t, 40.5, last.Latitude)
	assert.Equal(t, -99.375, last.Longitude)
	assert.Equal(t, 2311.0, last.Value)
}

func TestScanner_MissingVariable(t *testing.T) {
	path := writeFile(t, "T2M")

	_, err := merra2.NewScanner(path, "QV2M", testLats, testLons)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QV2M")
}

func TestScanner_GridMismatch(t *testing.T) {
	path := writeFile(t, "T2M")

	s, err := merra2.NewScanner(path, "T2M", []float64{40, 40.5, 41}, testLons)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.ScanAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitudes")
}

func TestScanner_BadFileName(t *testing.T) {
	_, err := merra2.NewScanner(filepath.Join(t.TempDir(), "nodate.nc4"), "T2M", testLats, testLons)
	assert.Error(t, err)
}

func TestProbeAxes(t *testing.T) {
	path := writeFile(t, "PS")

	la, lo, err := merra2.ProbeAxes(path)
	require.NoError(t, err)
	assert.Equal(t, testLats, la)
	assert.Equal(t, testLons, lo)
}

func TestScanner_FillValueIsNaN(t *testing.T) {
	const fill = float32(1e15)
	path := filepath.Join(t.TempDir(), merra2test.FileName("20200102"))
	values := merra2test.Grid(merra2.HoursPerFile, 2, 2, func(h, i, j int) float32 {
		if h == 5 && i == 1 && j == 0 {
			return fill
		}
		return float32(h*100 + i*10 + j)
	})
	merra2test.WriteDailyFileWithFill(t, path, "T2M", testLats, testLons, values, fill)

	s, err := merra2.NewScanner(path, "T2M", testLats, testLons)
	require.NoError(t, err)
	defer s.Close()

	recs, err := s.ScanAll()
	require.NoError(t, err)
	require.Len(t, recs, 96)

	// hour 5, lat 40.5, lon -100
	filled := recs[5*4+2]
	assert.Equal(t, 40.5, filled.Latitude)
	assert.Equal(t, -100.0, filled.Longitude)
	assert.True(t, math.IsNaN(filled.Value))
	assert.Equal(t, 511.0, recs[5*4+3].Value)
}
