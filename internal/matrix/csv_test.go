package matrix

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV_Hourly(t *testing.T) {
	m := &Matrix{
		Period:  Hourly,
		Rows:    []Location{{Lat: 40.5, Lon: -100}, {Lat: 40, Lon: -99.375}},
		Columns: []time.Time{t0, t1},
		Values:  [][]float64{{288.123456789, 289}, {math.NaN(), 0.0001}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, m))

	want := "lat,lon,2020-01-01T00:00:00,2020-01-01T01:00:00\n" +
		"40.5,-100,288.123456789,289\n" +
		"40,-99.375,,0.0001\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_AveragedRoundsToTwoDecimals(t *testing.T) {
	m := &Matrix{
		Period:  Monthly,
		Rows:    []Location{{Lat: 1, Lon: 2}},
		Columns: []time.Time{t0},
		Values:  [][]float64{{15.004}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, m))
	assert.Equal(t, "lat,lon,2020-01\n1,2,15.00\n", buf.String())
}

func TestReadCSV_RoundTripSortsRows(t *testing.T) {
	in := "lat,lon,2020-01-01,2020-01-02\n" +
		"40,-99.375,1.5,\n" +
		"40.5,-100,3,4\n"

	m, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, Daily, m.Period)
	assert.Equal(t, []Location{{Lat: 40.5, Lon: -100}, {Lat: 40, Lon: -99.375}}, m.Rows)
	assert.Equal(t, []time.Time{
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
	}, m.Columns)
	assert.Equal(t, []float64{3, 4}, m.Values[0])
	assert.Equal(t, 1.5, m.Values[1][0])
	assert.True(t, math.IsNaN(m.Values[1][1]))
}

func TestReadCSV_FormatErrors(t *testing.T) {
	cases := map[string]string{
		"annual label":  "lat,lon,annual\n1,2,3\n",
		"free text":     "lat,lon,mean\n1,2,3\n",
		"mixed periods": "lat,lon,2020-01-01,2020-02\n1,2,3,4\n",
		"out of order":  "lat,lon,2020-01-02,2020-01-01\n1,2,3,4\n",
		"bad header":    "latitude,longitude,2020-01-01\n1,2,3\n",
		"no columns":    "lat,lon\n1,2\n",
		"empty":         "",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(in))
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestReadCSV_BadValue(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("lat,lon,2020-01\n1,2,abc\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestCSVFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "T2M_2020_hourly.csv")
	m := &Matrix{
		Period:  Hourly,
		Rows:    []Location{{Lat: 1, Lon: 2}},
		Columns: []time.Time{t0, t1},
		Values:  [][]float64{{273.15, 274.25}},
	}
	require.NoError(t, WriteCSVFile(path, m))

	got, err := ReadCSVFile(path)
	require.NoError(t, err)
	assert.Equal(t, m.Rows, got.Rows)
	assert.Equal(t, m.Columns, got.Columns)
	assert.Equal(t, m.Values, got.Values)
}
