// Package merra2test writes small NetCDF files shaped like MERRA-2 daily
// files for use in tests.
package merra2test

import (
	"maps"
	"slices"
	"testing"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
	"github.com/stretchr/testify/require"
)

// FileName returns a daily file name for the given YYYYMMDD date.
func FileName(date string) string {
	return "MERRA2_400.tavg1_2d_slv_Nx." + date + ".nc4"
}

// Grid builds an [hour][lat][lon] array with values produced by fn.
func Grid(hours, nLat, nLon int, fn func(h, i, j int) float32) [][][]float32 {
	out := make([][][]float32, hours)
	for h := range out {
		out[h] = make([][]float32, nLat)
		for i := range out[h] {
			out[h][i] = make([]float32, nLon)
			for j := range out[h][i] {
				out[h][i][j] = fn(h, i, j)
			}
		}
	}
	return out
}

// WriteDailyFile writes values of variable over the lat/lon grid to path.
func WriteDailyFile(t testing.TB, path, variable string, lats, lons []float64, values [][][]float32) {
	t.Helper()
	WriteDailyFileVars(t, path, lats, lons, map[string][][][]float32{variable: values})
}

// WriteDailyFileVars writes several variables sharing one lat/lon grid to
// path, as a daily collection file holds them.
func WriteDailyFileVars(t testing.TB, path string, lats, lons []float64, vars map[string][][][]float32) {
	t.Helper()
	writeFile(t, path, lats, lons, vars, nil)
}

// WriteDailyFileWithFill writes values of variable with a _FillValue
// attribute of fill, marking cells equal to fill as missing.
func WriteDailyFileWithFill(t testing.TB, path, variable string, lats, lons []float64, values [][][]float32, fill float32) {
	t.Helper()
	writeFile(t, path, lats, lons, map[string][][][]float32{variable: values}, &fill)
}

func writeFile(t testing.TB, path string, lats, lons []float64, vars map[string][][][]float32, fill *float32) {
	t.Helper()

	cw, err := cdf.OpenWriter(path)
	require.NoError(t, err)

	var hours int
	for _, values := range vars {
		hours = len(values)
	}
	minutes := make([]int32, hours)
	for h := range minutes {
		minutes[h] = int32(h*60 + 30)
	}

	addVar(t, cw, "lat", lats, []string{"lat"}, units("degrees_north"))
	addVar(t, cw, "lon", lons, []string{"lon"}, units("degrees_east"))
	addVar(t, cw, "time", minutes, []string{"time"}, units("minutes since 00:30:00"))
	for _, name := range slices.Sorted(maps.Keys(vars)) {
		attrs := units("1")
		if fill != nil {
			attrs = withFill(*fill)
		}
		addVar(t, cw, name, vars[name], []string{"time", "lat", "lon"}, attrs)
	}

	require.NoError(t, cw.Close())
}

type attributes struct {
	keys   []string
	values map[string]any
}

func units(u string) attributes {
	return attributes{keys: []string{"units"}, values: map[string]any{"units": u}}
}

func withFill(fill float32) attributes {
	return attributes{
		keys:   []string{"units", "_FillValue"},
		values: map[string]any{"units": "1", "_FillValue": fill},
	}
}

func addVar(t testing.TB, cw *cdf.CDFWriter, name string, values any, dims []string, a attributes) {
	t.Helper()
	attrs, err := util.NewOrderedMap(a.keys, a.values)
	require.NoError(t, err)
	require.NoError(t, cw.AddVar(name, api.Variable{
		Values:     values,
		Dimensions: dims,
		Attributes: attrs,
	}))
}
