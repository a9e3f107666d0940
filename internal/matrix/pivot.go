package matrix

import (
	"maps"
	"math"
	"slices"
	"time"

	"github.com/1996-tech/MERRA-2-Weather-Data/internal/merra2"
)

// Pivot reshapes a flat list of hourly readings into a Matrix. NaN readings
// count as absent. A column lacking a value for any row is dropped; the
// number of dropped columns is returned alongside the matrix. When the same
// cell is read twice the later reading wins.
func Pivot(recs []merra2.Reading) (*Matrix, int) {
	rowSet := make(map[Location]struct{})
	colSet := make(map[int64]time.Time)
	for _, r := range recs {
		rowSet[Location{Lat: r.Latitude, Lon: r.Longitude}] = struct{}{}
		colSet[r.Timestamp.UnixNano()] = r.Timestamp
	}

	rows := slices.SortedFunc(maps.Keys(rowSet), CompareLocations)
	cols := slices.SortedFunc(maps.Values(colSet), time.Time.Compare)

	rowIdx := make(map[Location]int, len(rows))
	for i, loc := range rows {
		rowIdx[loc] = i
	}
	colIdx := make(map[int64]int, len(cols))
	for j, c := range cols {
		colIdx[c.UnixNano()] = j
	}

	m := New(Hourly, rows, cols)
	present := make([]bool, len(rows)*len(cols))
	filled := make([]int, len(cols))
	for _, r := range recs {
		if math.IsNaN(r.Value) {
			continue
		}
		i := rowIdx[Location{Lat: r.Latitude, Lon: r.Longitude}]
		j := colIdx[r.Timestamp.UnixNano()]
		if k := i*len(cols) + j; !present[k] {
			present[k] = true
			filled[j]++
		}
		m.Values[i][j] = r.Value
	}

	keep := make([]int, 0, len(cols))
	for j, n := range filled {
		if n == len(rows) {
			keep = append(keep, j)
		}
	}
	dropped := len(cols) - len(keep)
	if dropped == 0 {
		return m, 0
	}

	out := &Matrix{
		Period:  Hourly,
		Rows:    rows,
		Columns: make([]time.Time, len(keep)),
		Values:  make([][]float64, len(rows)),
	}
	for k, j := range keep {
		out.Columns[k] = cols[j]
	}
	for i := range rows {
		out.Values[i] = make([]float64, len(keep))
		for k, j := range keep {
			out.Values[i][k] = m.Values[i][j]
		}
	}
	return out, dropped
}
