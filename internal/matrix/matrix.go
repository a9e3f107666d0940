// Package matrix holds location-by-time tables of a single quantity and the
// routines that build them from daily files and persist them as CSV.
//
// Rows are unique (latitude, longitude) pairs sorted by latitude descending,
// then longitude ascending. Columns are timestamps in chronological order.
// After construction every cell of a Matrix built from files holds a value;
// derived matrices may carry NaN as the "no value" marker.
package matrix

import (
	"cmp"
	"math"
	"slices"
	"sort"
	"time"
)

// Period describes what a column of a Matrix stands for.
type Period int

const (
	Hourly Period = iota
	Daily
	Monthly
	Annual
)

// AnnualLabel is the label of the single column of an annual matrix.
const AnnualLabel = "annual"

var periodLayouts = map[Period]string{
	Hourly:  "2006-01-02T15:04:05",
	Daily:   time.DateOnly,
	Monthly: "2006-01",
}

func (p Period) String() string {
	switch p {
	case Hourly:
		return "hourly"
	case Daily:
		return "daily"
	case Monthly:
		return "monthly"
	case Annual:
		return "annual"
	}
	return "unknown"
}

// Label formats a column timestamp for this period.
func (p Period) Label(t time.Time) string {
	if p == Annual {
		return AnnualLabel
	}
	return t.Format(periodLayouts[p])
}

// Location is a row key.
type Location struct {
	Lat float64
	Lon float64
}

// CompareLocations orders rows by latitude descending, then longitude
// ascending.
func CompareLocations(a, b Location) int {
	if c := cmp.Compare(b.Lat, a.Lat); c != 0 {
		return c
	}
	return cmp.Compare(a.Lon, b.Lon)
}

// Matrix is a table of values indexed by location and time.
type Matrix struct {
	Period  Period
	Rows    []Location
	Columns []time.Time
	Values  [][]float64 // [row][column]
}

// New allocates a matrix with every cell set to NaN.
func New(period Period, rows []Location, cols []time.Time) *Matrix {
	values := make([][]float64, len(rows))
	for i := range values {
		values[i] = make([]float64, len(cols))
		for j := range values[i] {
			values[i][j] = math.NaN()
		}
	}
	return &Matrix{Period: period, Rows: rows, Columns: cols, Values: values}
}

// Labels returns the column labels as they appear in CSV output.
func (m *Matrix) Labels() []string {
	out := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		out[i] = m.Period.Label(c)
	}
	return out
}

// RowIndex returns the position of loc among the rows.
func (m *Matrix) RowIndex(loc Location) (int, bool) {
	return slices.BinarySearchFunc(m.Rows, loc, CompareLocations)
}

// ColumnIndex returns the position of t among the columns.
func (m *Matrix) ColumnIndex(t time.Time) (int, bool) {
	return slices.BinarySearchFunc(m.Columns, t, func(c, t time.Time) int {
		return c.Compare(t)
	})
}

// Map returns a new matrix with fn applied to every cell.
func (m *Matrix) Map(fn func(float64) float64) *Matrix {
	out := &Matrix{
		Period:  m.Period,
		Rows:    slices.Clone(m.Rows),
		Columns: slices.Clone(m.Columns),
		Values:  make([][]float64, len(m.Values)),
	}
	for i, row := range m.Values {
		out.Values[i] = make([]float64, len(row))
		for j, v := range row {
			out.Values[i][j] = fn(v)
		}
	}
	return out
}

// sortRows restores the row order invariant, permuting values along.
func (m *Matrix) sortRows() {
	sort.Sort(byLocation{m})
}

type byLocation struct{ m *Matrix }

func (b byLocation) Len() int { return len(b.m.Rows) }

func (b byLocation) Less(i, j int) bool {
	return CompareLocations(b.m.Rows[i], b.m.Rows[j]) < 0
}

func (b byLocation) Swap(i, j int) {
	b.m.Rows[i], b.m.Rows[j] = b.m.Rows[j], b.m.Rows[i]
	b.m.Values[i], b.m.Values[j] = b.m.Values[j], b.m.Values[i]
}
