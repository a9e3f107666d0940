package humidity

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1996-tech/MERRA-2-Weather-Data/internal/matrix"
)

func TestRelative_ClosedForm(t *testing.T) {
	const (
		tk = 288.15
		q  = 0.01
		p  = 1.0
	)
	tc := tk - 273.15
	es := 6.112 * math.Exp(17.67*tc/(tc+243.5)) / 1013.25
	want := q * p / (0.622 * es) * 100

	got := Relative(q, tk, p)
	assert.Greater(t, got, 0.0)
	assert.Less(t, got, 100.0)
	assert.InEpsilon(t, want, got, 1e-6)
}

func TestRelative_Clamps(t *testing.T) {
	assert.Equal(t, 100.0, Relative(0.05, 288.15, 1))
	assert.Equal(t, 0.0, Relative(-0.01, 288.15, 1))
}

func TestRelative_NaNPassesThrough(t *testing.T) {
	assert.True(t, math.IsNaN(Relative(math.NaN(), 288.15, 1)))
	assert.True(t, math.IsNaN(Relative(0.01, math.NaN(), 1)))
	assert.True(t, math.IsNaN(Relative(0.01, 288.15, math.NaN())))
}

func TestSaturationVaporPressure(t *testing.T) {
	assert.InDelta(t, 6.112, SaturationVaporPressure(0), 1e-12)
}

var (
	d1 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 = time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	d3 = time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC)
)

func daily(rows []matrix.Location, cols []time.Time, v float64) *matrix.Matrix {
	m := matrix.New(matrix.Daily, rows, cols)
	for i := range m.Values {
		for j := range m.Values[i] {
			m.Values[i][j] = v
		}
	}
	return m
}

func TestMatrix_ColumnIntersection(t *testing.T) {
	rows := []matrix.Location{{Lat: 40, Lon: -100}}
	q := daily(rows, []time.Time{d1, d2}, 0.01)
	tk := daily(rows, []time.Time{d2, d3}, 288.15)
	p := daily(rows, []time.Time{d1, d2, d3}, 1)

	rh, err := Matrix(q, tk, p)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{d2}, rh.Columns)
	assert.Equal(t, matrix.Daily, rh.Period)
	assert.InEpsilon(t, Relative(0.01, 288.15, 1), rh.Values[0][0], 1e-12)
}

func TestMatrix_MissingRowIsNaN(t *testing.T) {
	north := matrix.Location{Lat: 41, Lon: -100}
	south := matrix.Location{Lat: 40, Lon: -100}
	cols := []time.Time{d1}

	q := daily([]matrix.Location{north, south}, cols, 0.01)
	tk := daily([]matrix.Location{north, south}, cols, 288.15)
	p := daily([]matrix.Location{south}, cols, 1)

	rh, err := Matrix(q, tk, p)
	require.NoError(t, err)

	require.Equal(t, []matrix.Location{north, south}, rh.Rows)
	assert.True(t, math.IsNaN(rh.Values[0][0]))
	assert.False(t, math.IsNaN(rh.Values[1][0]))
}

func TestMatrix_PeriodMismatch(t *testing.T) {
	rows := []matrix.Location{{Lat: 40, Lon: -100}}
	q := daily(rows, []time.Time{d1}, 0.01)
	tk := daily(rows, []time.Time{d1}, 288.15)
	p := daily(rows, []time.Time{d1}, 1)
	p.Period = matrix.Monthly

	_, err := Matrix(q, tk, p)
	assert.ErrorIs(t, err, ErrPeriodMismatch)
}
