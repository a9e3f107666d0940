// Package humidity derives relative humidity from specific humidity,
// temperature and surface pressure.
package humidity

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/1996-tech/MERRA-2-Weather-Data/internal/matrix"
)

const (
	kelvinOffset = 273.15
	hPaPerAtm    = 1013.25
	// PaPerAtm converts surface pressure as stored in the files to atmospheres.
	PaPerAtm = 101325.0
	epsilon  = 0.622
)

// ErrPeriodMismatch is returned when the inputs cover different periods.
var ErrPeriodMismatch = errors.New("inputs have different periods")

// SaturationVaporPressure returns the saturation vapor pressure in hPa over
// water at temperature tc in °C (Bolton, 1980).
func SaturationVaporPressure(tc float64) float64 {
	return 6.112 * math.Exp(17.67*tc/(tc+243.5))
}

// Relative returns the relative humidity in percent for specific humidity q
// (kg/kg), temperature t (K) and pressure p (atm), clipped to [0, 100]. NaN
// in any input gives NaN.
func Relative(q, t, p float64) float64 {
	if math.IsNaN(q) || math.IsNaN(t) || math.IsNaN(p) {
		return math.NaN()
	}
	es := SaturationVaporPressure(t-kelvinOffset) / hPaPerAtm
	rh := q * p / (epsilon * es) * 100
	switch {
	case math.IsNaN(rh):
		return math.NaN()
	case rh > 100:
		return 100
	case rh < 0:
		return 0
	}
	return rh
}

// Matrix applies Relative cell by cell to three matrices of specific
// humidity, temperature in K and pressure in atm. Only columns present in all
// three inputs are computed. Rows are the union of the input rows; a cell
// whose row is missing from any input is NaN.
func Matrix(q, t, p *matrix.Matrix) (*matrix.Matrix, error) {
	if q.Period != t.Period || q.Period != p.Period {
		return nil, fmt.Errorf("%w: %s, %s, %s", ErrPeriodMismatch, q.Period, t.Period, p.Period)
	}

	cols := intersectColumns(q, t, p)
	rows := unionRows(q, t, p)
	out := matrix.New(q.Period, rows, cols)

	for i, loc := range rows {
		qi, qok := q.RowIndex(loc)
		ti, tok := t.RowIndex(loc)
		pi, pok := p.RowIndex(loc)
		if !qok || !tok || !pok {
			continue
		}
		for j, c := range cols {
			qj, _ := q.ColumnIndex(c)
			tj, _ := t.ColumnIndex(c)
			pj, _ := p.ColumnIndex(c)
			out.Values[i][j] = Relative(q.Values[qi][qj], t.Values[ti][tj], p.Values[pi][pj])
		}
	}
	return out, nil
}

func intersectColumns(first *matrix.Matrix, rest ...*matrix.Matrix) []time.Time {
	var cols []time.Time
	for _, c := range first.Columns {
		shared := true
		for _, m := range rest {
			if _, ok := m.ColumnIndex(c); !ok {
				shared = false
				break
			}
		}
		if shared {
			cols = append(cols, c)
		}
	}
	return cols
}

func unionRows(ms ...*matrix.Matrix) []matrix.Location {
	set := make(map[matrix.Location]struct{})
	for _, m := range ms {
		for _, loc := range m.Rows {
			set[loc] = struct{}{}
		}
	}
	return slices.SortedFunc(maps.Keys(set), matrix.CompareLocations)
}
