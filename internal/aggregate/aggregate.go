// Package aggregate reduces the time axis of a matrix to calendar buckets.
package aggregate

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/1996-tech/MERRA-2-Weather-Data/internal/matrix"
)

// Result holds the three reductions of one matrix.
type Result struct {
	Daily   *matrix.Matrix
	Monthly *matrix.Matrix
	Annual  *matrix.Matrix
}

// Aggregate computes daily, monthly and annual means of m.
func Aggregate(m *matrix.Matrix) (Result, error) {
	daily, err := Daily(m)
	if err != nil {
		return Result{}, err
	}
	monthly, err := Monthly(m)
	if err != nil {
		return Result{}, err
	}
	annual, err := Annual(m)
	if err != nil {
		return Result{}, err
	}
	return Result{Daily: daily, Monthly: monthly, Annual: annual}, nil
}

// Daily averages the columns sharing a calendar date.
func Daily(m *matrix.Matrix) (*matrix.Matrix, error) {
	return reduce(m, matrix.Daily, func(t time.Time) time.Time {
		y, mo, d := t.Date()
		return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
	})
}

// Monthly averages the columns sharing a year and month.
func Monthly(m *matrix.Matrix) (*matrix.Matrix, error) {
	return reduce(m, matrix.Monthly, func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	})
}

// Annual averages all columns into a single one labelled matrix.AnnualLabel.
func Annual(m *matrix.Matrix) (*matrix.Matrix, error) {
	if err := check(m); err != nil {
		return nil, err
	}
	first := m.Columns[0]
	year := time.Date(first.Year(), time.January, 1, 0, 0, 0, 0, first.Location())
	return reduce(m, matrix.Annual, func(time.Time) time.Time { return year })
}

// check rejects matrices whose columns are not timestamps, i.e. annual ones.
func check(m *matrix.Matrix) error {
	if m.Period == matrix.Annual {
		return fmt.Errorf("%q: %w", matrix.AnnualLabel, matrix.ErrFormat)
	}
	if len(m.Columns) == 0 {
		return fmt.Errorf("no columns to aggregate: %w", matrix.ErrEmptyResult)
	}
	return nil
}

// reduce groups the columns of m by key and replaces each group with its
// arithmetic mean, row by row. Columns are chronological so groups are
// contiguous and come out chronological too.
func reduce(m *matrix.Matrix, period matrix.Period, key func(time.Time) time.Time) (*matrix.Matrix, error) {
	if err := check(m); err != nil {
		return nil, err
	}

	type bucket struct {
		key        time.Time
		start, end int
	}
	var buckets []bucket
	for j, c := range m.Columns {
		k := key(c)
		if n := len(buckets); n > 0 && buckets[n-1].key.Equal(k) {
			buckets[n-1].end = j + 1
			continue
		}
		buckets = append(buckets, bucket{key: k, start: j, end: j + 1})
	}

	cols := make([]time.Time, len(buckets))
	for b, bk := range buckets {
		cols[b] = bk.key
	}
	out := matrix.New(period, append([]matrix.Location(nil), m.Rows...), cols)
	for i, row := range m.Values {
		for b, bk := range buckets {
			group := row[bk.start:bk.end]
			out.Values[i][b] = floats.Sum(group) / float64(len(group))
		}
	}
	return out, nil
}
