package merra2

import (
	"fmt"
	"math"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// HoursPerFile is the number of hourly slices in a daily file.
const HoursPerFile = 24

// Scanner retrieves the values of one variable from a daily file one hour at
// a time.
type Scanner struct {
	nc      api.Group
	date    time.Time
	la      []float64
	lo      []float64
	vg      api.VarGetter
	fill    float64
	hasFill bool
	pos     int
	recs    []Reading
	err     error
}

// NewScanner opens a daily file and prepares to scan variable over the grid
// described by la and lo, which must match the file's lat/lon dimensions.
func NewScanner(filePath, variable string, la, lo []float64) (*Scanner, error) {
	date, err := ParseFileDate(filePath)
	if err != nil {
		return nil, err
	}
	nc, err := netcdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filePath, err)
	}
	vg, err := nc.GetVarGetter(variable)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("variable %q: %w", variable, err)
	}
	s := &Scanner{
		nc:   nc,
		date: date,
		la:   la,
		lo:   lo,
		vg:   vg,
	}
	if attrs := vg.Attributes(); attrs != nil {
		if v, ok := attrs.Get("_FillValue"); ok {
			s.fill, s.hasFill = scalar(v)
		}
	}
	return s, nil
}

// Close closes the scanner.
func (s *Scanner) Close() {
	s.nc.Close()
}

// Date returns the day covered by the file.
func (s *Scanner) Date() time.Time {
	return s.date
}

// TotalRecCount returns the number of readings the file holds for the region.
func (s *Scanner) TotalRecCount() int {
	return HoursPerFile * len(s.la) * len(s.lo)
}

// Scan reads all readings for the next hour.
func (s *Scanner) Scan() bool {
	if s.err != nil || s.pos >= HoursPerFile {
		return false
	}
	grid, ok := s.scan()
	if !ok {
		return false
	}

	ts := s.date.Add(time.Duration(s.pos) * time.Hour)
	s.recs = make([]Reading, len(s.la)*len(s.lo))
	k := 0
	for i, la := range s.la {
		for j, lo := range s.lo {
			v := grid[i][j]
			if s.hasFill && v == s.fill {
				v = math.NaN()
			}
			s.recs[k] = Reading{Timestamp: ts, Latitude: la, Longitude: lo, Value: v}
			k++
		}
	}
	s.pos++
	return true
}

func (s *Scanner) scan() ([][]float64, bool) {
	begin := int64(s.pos)
	v, err := s.vg.GetSlice(begin, begin+1)
	if err != nil {
		s.err = fmt.Errorf("hour %d: %w", s.pos, err)
		return nil, false
	}
	grid, err := firstSlice(v)
	if err != nil {
		s.err = fmt.Errorf("hour %d: %w", s.pos, err)
		return nil, false
	}
	if len(grid) != len(s.la) {
		s.err = fmt.Errorf("hour %d: got %d latitudes, want %d", s.pos, len(grid), len(s.la))
		return nil, false
	}
	for _, row := range grid {
		if len(row) != len(s.lo) {
			s.err = fmt.Errorf("hour %d: got %d longitudes, want %d", s.pos, len(row), len(s.lo))
			return nil, false
		}
	}
	return grid, true
}

// Err returns the first error encountered while scanning.
func (s *Scanner) Err() error {
	return s.err
}

// Records returns the readings that have been read by the last Scan()
// operation. The function transfers ownership of readings to the caller and
// the subsequent calls to this function without prior invocation of Scan()
// will return nil.
func (s *Scanner) Records() []Reading {
	recs := s.recs
	s.recs = nil
	return recs
}

// ScanAll reads every hour of the file.
func (s *Scanner) ScanAll() ([]Reading, error) {
	recs := make([]Reading, 0, s.TotalRecCount())
	for s.Scan() {
		recs = append(recs, s.Records()...)
	}
	if s.err != nil {
		return nil, s.err
	}
	return recs, nil
}

// ProbeAxes reads the latitude and longitude dimension values of a file.
func ProbeAxes(filePath string) (la, lo []float64, err error) {
	nc, err := netcdf.Open(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", filePath, err)
	}
	defer nc.Close()
	la, err = dimValues(nc, "lat")
	if err != nil {
		return nil, nil, err
	}
	lo, err = dimValues(nc, "lon")
	if err != nil {
		return nil, nil, err
	}
	return la, lo, nil
}

func dimValues(nc api.Group, dimName string) ([]float64, error) {
	dim, err := nc.GetVarGetter(dimName)
	if err != nil {
		return nil, fmt.Errorf("dimension %q: %w", dimName, err)
	}
	v, err := dim.Values()
	if err != nil {
		return nil, fmt.Errorf("dimension %q: %w", dimName, err)
	}
	switch t := v.(type) {
	case []float64:
		return t, nil
	case []float32:
		return widen(t), nil
	case []int32:
		return widen(t), nil
	case []int16:
		return widen(t), nil
	}
	return nil, fmt.Errorf("dimension %q: unsupported type %T", dimName, v)
}

// firstSlice unwraps the single [lat][lon] grid from a one-hour slice.
func firstSlice(v any) ([][]float64, error) {
	switch t := v.(type) {
	case [][][]float32:
		if len(t) == 0 {
			return nil, fmt.Errorf("empty slice")
		}
		return widen2(t[0]), nil
	case [][][]float64:
		if len(t) == 0 {
			return nil, fmt.Errorf("empty slice")
		}
		return t[0], nil
	case [][][]int16:
		if len(t) == 0 {
			return nil, fmt.Errorf("empty slice")
		}
		return widen2(t[0]), nil
	}
	return nil, fmt.Errorf("unsupported variable type %T", v)
}

func widen[T float32 | float64 | int16 | int32](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func widen2[T float32 | int16](in [][]T) [][]float64 {
	out := make([][]float64, len(in))
	for i, row := range in {
		out[i] = widen(row)
	}
	return out
}

func scalar(v any) (float64, bool) {
	switch t := v.(type) {
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case []float32:
		if len(t) > 0 {
			return float64(t[0]), true
		}
	case []float64:
		if len(t) > 0 {
			return t[0], true
		}
	}
	return 0, false
}
