package matrix

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// WriteCSV writes m with a "lat,lon,<labels...>" header. Hourly values use the
// shortest exact representation; averaged values are rounded to two decimals.
// NaN cells are left empty.
func WriteCSV(w io.Writer, m *Matrix) error {
	cw := csv.NewWriter(w)

	header := append([]string{"lat", "lon"}, m.Labels()...)
	if err := cw.Write(header); err != nil {
		return err
	}

	format := formatDefault
	if m.Period != Hourly {
		format = formatAveraged
	}
	record := make([]string, len(header))
	for i, loc := range m.Rows {
		record[0] = strconv.FormatFloat(loc.Lat, 'f', -1, 64)
		record[1] = strconv.FormatFloat(loc.Lon, 'f', -1, 64)
		for j, v := range m.Values[i] {
			record[j+2] = format(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatDefault(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatAveraged(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WriteCSVFile writes m to path, creating parent directories.
func WriteCSVFile(path string, m *Matrix) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteCSV(f, m)
}

// ReadCSV reads a matrix written by WriteCSV. Column labels must all be
// timestamps of the same period; otherwise ReadCSV returns ErrFormat.
func ReadCSV(r io.Reader) (*Matrix, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty csv: %w", ErrFormat)
		}
		return nil, err
	}
	if len(header) < 2 || header[0] != "lat" || header[1] != "lon" {
		return nil, fmt.Errorf("header must start with lat,lon: %w", ErrFormat)
	}

	period, cols, err := ParseLabels(header[2:])
	if err != nil {
		return nil, err
	}

	m := &Matrix{Period: period, Columns: cols}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		lat, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: latitude: %w", line, err)
		}
		lon, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: longitude: %w", line, err)
		}
		row := make([]float64, len(cols))
		for j, s := range rec[2:] {
			if s == "" {
				row[j] = math.NaN()
				continue
			}
			if row[j], err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("line %d column %q: %w", line, header[j+2], err)
			}
		}
		m.Rows = append(m.Rows, Location{Lat: lat, Lon: lon})
		m.Values = append(m.Values, row)
	}
	m.sortRows()
	return m, nil
}

// ReadCSVFile reads a matrix from path.
func ReadCSVFile(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseLabels converts column labels to timestamps and reports the period
// they share. Labels that are not hourly, daily or monthly timestamps, or a
// mix of periods, yield ErrFormat.
func ParseLabels(labels []string) (Period, []time.Time, error) {
	if len(labels) == 0 {
		return 0, nil, fmt.Errorf("no columns: %w", ErrFormat)
	}
	period, ok := detectPeriod(labels[0])
	if !ok {
		return 0, nil, fmt.Errorf("%q: %w", labels[0], ErrFormat)
	}
	layout := periodLayouts[period]
	cols := make([]time.Time, len(labels))
	for i, l := range labels {
		t, err := time.ParseInLocation(layout, l, time.UTC)
		if err != nil {
			return 0, nil, fmt.Errorf("%q: %w", l, ErrFormat)
		}
		if i > 0 && !t.After(cols[i-1]) {
			return 0, nil, fmt.Errorf("%q out of order: %w", l, ErrFormat)
		}
		cols[i] = t
	}
	return period, cols, nil
}

func detectPeriod(label string) (Period, bool) {
	for _, p := range []Period{Hourly, Daily, Monthly} {
		if _, err := time.ParseInLocation(periodLayouts[p], label, time.UTC); err == nil {
			return p, true
		}
	}
	return 0, false
}
