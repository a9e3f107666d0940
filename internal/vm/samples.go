package vm

import (
	"math"

	"github.com/1996-tech/MERRA-2-Weather-Data/internal/matrix"
)

// Samples flattens m into samples, one per cell, skipping cells with no
// value. Samples come out column by column so a batch covers few timestamps.
func Samples(m *matrix.Matrix) []Sample {
	out := make([]Sample, 0, len(m.Rows)*len(m.Columns))
	for j, c := range m.Columns {
		ts := c.UnixMilli()
		for i, loc := range m.Rows {
			v := m.Values[i][j]
			if math.IsNaN(v) {
				continue
			}
			out = append(out, Sample{Timestamp: ts, Latitude: loc.Lat, Longitude: loc.Lon, Value: v})
		}
	}
	return out
}
