package merra2

import (
	"errors"
	"fmt"
	"math"
)

// Geometry of the MERRA-2 0.5° x 0.625° global grid.
const (
	LatStep  = 0.5
	LonStep  = 0.625
	LatCount = 361
	LonCount = 576
)

// ErrEmptyAxis is returned when a nearest-point lookup is asked to search an
// axis with no points.
var ErrEmptyAxis = errors.New("grid axis is empty")

// GridAxis is an ordered sequence of native grid indices along one dimension.
type GridAxis []int

// NewAxis returns the axis 0, 1, ..., n-1.
func NewAxis(n int) GridAxis {
	a := make(GridAxis, n)
	for i := range a {
		a[i] = i
	}
	return a
}

// LatAxis returns the full MERRA-2 latitude axis.
func LatAxis() GridAxis { return NewAxis(LatCount) }

// LonAxis returns the full MERRA-2 longitude axis.
func LonAxis() GridAxis { return NewAxis(LonCount) }

// NativeLat converts a latitude in degrees to native grid units.
func NativeLat(lat float64) float64 { return (lat + 90) / LatStep }

// NativeLon converts a longitude in degrees to native grid units.
func NativeLon(lon float64) float64 { return (lon + 180) / LonStep }

// LatDegrees converts a native latitude index back to degrees.
func LatDegrees(idx int) float64 { return float64(idx)*LatStep - 90 }

// LonDegrees converts a native longitude index back to degrees.
func LonDegrees(idx int) float64 { return float64(idx)*LonStep - 180 }

// NearestIndex returns the member of axis closest to v. When two members are
// equally close the one appearing first in axis wins.
func NearestIndex(v float64, axis GridAxis) (int, error) {
	if len(axis) == 0 {
		return 0, ErrEmptyAxis
	}
	best := axis[0]
	bestDiff := math.Abs(v - float64(best))
	for _, a := range axis[1:] {
		if d := math.Abs(v - float64(a)); d < bestDiff {
			best, bestDiff = a, d
		}
	}
	return best, nil
}

// Coordinate is a geographic position in degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// BoundingBox is the region of interest given by its two corners.
type BoundingBox struct {
	SouthWest Coordinate
	NorthEast Coordinate
}

// GridPoint identifies one cell of the native grid.
type GridPoint struct {
	Lat int
	Lon int
}

// Locate snaps a single coordinate to the nearest grid point.
func Locate(c Coordinate, latAxis, lonAxis GridAxis) (GridPoint, error) {
	la, err := NearestIndex(NativeLat(c.Lat), latAxis)
	if err != nil {
		return GridPoint{}, fmt.Errorf("latitude axis: %w", err)
	}
	lo, err := NearestIndex(NativeLon(c.Lon), lonAxis)
	if err != nil {
		return GridPoint{}, fmt.Errorf("longitude axis: %w", err)
	}
	return GridPoint{Lat: la, Lon: lo}, nil
}

// Region is a rectangular block of grid points, inclusive on both ends.
type Region struct {
	SouthWest GridPoint
	NorthEast GridPoint
}

// LocateBox snaps both corners of box onto the grid.
func LocateBox(box BoundingBox, latAxis, lonAxis GridAxis) (Region, error) {
	sw, err := Locate(box.SouthWest, latAxis, lonAxis)
	if err != nil {
		return Region{}, fmt.Errorf("south-west corner: %w", err)
	}
	ne, err := Locate(box.NorthEast, latAxis, lonAxis)
	if err != nil {
		return Region{}, fmt.Errorf("north-east corner: %w", err)
	}
	if sw.Lat > ne.Lat {
		sw.Lat, ne.Lat = ne.Lat, sw.Lat
	}
	if sw.Lon > ne.Lon {
		sw.Lon, ne.Lon = ne.Lon, sw.Lon
	}
	return Region{SouthWest: sw, NorthEast: ne}, nil
}

// Latitudes returns the latitude in degrees of every row of the region, south
// to north, matching the order of a subset download.
func (r Region) Latitudes() []float64 {
	out := make([]float64, 0, r.NorthEast.Lat-r.SouthWest.Lat+1)
	for i := r.SouthWest.Lat; i <= r.NorthEast.Lat; i++ {
		out = append(out, LatDegrees(i))
	}
	return out
}

// Longitudes returns the longitude in degrees of every column of the region,
// west to east.
func (r Region) Longitudes() []float64 {
	out := make([]float64, 0, r.NorthEast.Lon-r.SouthWest.Lon+1)
	for i := r.SouthWest.Lon; i <= r.NorthEast.Lon; i++ {
		out = append(out, LonDegrees(i))
	}
	return out
}

// Subset renders the OPeNDAP hyperslab constraint selecting variable over all
// hours of a daily file within the region, e.g. "T2M[0:23][228:280][88:182]".
func (r Region) Subset(variable string) string {
	return fmt.Sprintf("%s[0:%d][%d:%d][%d:%d]", variable, HoursPerFile-1,
		r.SouthWest.Lat, r.NorthEast.Lat, r.SouthWest.Lon, r.NorthEast.Lon)
}

// Summary returns the region description suitable for logging.
func (r Region) Summary() []any {
	return []any{
		"latIdx", []int{r.SouthWest.Lat, r.NorthEast.Lat},
		"lonIdx", []int{r.SouthWest.Lon, r.NorthEast.Lon},
		"latDeg", []float64{LatDegrees(r.SouthWest.Lat), LatDegrees(r.NorthEast.Lat)},
		"lonDeg", []float64{LonDegrees(r.SouthWest.Lon), LonDegrees(r.NorthEast.Lon)},
	}
}
