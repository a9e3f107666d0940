package merra2

import "time"

// Reading is a single value of one variable taken at a given grid location at
// a given time.
type Reading struct {
	Timestamp time.Time
	Latitude  float64
	Longitude float64
	Value     float64
}
