package pipeline

import (
	"fmt"

	"github.com/1996-tech/MERRA-2-Weather-Data/internal/humidity"
	"github.com/1996-tech/MERRA-2-Weather-Data/internal/matrix"
)

// relativeHumidity converts surface pressure from Pa to atm and combines the
// three inputs cell by cell.
func relativeHumidity(q, t, ps *matrix.Matrix) (*matrix.Matrix, error) {
	atm := ps.Map(func(v float64) float64 { return v / humidity.PaPerAtm })
	rh, err := humidity.Matrix(q, t, atm)
	if err != nil {
		return nil, fmt.Errorf("relative humidity: %w", err)
	}
	return rh, nil
}
