package merra2

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const fileDateLayout = "20060102"

var fileDateRE = regexp.MustCompile(`^\d{8}$`)

// ParseFileDate extracts the day a daily file covers from its name. The date
// is the second-to-last dot separated segment, e.g.
// "MERRA2_400.tavg1_2d_slv_Nx.20200101.nc4".
func ParseFileDate(path string) (time.Time, error) {
	name := filepath.Base(path)
	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("file name %q has no date segment", name)
	}
	token := parts[len(parts)-2]
	if !fileDateRE.MatchString(token) {
		return time.Time{}, fmt.Errorf("file name %q: segment %q is not a YYYYMMDD date", name, token)
	}
	d, err := time.ParseInLocation(fileDateLayout, token, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("file name %q: %w", name, err)
	}
	return d, nil
}
