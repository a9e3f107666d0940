package matrix

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/1996-tech/MERRA-2-Weather-Data/internal/merra2"
)

// DiscoverFiles lists the daily files in dir, sorted by date. A non-zero year
// keeps only files of that year.
func DiscoverFiles(dir string, year int) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrSourceDir, dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	type dated struct {
		path string
		date time.Time
	}
	var found []dated
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		d, err := merra2.ParseFileDate(e.Name())
		if err != nil {
			continue
		}
		if year != 0 && d.Year() != year {
			continue
		}
		found = append(found, dated{path: filepath.Join(dir, e.Name()), date: d})
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFiles, dir)
	}

	slices.SortFunc(found, func(a, b dated) int {
		if c := a.date.Compare(b.date); c != 0 {
			return c
		}
		return cmp.Compare(a.path, b.path)
	})
	paths := make([]string, len(found))
	for i, f := range found {
		paths[i] = f.path
	}
	return paths, nil
}
