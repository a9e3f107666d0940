package matrix

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/1996-tech/MERRA-2-Weather-Data/internal/merra2"
	"github.com/1996-tech/MERRA-2-Weather-Data/internal/observability"
)

// ReadFunc reads every reading of variable from one daily file over the grid
// given by la and lo.
type ReadFunc func(path, variable string, la, lo []float64) ([]merra2.Reading, error)

// ReadDailyFile is the ReadFunc backed by the NetCDF scanner.
func ReadDailyFile(path, variable string, la, lo []float64) ([]merra2.Reading, error) {
	s, err := merra2.NewScanner(path, variable, la, lo)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.ScanAll()
}

// Stats describes the outcome of a build.
type Stats struct {
	Files          int
	Parsed         int
	Skipped        []*FileError
	Readings       int
	ColumnsDropped int
}

// Builder turns a batch of daily files into a Matrix.
type Builder struct {
	read        ReadFunc
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
	concurrency int
}

// NewBuilder creates a Builder parsing up to concurrency files at once.
func NewBuilder(read ReadFunc, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock, concurrency int) *Builder {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Builder{
		read:        read,
		logger:      logger,
		metrics:     metrics,
		clock:       clock,
		concurrency: concurrency,
	}
}

// fileResult is the outcome of parsing one file: readings or the reason the
// file is skipped.
type fileResult struct {
	path     string
	readings []merra2.Reading
	err      *FileError
}

// BuildDir discovers the daily files of year in dir and builds a Matrix of
// variable from them.
func (b *Builder) BuildDir(ctx context.Context, dir string, year int, la, lo []float64, variable string) (*Matrix, Stats, error) {
	files, err := DiscoverFiles(dir, year)
	if err != nil {
		return nil, Stats{}, err
	}
	return b.Build(ctx, files, la, lo, variable)
}

// Build parses files and pivots their readings of variable into a Matrix.
// Files that fail to parse are logged and skipped. If no readings survive,
// Build returns ErrEmptyResult.
func (b *Builder) Build(ctx context.Context, files []string, la, lo []float64, variable string) (*Matrix, Stats, error) {
	if len(files) == 0 {
		return nil, Stats{}, ErrNoFiles
	}
	start := b.clock.Now()

	results, err := b.parseAll(ctx, files, la, lo, variable)
	if err != nil {
		return nil, Stats{}, err
	}

	stats := Stats{Files: len(files)}
	total := 0
	for _, r := range results {
		total += len(r.readings)
	}
	arena := make([]merra2.Reading, 0, total)
	for _, r := range results {
		if r.err != nil {
			b.logger.Warn("parse failed, skipping file",
				"path", r.path,
				"variable", variable,
				"error", r.err.Err,
			)
			b.metrics.FilesSkipped.Inc()
			stats.Skipped = append(stats.Skipped, r.err)
			continue
		}
		stats.Parsed++
		arena = append(arena, r.readings...)
	}
	stats.Readings = len(arena)
	b.metrics.FilesParsed.Add(float64(stats.Parsed))
	b.metrics.Readings.Add(float64(stats.Readings))

	if len(arena) == 0 {
		return nil, stats, fmt.Errorf("%s: %w", variable, ErrEmptyResult)
	}

	m, dropped := Pivot(arena)
	stats.ColumnsDropped = dropped
	if dropped > 0 {
		b.logger.Warn("dropped incomplete columns", "variable", variable, "count", dropped)
		b.metrics.ColumnsDropped.Add(float64(dropped))
	}
	if len(m.Columns) == 0 {
		return nil, stats, fmt.Errorf("%s: every column is incomplete: %w", variable, ErrEmptyResult)
	}

	b.metrics.BuildDuration.Observe(b.clock.Since(start).Seconds())
	b.logger.Info("matrix built",
		"variable", variable,
		"rows", len(m.Rows),
		"columns", len(m.Columns),
		"files", stats.Files,
		"skipped", len(stats.Skipped),
	)
	return m, stats, nil
}

// parseAll parses files on a bounded pool of workers. Results keep the order
// of files so the pivot does not depend on scheduling.
func (b *Builder) parseAll(ctx context.Context, files []string, la, lo []float64, variable string) ([]fileResult, error) {
	results := make([]fileResult, len(files))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range min(b.concurrency, len(files)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = b.parseFile(files[i], la, lo, variable)
			}
		}()
	}

feed:
	for i := range files {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (b *Builder) parseFile(path string, la, lo []float64, variable string) (res fileResult) {
	res.path = path
	// Corrupt files must not abort the batch, including ones that make the
	// reader panic.
	defer func() {
		if p := recover(); p != nil {
			res.readings = nil
			res.err = &FileError{Path: path, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	recs, err := b.read(path, variable, la, lo)
	if err != nil {
		res.err = &FileError{Path: path, Err: err}
		return res
	}
	b.logger.Debug("file parsed", "path", path, "variable", variable, "readings", len(recs))
	res.readings = recs
	return res
}
