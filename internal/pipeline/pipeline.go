package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/1996-tech/MERRA-2-Weather-Data/internal/aggregate"
	"github.com/1996-tech/MERRA-2-Weather-Data/internal/config"
	"github.com/1996-tech/MERRA-2-Weather-Data/internal/matrix"
	"github.com/1996-tech/MERRA-2-Weather-Data/internal/merra2"
	"github.com/1996-tech/MERRA-2-Weather-Data/internal/observability"
	"github.com/1996-tech/MERRA-2-Weather-Data/internal/vm"
)

// Variables relative humidity is derived from.
const (
	SpecificHumidity = "QV2M"
	Temperature      = "T2M"
	SurfacePressure  = "PS"

	// RelativeHumidity names the derived outputs.
	RelativeHumidity = "RH"
)

// Exporter sends samples of a variable to a time series database.
type Exporter interface {
	Insert(ctx context.Context, variable string, samples []vm.Sample) error
}

// VariableReport describes the processing of one variable.
type VariableReport struct {
	Variable       string   `json:"variable"`
	Files          int      `json:"files"`
	Parsed         int      `json:"parsed"`
	Skipped        int      `json:"skipped"`
	Rows           int      `json:"rows"`
	Columns        int      `json:"columns"`
	ColumnsDropped int      `json:"columns_dropped"`
	Outputs        []string `json:"outputs"`
}

// Report describes one pipeline run.
type Report struct {
	StartedAt time.Time        `json:"started_at"`
	Duration  time.Duration    `json:"duration_ns"`
	Region    merra2.Region    `json:"region"`
	Variables []VariableReport `json:"variables"`
	Humidity  []string         `json:"humidity,omitempty"`
}

// Pipeline turns a directory of daily files into CSV matrices and averages.
type Pipeline struct {
	cfg      *config.Config
	builder  *matrix.Builder
	exporter Exporter
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	ready    atomic.Bool

	mu   sync.Mutex
	last *Report
}

// New creates a Pipeline. Pass a nil exporter to disable exports.
func New(cfg *config.Config, builder *matrix.Builder, exporter Exporter, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		builder:  builder,
		exporter: exporter,
		logger:   logger,
		metrics:  metrics,
		clock:    clock,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastReport returns the report of the latest successful run.
func (p *Pipeline) LastReport() (Report, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return Report{}, false
	}
	return *p.last, true
}

// Region snaps the configured bounding box onto the MERRA-2 grid.
func (p *Pipeline) Region() (merra2.Region, error) {
	return merra2.LocateBox(p.cfg.Box, merra2.LatAxis(), merra2.LonAxis())
}

// Run processes every configured variable, then relative humidity when its
// inputs are among them.
func (p *Pipeline) Run(ctx context.Context) (report Report, err error) {
	start := p.clock.Now()
	report.StartedAt = start
	defer func() {
		report.Duration = p.clock.Since(start)
		if err != nil {
			p.metrics.Runs.WithLabelValues("failure").Inc()
			return
		}
		p.metrics.Runs.WithLabelValues("success").Inc()
		p.metrics.LastRunSuccess.Set(float64(p.clock.Now().Unix()))
		p.mu.Lock()
		p.last = &report
		p.mu.Unlock()
		p.ready.Store(true)
	}()

	region, err := p.Region()
	if err != nil {
		return report, err
	}
	report.Region = region
	p.logger.Info("region located", region.Summary()...)

	files, err := matrix.DiscoverFiles(p.cfg.DataDir, p.cfg.Year)
	if err != nil {
		return report, err
	}
	p.logger.Info("daily files found", "dir", p.cfg.DataDir, "count", len(files))

	la, lo := region.Latitudes(), region.Longitudes()
	daily := make(map[string]*matrix.Matrix, len(p.cfg.Variables))
	for _, v := range p.cfg.Variables {
		vr, res, err := p.ProcessVariable(ctx, files, la, lo, v)
		if err != nil {
			return report, err
		}
		report.Variables = append(report.Variables, vr)
		daily[v] = res.Daily
	}

	if p.cfg.HasVariable(SpecificHumidity) && p.cfg.HasVariable(Temperature) && p.cfg.HasVariable(SurfacePressure) {
		q, t, ps := daily[SpecificHumidity], daily[Temperature], daily[SurfacePressure]
		if report.Humidity, err = p.Humidity(q, t, ps); err != nil {
			return report, err
		}
	}

	p.logger.Info("run complete", "variables", len(report.Variables), "duration", p.clock.Since(start).Round(time.Millisecond))
	return report, nil
}

// ProcessVariable builds the hourly matrix of variable from files, writes it
// with its daily, monthly and annual means, and exports it when an exporter
// is configured.
func (p *Pipeline) ProcessVariable(ctx context.Context, files []string, la, lo []float64, variable string) (VariableReport, aggregate.Result, error) {
	vr := VariableReport{Variable: variable}

	m, stats, err := p.builder.Build(ctx, files, la, lo, variable)
	if err != nil {
		return vr, aggregate.Result{}, fmt.Errorf("build %s: %w", variable, err)
	}
	vr.Files, vr.Parsed, vr.Skipped = stats.Files, stats.Parsed, len(stats.Skipped)
	vr.Rows, vr.Columns, vr.ColumnsDropped = len(m.Rows), len(m.Columns), stats.ColumnsDropped

	res, err := aggregate.Aggregate(m)
	if err != nil {
		return vr, aggregate.Result{}, fmt.Errorf("aggregate %s: %w", variable, err)
	}

	vr.Outputs, err = p.write(variable, m, res.Daily, res.Monthly, res.Annual)
	if err != nil {
		return vr, aggregate.Result{}, err
	}

	if p.exporter != nil {
		if err := p.export(ctx, variable, m); err != nil {
			return vr, aggregate.Result{}, fmt.Errorf("export %s: %w", variable, err)
		}
	}
	return vr, res, nil
}

// Humidity derives relative humidity from daily specific humidity,
// temperature in K and surface pressure in Pa, and writes its daily,
// monthly and annual matrices.
func (p *Pipeline) Humidity(q, t, ps *matrix.Matrix) ([]string, error) {
	rh, err := relativeHumidity(q, t, ps)
	if err != nil {
		return nil, err
	}
	monthly, err := aggregate.Monthly(rh)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", RelativeHumidity, err)
	}
	annual, err := aggregate.Annual(rh)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", RelativeHumidity, err)
	}
	p.logger.Info("relative humidity derived", "rows", len(rh.Rows), "columns", len(rh.Columns))
	return p.write(RelativeHumidity, rh, monthly, annual)
}

// HumidityFromCSV derives relative humidity from the hourly matrices written
// by earlier runs. Daily means are recomputed from the hourly values, which
// keep full precision, rather than read back from the rounded daily files.
func (p *Pipeline) HumidityFromCSV() ([]string, error) {
	var inputs [3]*matrix.Matrix
	for i, v := range []string{SpecificHumidity, Temperature, SurfacePressure} {
		hourly, err := matrix.ReadCSVFile(p.OutputPath(v, matrix.Hourly))
		if err != nil {
			return nil, err
		}
		if inputs[i], err = aggregate.Daily(hourly); err != nil {
			return nil, fmt.Errorf("aggregate %s: %w", v, err)
		}
	}
	return p.Humidity(inputs[0], inputs[1], inputs[2])
}

// OutputPath returns where the matrix of name for period is written.
func (p *Pipeline) OutputPath(name string, period matrix.Period) string {
	year := "all"
	if p.cfg.Year != 0 {
		year = strconv.Itoa(p.cfg.Year)
	}
	return filepath.Join(p.cfg.OutDir, fmt.Sprintf("%s_%s_%s.csv", name, year, period))
}

func (p *Pipeline) write(name string, ms ...*matrix.Matrix) ([]string, error) {
	paths := make([]string, 0, len(ms))
	for _, m := range ms {
		path := p.OutputPath(name, m.Period)
		if err := matrix.WriteCSVFile(path, m); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		p.logger.Debug("matrix written", "path", path, "rows", len(m.Rows), "columns", len(m.Columns))
		paths = append(paths, path)
	}
	return paths, nil
}
