package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/1996-tech/MERRA-2-Weather-Data/internal/config"
	"github.com/1996-tech/MERRA-2-Weather-Data/internal/matrix"
	"github.com/1996-tech/MERRA-2-Weather-Data/internal/observability"
	"github.com/1996-tech/MERRA-2-Weather-Data/internal/pipeline"
	"github.com/1996-tech/MERRA-2-Weather-Data/internal/vm"
)

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	year    int
}

var registerMetrics = sync.OnceValue(observability.NewMetrics)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line in args and reports a failure on stderr.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		slog.New(slog.NewTextHandler(stderr, nil)).Error("command failed", "err", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "merra2",
		Short:         "Build location by time matrices from MERRA-2 daily files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().IntVar(&a.year, "year", 0, "year to process, overrides MERRA2_YEAR")

	root.AddCommand(
		newLocateCmd(a),
		newBuildCmd(a),
		newHumidityCmd(a),
		newExportCmd(a),
		newRunCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("year") {
		cfg.Year = a.year
	}
	a.cfg = cfg
	a.logger = observability.NewLogger(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	a.metrics = registerMetrics()
	return nil
}

func (a *app) pipeline() (*pipeline.Pipeline, error) {
	clock := clockwork.NewRealClock()
	builder := matrix.NewBuilder(matrix.ReadDailyFile, a.logger, a.metrics, clock, a.cfg.Concurrency)

	var exporter pipeline.Exporter
	if a.cfg.VMInsertURL != "" {
		c, err := vm.NewClient(a.logger, a.cfg.VMInsertURL, a.cfg.VMConcurrency, a.cfg.VMMetricPrefix)
		if err != nil {
			return nil, fmt.Errorf("victoriametrics client: %w", err)
		}
		exporter = c
		a.logger.Info("export enabled", "url", a.cfg.VMInsertURL)
	}
	return pipeline.New(a.cfg, builder, exporter, a.logger, a.metrics, clock), nil
}
