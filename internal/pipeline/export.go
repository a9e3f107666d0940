package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/1996-tech/MERRA-2-Weather-Data/internal/matrix"
	"github.com/1996-tech/MERRA-2-Weather-Data/internal/vm"
)

// export sends every non-missing cell of m to the exporter in batches of
// VMRecsPerInsert samples, spread over VMConcurrency workers.
func (p *Pipeline) export(ctx context.Context, variable string, m *matrix.Matrix) error {
	samples := vm.Samples(m)
	if len(samples) == 0 {
		return nil
	}
	batchSize := max(p.cfg.VMRecsPerInsert, 1)
	workers := max(p.cfg.VMConcurrency, 1)

	batchCh := make(chan []vm.Sample)
	progressCh := make(chan int)
	errCh := make(chan error, workers)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var failed int
			for batch := range batchCh {
				if err := p.exporter.Insert(ctx, variable, batch); err != nil {
					p.logger.Error("insert failed", "variable", variable, "samples", len(batch), "err", err)
					p.metrics.InsertErrors.Inc()
					failed++
					continue
				}
				p.metrics.SamplesExported.Add(float64(len(batch)))
				progressCh <- len(batch)
			}
			if failed > 0 {
				errCh <- fmt.Errorf("%d batches of %s not inserted", failed, variable)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		var inserted float64
		total := float64(len(samples))
		start := p.clock.Now()
		for n := range progressCh {
			inserted += float64(n)
			percent := fmt.Sprintf("%.2f%%", 100*inserted/total)
			duration := p.clock.Since(start).Round(time.Second)
			p.logger.Info("progress", "variable", variable, "inserted", percent, "in", duration)
		}
	}()

feed:
	for begin := 0; begin < len(samples); begin += batchSize {
		limit := min(begin+batchSize, len(samples))
		select {
		case batchCh <- samples[begin:limit]:
		case <-ctx.Done():
			break feed
		}
	}
	close(batchCh)
	wg.Wait()
	close(progressCh)
	<-done
	close(errCh)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := <-errCh; ok {
		return err
	}
	return nil
}

// ExportFromCSV sends the hourly matrix of variable written by an earlier
// run to the exporter.
func (p *Pipeline) ExportFromCSV(ctx context.Context, variable string) (int, error) {
	if p.exporter == nil {
		return 0, errors.New("no exporter configured")
	}
	m, err := matrix.ReadCSVFile(p.OutputPath(variable, matrix.Hourly))
	if err != nil {
		return 0, err
	}
	n := len(vm.Samples(m))
	if err := p.export(ctx, variable, m); err != nil {
		return 0, fmt.Errorf("export %s: %w", variable, err)
	}
	return n, nil
}
