package pipeline

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Schedule runs the pipeline once, then on every activation of the standard
// five-field cron expression spec until ctx is cancelled. A run still in
// progress when the next one is due causes that activation to be skipped.
func (p *Pipeline) Schedule(ctx context.Context, spec string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() { p.runLogged(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}

	p.runLogged(ctx)
	c.Start()
	p.logger.Info("scheduler started", "schedule", spec)

	<-ctx.Done()
	<-c.Stop().Done()
	p.logger.Info("scheduler stopped")
	return nil
}

func (p *Pipeline) runLogged(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	report, err := p.Run(ctx)
	if err != nil {
		p.logger.Error("run failed", "err", err, "duration", report.Duration)
		return
	}
	for _, v := range report.Variables {
		p.logger.Info("variable processed",
			"variable", v.Variable,
			"files", v.Files,
			"skipped", v.Skipped,
			"rows", v.Rows,
			"columns", v.Columns,
		)
	}
}
