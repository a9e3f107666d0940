package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/1996-tech/MERRA-2-Weather-Data/internal/httpserver"
)

func newRunCmd(a *app) *cobra.Command {
	var schedule string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process every configured variable and relative humidity, once or on a schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("schedule") {
				a.cfg.Schedule = schedule
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if a.cfg.Schedule == "" {
				report, err := p.Run(ctx)
				if err != nil {
					return err
				}
				a.logger.Info("run complete", "variables", len(report.Variables), "humidity", report.Humidity)
				return nil
			}

			srv := httpserver.NewServer(a.cfg.HTTPAddr, p, prometheus.DefaultGatherer, a.logger)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.logger.Error("http server error", "err", err)
				}
			}()

			err = p.Schedule(ctx, a.cfg.Schedule)
			a.logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
			defer cancel()
			if serr := srv.Shutdown(shutdownCtx); serr != nil {
				a.logger.Error("http server shutdown error", "err", serr)
			}
			a.logger.Info("shutdown complete")
			return err
		},
	}
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron expression, overrides SCHEDULE")
	return cmd
}
