package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1996-tech/MERRA-2-Weather-Data/internal/matrix"
	"github.com/1996-tech/MERRA-2-Weather-Data/internal/merra2"
)

func newBuildCmd(a *app) *cobra.Command {
	var probe string
	cmd := &cobra.Command{
		Use:   "build [VARIABLE...]",
		Short: "Build hourly, daily, monthly and annual matrices for each variable",
		RunE: func(cmd *cobra.Command, args []string) error {
			variables := args
			if len(variables) == 0 {
				variables = a.cfg.Variables
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}

			var la, lo []float64
			if probe != "" {
				if la, lo, err = merra2.ProbeAxes(probe); err != nil {
					return err
				}
				a.logger.Info("axes read from file", "path", probe, "lat", len(la), "lon", len(lo))
			} else {
				region, err := p.Region()
				if err != nil {
					return err
				}
				a.logger.Info("region located", region.Summary()...)
				la, lo = region.Latitudes(), region.Longitudes()
			}

			files, err := matrix.DiscoverFiles(a.cfg.DataDir, a.cfg.Year)
			if err != nil {
				return err
			}
			for _, v := range variables {
				vr, _, err := p.ProcessVariable(cmd.Context(), files, la, lo, v)
				if err != nil {
					return fmt.Errorf("build %s: %w", v, err)
				}
				a.logger.Info("variable processed",
					"variable", vr.Variable,
					"files", vr.Files,
					"skipped", vr.Skipped,
					"rows", vr.Rows,
					"columns", vr.Columns,
					"outputs", vr.Outputs,
				)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&probe, "probe", "", "take the lat/lon axes from this already subset file instead of the configured box")
	return cmd
}
