package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/1996-tech/MERRA-2-Weather-Data/internal/merra2"
)

func newLocateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "locate [LAT LON]",
		Short: "Print grid indices of a coordinate, or the subset of the configured box",
		Args:  coordinateArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 2 {
				c, err := parseCoordinate(args[0], args[1])
				if err != nil {
					return err
				}
				gp, err := merra2.Locate(c, merra2.LatAxis(), merra2.LonAxis())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "lat=%d lon=%d (%.3f, %.3f)\n", gp.Lat, gp.Lon,
					merra2.LatDegrees(gp.Lat), merra2.LonDegrees(gp.Lon))
				return nil
			}

			region, err := merra2.LocateBox(a.cfg.Box, merra2.LatAxis(), merra2.LonAxis())
			if err != nil {
				return err
			}
			a.logger.Info("region located", region.Summary()...)
			for _, v := range a.cfg.Variables {
				fmt.Fprintln(out, region.Subset(v))
			}
			return nil
		},
	}
}

func coordinateArgs(_ *cobra.Command, args []string) error {
	if len(args) != 0 && len(args) != 2 {
		return fmt.Errorf("need both LAT and LON, got %d args", len(args))
	}
	return nil
}

func parseCoordinate(lat, lon string) (merra2.Coordinate, error) {
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return merra2.Coordinate{}, fmt.Errorf("invalid latitude %q: %w", lat, err)
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return merra2.Coordinate{}, fmt.Errorf("invalid longitude %q: %w", lon, err)
	}
	return merra2.Coordinate{Lat: la, Lon: lo}, nil
}
