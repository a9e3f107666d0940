package main

import (
	"github.com/spf13/cobra"
)

func newHumidityCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "humidity",
		Short: "Derive relative humidity from the daily QV2M, T2M and PS matrices",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			outputs, err := p.HumidityFromCSV()
			if err != nil {
				return err
			}
			a.logger.Info("relative humidity written", "outputs", outputs)
			return nil
		},
	}
}
