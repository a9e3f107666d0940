package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [VARIABLE...]",
		Short: "Send hourly matrices written by build to VictoriaMetrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.VMInsertURL == "" {
				return errors.New("VM_INSERT_URL is not set")
			}
			variables := args
			if len(variables) == 0 {
				variables = a.cfg.Variables
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			for _, v := range variables {
				n, err := p.ExportFromCSV(cmd.Context(), v)
				if err != nil {
					return err
				}
				a.logger.Info("exported", "variable", v, "samples", n)
			}
			return nil
		},
	}
}
