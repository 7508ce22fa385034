package main

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/auctionml/plot"
	"github.com/YuminosukeSato/auctionml/surface"
)

var (
	surfaceMetric     string
	surfaceResolution int
	surfaceFixed      map[string]string
	surfacePNG        string

	surfaceCmd = &cobra.Command{
		Use:   "surface <dataset> <var-x> <var-y>",
		Short: "Evaluate a metric over a grid of two numeric features",
		Args:  cobra.ExactArgs(3),
		RunE:  runSurface,
	}
)

func init() {
	surfaceCmd.Flags().StringVar(&surfaceMetric, "metric", string(surface.MetricValue), "value, probability or expected_value")
	surfaceCmd.Flags().IntVar(&surfaceResolution, "resolution", 25, "grid points per axis")
	surfaceCmd.Flags().StringToStringVar(&surfaceFixed, "fix", nil, "categorical levels as name=level pairs")
	surfaceCmd.Flags().StringVar(&surfacePNG, "png", "", "also render the grid as a PNG heat map")
}

func runSurface(cmd *cobra.Command, args []string) error {
	k, err := kind()
	if err != nil {
		return err
	}
	metric, err := surface.ParseMetric(surfaceMetric)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	grid, err := a.svc.Surface(cmd.Context(), args[0], k, surface.Request{
		VarX:       args[1],
		VarY:       args[2],
		Metric:     metric,
		Resolution: surfaceResolution,
		Fixed:      surfaceFixed,
	})
	if err != nil {
		return err
	}
	if surfacePNG != "" {
		if err := plot.SavePNG(surfacePNG, grid); err != nil {
			return err
		}
	}
	return writeJSON(cmd.OutOrStdout(), grid)
}
