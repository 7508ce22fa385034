package main

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/auctionml/optimize"
)

var (
	optObjective   string
	optSamples     int
	optMinProb     float64
	optTarget      float64
	optTargetProb  float64
	optFixed       map[string]string
	optValueWeight float64
	optProbWeight  float64

	optimizeCmd = &cobra.Command{
		Use:   "optimize <dataset>",
		Short: "Search for the lot attributes that best meet an objective",
		Args:  cobra.ExactArgs(1),
		RunE:  runOptimize,
	}
)

func init() {
	f := optimizeCmd.Flags()
	f.StringVar(&optObjective, "objective", string(optimize.MaxValue), "max_value, max_probability or match_target")
	f.IntVar(&optSamples, "samples", 1000, "number of random trials")
	f.Float64Var(&optMinProb, "min-prob", 0, "minimum sale probability for max_value")
	f.Float64Var(&optTarget, "target-value", 0, "target price for match_target")
	f.Float64Var(&optTargetProb, "target-prob", 0, "target sale probability for match_target")
	f.Float64Var(&optValueWeight, "value-weight", 1, "weight of the price term for match_target")
	f.Float64Var(&optProbWeight, "prob-weight", 1, "weight of the probability term for match_target")
	f.StringToStringVar(&optFixed, "fix", nil, "categorical levels as name=level pairs")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	k, err := kind()
	if err != nil {
		return err
	}
	objective, err := optimize.ParseObjective(optObjective)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	req := optimize.Request{
		Objective:         objective,
		NSamples:          optSamples,
		Fixed:             optFixed,
		MinProbability:    optMinProb,
		ValueWeight:       optValueWeight,
		ProbabilityWeight: optProbWeight,
	}
	if cmd.Flags().Changed("target-value") {
		req.TargetValue = &optTarget
	}
	if cmd.Flags().Changed("target-prob") {
		req.TargetProbability = &optTargetProb
	}
	res, err := a.svc.Optimize(cmd.Context(), args[0], k, req)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), res)
}
