package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/auctionml/config"
	"github.com/YuminosukeSato/auctionml/dataset"
	"github.com/YuminosukeSato/auctionml/engine"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
	"github.com/YuminosukeSato/auctionml/source"
)

var (
	predictNumeric     map[string]string
	predictCategorical map[string]string
	predictCSV         string
	predictBundle      string

	predictCmd = &cobra.Command{
		Use:   "predict <dataset>",
		Short: "Predict the final price of one lot or a CSV of lots",
		Example: `  auctionml predict spring --num carat=1.5,viewings=12,price_index=1.0 --cat color=G,clarity=VS1
  auctionml predict spring --model ensemble --csv upcoming.csv
  auctionml predict --bundle forest.gob --csv upcoming.csv`,
		Args: cobra.RangeArgs(0, 1),
		RunE: runPredict,
	}
)

func init() {
	predictCmd.Flags().StringToStringVar(&predictNumeric, "num", nil, "numeric features as name=value pairs")
	predictCmd.Flags().StringToStringVar(&predictCategorical, "cat", nil, "categorical features as name=level pairs")
	predictCmd.Flags().StringVar(&predictCSV, "csv", "", "CSV file of lots to predict")
	predictCmd.Flags().StringVar(&predictBundle, "bundle", "", "predict from a .gob bundle written by train instead of a dataset")
}

type predictFunc func(dataset.Record) (engine.Prediction, error)

// predictor resolves where predictions come from: a saved bundle or a
// dataset trained on demand.
func predictor(cmd *cobra.Command, args []string) (predictFunc, dataset.Schema, func() error, error) {
	noop := func() error { return nil }
	if predictBundle != "" {
		if len(args) > 0 {
			return nil, dataset.Schema{}, noop, errors.NewValidationError("dataset", "not used with --bundle", args[0])
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, dataset.Schema{}, noop, err
		}
		ec, err := cfg.Engine()
		if err != nil {
			return nil, dataset.Schema{}, noop, err
		}
		art, err := engine.LoadBundle(predictBundle)
		if err != nil {
			return nil, dataset.Schema{}, noop, err
		}
		return func(r dataset.Record) (engine.Prediction, error) {
			return art.PredictInterval(r, ec.Confidence)
		}, art.Encoder.Schema, noop, nil
	}

	if len(args) != 1 {
		return nil, dataset.Schema{}, noop, errors.NewValidationError("dataset", "required unless --bundle is set", "")
	}
	k, err := kind()
	if err != nil {
		return nil, dataset.Schema{}, noop, err
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return nil, dataset.Schema{}, noop, err
	}
	return func(r dataset.Record) (engine.Prediction, error) {
		return a.svc.Predict(cmd.Context(), args[0], k, r)
	}, a.schema, a.Close, nil
}

func runPredict(cmd *cobra.Command, args []string) error {
	predict, schema, closeFn, err := predictor(cmd, args)
	if err != nil {
		return err
	}
	defer closeFn()

	if predictCSV == "" {
		numeric, err := parseNumeric(predictNumeric)
		if err != nil {
			return err
		}
		p, err := predict(dataset.Record{Numeric: numeric, Categorical: predictCategorical})
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), p)
	}

	f, err := os.Open(predictCSV)
	if err != nil {
		return errors.Wrapf(err, "open %s", predictCSV)
	}
	defer f.Close()
	records, err := source.ParseRecords(schema, f)
	if err != nil {
		return err
	}

	preds := make([]lotPrediction, 0, len(records))
	for i, r := range records {
		p, err := predict(r)
		if err != nil {
			return errors.Wrapf(err, "lot %d", i+1)
		}
		preds = append(preds, lotPrediction{Lot: i + 1, Input: r, Prediction: p})
	}
	return writeJSON(cmd.OutOrStdout(), preds)
}

// lotPrediction echoes one CSV lot with its prediction. Lot is the 1-based
// data line, header excluded.
type lotPrediction struct {
	Lot   int            `json:"lot"`
	Input dataset.Record `json:"input"`
	engine.Prediction
}

func parseNumeric(pairs map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for name, raw := range pairs {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, errors.NewValidationError(name, "not a number", raw)
		}
		out[name] = v
	}
	return out, nil
}
