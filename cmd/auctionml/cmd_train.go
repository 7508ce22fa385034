package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/auctionml/engine"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
)

var (
	trainOut string

	trainCmd = &cobra.Command{
		Use:   "train <dataset>",
		Short: "Train a model and print its evaluation",
		Long: `Train a model on <dataset> and print the hold-out evaluation.

With --out ending in .gob, the encoder and both models are written as a
bundle that "predict --bundle" can load without the dataset. Any other
extension writes linear models as JSON weights keyed by encoded feature name.`,
		Args: cobra.ExactArgs(1),
		RunE: runTrain,
	}
)

func init() {
	trainCmd.Flags().StringVarP(&trainOut, "out", "o", "", "write the trained model to this file")
}

func runTrain(cmd *cobra.Command, args []string) error {
	k, err := kind()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, id := cmd.Context(), args[0]
	ev, err := a.svc.Evaluate(ctx, id, k)
	if err != nil {
		return err
	}
	if err := writeJSON(cmd.OutOrStdout(), ev); err != nil {
		return err
	}
	if trainOut == "" {
		return nil
	}

	if strings.ToLower(filepath.Ext(trainOut)) == ".gob" {
		art, err := a.svc.Artifact(ctx, id, k)
		if err != nil {
			return err
		}
		return engine.SaveBundle(art, trainOut)
	}
	if k != engine.Linear {
		return errors.NewValidationError("out", "ensemble models are saved as .gob bundles", trainOut)
	}
	w, err := a.svc.Weights(ctx, id)
	if err != nil {
		return err
	}
	data, err := w.ToJSON()
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(trainOut, data, 0o644), "write %s", trainOut)
}
