// Package auctionml predicts diamond auction outcomes and explores what drives
// them.
//
// It trains a value model (final price) and, when the dataset records whether
// a lot sold, a companion probability model. Both come in two families behind
// one interface: ridge regression over standardized and one-hot encoded
// features, and a bagged forest of regression trees.
//
// # Packages
//
//   - dataset: schema, rows, records and the Source interface
//   - preprocessing: the feature encoder
//   - linalg, linear: Gauss-Jordan solver and ridge regression
//   - ensemble: bagged regression trees
//   - uncertainty: residual-based prediction intervals
//   - explain: coefficient and permutation importance
//   - surface: two-feature response grids
//   - optimize: random-search optimizer over the feature space
//   - engine: the trainer, the single-flight artifact store and the query service
//   - source: CSV loading from a directory, Google Cloud Storage or memory
//   - api, cmd/auctionml: HTTP server and command line
//
// # Quick Start
//
//	mem := source.NewMemory()
//	mem.Put("spring", rows)
//
//	cfg := engine.DefaultConfig()
//	store := engine.NewStore(mem, engine.NewTrainer(dataset.DiamondAuction(), cfg))
//	svc := engine.NewService(store, cfg)
//
//	pred, err := svc.Predict(ctx, "spring", engine.Linear, dataset.Record{
//	    Numeric:     map[string]float64{"carat": 1.5, "viewings": 12, "price_index": 1.0},
//	    Categorical: map[string]string{"color": "G", "clarity": "VS1"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%.0f (%.0f to %.0f)\n", pred.Value, pred.Lower, pred.Upper)
//
// # Error Handling
//
// Errors are built on github.com/cockroachdb/errors and carry stack traces.
// Caller mistakes (unknown fields, model kinds, objectives or metrics) are
// *errors.ValidationError or *errors.SchemaError; errors.IsInputError groups
// them. Rows failing data-quality checks are dropped with a warning rather than
// failing the whole dataset.
package auctionml
