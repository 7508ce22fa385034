package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/YuminosukeSato/auctionml/config"
	"github.com/YuminosukeSato/auctionml/dataset"
	"github.com/YuminosukeSato/auctionml/engine"
	"github.com/YuminosukeSato/auctionml/pkg/log"
	"github.com/YuminosukeSato/auctionml/source"
)

// app bundles what every subcommand needs.
type app struct {
	cfg     config.Config
	svc     *engine.Service
	schema  dataset.Schema
	closeFn func() error
}

func (a *app) Close() error {
	if a.closeFn == nil {
		return nil
	}
	return a.closeFn()
}

// newApp loads configuration and wires the data source, store and service.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel == "" {
		level, err := log.ParseLevel(cfg.Server.LogLevel)
		if err != nil {
			return nil, err
		}
		log.SetLevel(level)
	}
	ec, err := cfg.Engine()
	if err != nil {
		return nil, err
	}
	schema := cfg.Schema()

	a := &app{cfg: cfg, schema: schema}
	var src dataset.Source
	if cfg.Data.GCSBucket != "" {
		gcs, err := source.NewGCS(ctx, cfg.Data.GCSBucket, cfg.Data.GCSPrefix, cfg.Data.CredentialsFile, schema)
		if err != nil {
			return nil, err
		}
		src, a.closeFn = gcs, gcs.Close
	} else {
		src = source.NewDir(cfg.Data.Dir, schema)
	}

	store := engine.NewStore(src, engine.NewTrainer(schema, ec))
	a.svc = engine.NewService(store, ec)
	return a, nil
}

func kind() (engine.ModelKind, error) {
	return engine.ParseModelKind(modelName)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
