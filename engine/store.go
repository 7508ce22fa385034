package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/YuminosukeSato/auctionml/dataset"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
	"github.com/YuminosukeSato/auctionml/pkg/log"
)

type artifactKey struct {
	datasetID string
	kind      ModelKind
}

func (k artifactKey) String() string {
	return k.datasetID + "\x00" + string(k.kind)
}

// Store caches one artifact per (dataset, kind). Concurrent first lookups of a
// key share a single build; failed builds are not cached.
type Store struct {
	source  dataset.Source
	trainer *Trainer
	logger  log.Logger

	mu          sync.RWMutex
	artifacts   map[artifactKey]*Artifact
	generations map[string]uint64

	flight singleflight.Group
}

// NewStore creates an empty store that loads rows from source.
func NewStore(source dataset.Source, trainer *Trainer) *Store {
	return &Store{
		source:      source,
		trainer:     trainer,
		logger:      log.GetLoggerWithName("engine.store"),
		artifacts:   make(map[artifactKey]*Artifact),
		generations: make(map[string]uint64),
	}
}

// Get returns the cached artifact, training it on first use. Cancelling ctx
// abandons the wait but not a build other callers share.
func (s *Store) Get(ctx context.Context, datasetID string, kind ModelKind) (*Artifact, error) {
	key := artifactKey{datasetID: datasetID, kind: kind}
	if art, ok := s.lookup(key); ok {
		artifactLookups.WithLabelValues("hit").Inc()
		return art, nil
	}
	artifactLookups.WithLabelValues("miss").Inc()

	// the build outlives any single caller; each caller only stops waiting
	// when its own context ends
	buildCtx := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(key.String(), func() (interface{}, error) {
		// another caller may have finished between lookup and DoChan
		if art, ok := s.lookup(key); ok {
			return art, nil
		}
		return s.build(buildCtx, key)
	})
	select {
	case <-ctx.Done():
		return nil, errors.Wrapf(ctx.Err(), "waiting for dataset %q", datasetID)
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("Shared in-flight build", log.DatasetIDKey, datasetID, log.ModelKindKey, string(kind))
		}
		return res.Val.(*Artifact), nil
	}
}

func (s *Store) lookup(key artifactKey) (*Artifact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	art, ok := s.artifacts[key]
	return art, ok
}

func (s *Store) build(ctx context.Context, key artifactKey) (art *Artifact, err error) {
	start := time.Now()
	defer func() {
		trainingDuration.WithLabelValues(string(key.kind)).Observe(time.Since(start).Seconds())
		artifactBuilds.WithLabelValues(string(key.kind), statusLabel(err)).Inc()
	}()
	defer errors.Recover(&err, "engine.Store.build")

	s.mu.RLock()
	gen := s.generations[key.datasetID]
	s.mu.RUnlock()

	rows, err := s.source.Rows(ctx, key.datasetID)
	if err != nil {
		return nil, errors.Wrapf(err, "load dataset %q", key.datasetID)
	}
	art, err = s.trainer.Train(ctx, key.datasetID, key.kind, rows)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// an Invalidate during the build means the rows may be stale
	if s.generations[key.datasetID] == gen {
		s.artifacts[key] = art
	}
	return art, nil
}

// Invalidate drops every cached artifact of the dataset. The next Get retrains.
func (s *Store) Invalidate(datasetID string) {
	s.mu.Lock()
	for key := range s.artifacts {
		if key.datasetID == datasetID {
			delete(s.artifacts, key)
		}
	}
	s.generations[datasetID]++
	s.mu.Unlock()

	for _, kind := range []ModelKind{Linear, Ensemble} {
		s.flight.Forget(artifactKey{datasetID: datasetID, kind: kind}.String())
	}
	s.logger.Info("Invalidated dataset artifacts", log.DatasetIDKey, datasetID)
}

// Cached reports whether an artifact is present without training one.
func (s *Store) Cached(datasetID string, kind ModelKind) bool {
	_, ok := s.lookup(artifactKey{datasetID: datasetID, kind: kind})
	return ok
}
