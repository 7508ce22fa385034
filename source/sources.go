package source

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/YuminosukeSato/auctionml/dataset"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
	"github.com/YuminosukeSato/auctionml/pkg/log"
)

// checkID rejects identifiers that could escape the dataset location.
func checkID(datasetID string) error {
	if datasetID == "" || datasetID == "." || datasetID == ".." ||
		strings.ContainsAny(datasetID, `/\`) {
		return errors.NewValidationError("dataset_id", "invalid dataset identifier", datasetID)
	}
	return nil
}

// Memory serves datasets held in memory.
type Memory struct {
	mu       sync.RWMutex
	datasets map[string][]dataset.Row
}

// NewMemory creates an empty in-memory source.
func NewMemory() *Memory {
	return &Memory{datasets: make(map[string][]dataset.Row)}
}

// Put stores rows under datasetID, replacing any previous rows.
func (m *Memory) Put(datasetID string, rows []dataset.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasets[datasetID] = rows
}

// Rows implements dataset.Source.
func (m *Memory) Rows(ctx context.Context, datasetID string) ([]dataset.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows, ok := m.datasets[datasetID]
	if !ok {
		return nil, errors.Wrapf(errors.ErrDatasetNotFound, "dataset %q", datasetID)
	}
	return rows, nil
}

// Dir reads <Root>/<datasetID>.csv.
type Dir struct {
	Root   string
	Schema dataset.Schema
}

// NewDir creates a directory source.
func NewDir(root string, schema dataset.Schema) *Dir {
	return &Dir{Root: root, Schema: schema}
}

// Rows implements dataset.Source.
func (d *Dir) Rows(ctx context.Context, datasetID string) ([]dataset.Row, error) {
	if err := checkID(datasetID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := filepath.Join(d.Root, datasetID+".csv")
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(errors.ErrDatasetNotFound, "dataset %q", datasetID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", p)
	}
	defer f.Close()
	return ParseCSV(d.Schema, f)
}

// GCS reads gs://<bucket>/<prefix>/<datasetID>.csv.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
	schema dataset.Schema
	logger log.Logger
}

// NewGCS opens a storage client. Without a credentials file the client uses
// application default credentials.
func NewGCS(ctx context.Context, bucket, prefix, credentialsFile string, schema dataset.Schema) (*GCS, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); err != nil {
			return nil, errors.Wrapf(err, "service account key %s", credentialsFile)
		}
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create GCS storage client")
	}
	return &GCS{
		client: client,
		bucket: bucket,
		prefix: prefix,
		schema: schema,
		logger: log.GetLoggerWithName("source.gcs"),
	}, nil
}

// ObjectName returns the object path for datasetID.
func (g *GCS) ObjectName(datasetID string) string {
	return objectName(g.prefix, datasetID)
}

func objectName(prefix, datasetID string) string {
	return path.Join(strings.Trim(prefix, "/"), datasetID+".csv")
}

// Rows implements dataset.Source.
func (g *GCS) Rows(ctx context.Context, datasetID string) ([]dataset.Row, error) {
	if err := checkID(datasetID); err != nil {
		return nil, err
	}
	name := g.ObjectName(datasetID)
	r, err := g.client.Bucket(g.bucket).Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, errors.Wrapf(errors.ErrDatasetNotFound, "gs://%s/%s", g.bucket, name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open gs://%s/%s", g.bucket, name)
	}
	defer r.Close()

	g.logger.Debug("Loading dataset", log.DatasetIDKey, datasetID, "object", name, "bytes", r.Attrs.Size)
	return ParseCSV(g.schema, r)
}

// Close releases the storage client.
func (g *GCS) Close() error {
	return g.client.Close()
}
