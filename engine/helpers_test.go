package engine

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/YuminosukeSato/auctionml/dataset"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
)

var (
	colors   = []string{"D", "E", "F", "G", "H"}
	clarity  = []string{"IF", "VS1", "VS2", "SI1"}
	colorAdj = map[string]float64{"D": 900, "E": 600, "F": 300, "G": 0, "H": -300}
)

// auctionRows generates lots whose price grows linearly with carat and whose
// sale outcome depends only on viewings.
func auctionRows(n int, seed uint64) []dataset.Row {
	rng := rand.New(rand.NewPCG(seed, 99))
	rows := make([]dataset.Row, n)
	for i := range rows {
		carat := 0.3 + 2.2*rng.Float64()
		viewings := float64(rng.IntN(51))
		index := 0.8 + 0.4*rng.Float64()
		color := colors[rng.IntN(len(colors))]
		price := 1000 + 4000*carat + 20*viewings + 1500*(index-1) + colorAdj[color] + 100*rng.NormFloat64()
		sold := 0.0
		if viewings > 20 {
			sold = 1
		}
		rows[i] = dataset.Row{
			Numeric:     map[string]float64{"carat": carat, "viewings": viewings, "price_index": index},
			Categorical: map[string]string{"color": color, "clarity": clarity[rng.IntN(len(clarity))]},
			Target:      price,
			Companion:   sold,
		}
	}
	return rows
}

// countingSource serves fixed datasets and counts loads. When gate is set,
// loads block until it is closed.
type countingSource struct {
	mu       sync.Mutex
	datasets map[string][]dataset.Row
	failures map[string]int
	gate     chan struct{}
	loads    atomic.Int32
}

func newCountingSource() *countingSource {
	return &countingSource{
		datasets: map[string][]dataset.Row{},
		failures: map[string]int{},
	}
}

func (s *countingSource) Rows(ctx context.Context, id string) ([]dataset.Row, error) {
	s.loads.Add(1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures[id] > 0 {
		s.failures[id]--
		return nil, errors.New("storage unavailable")
	}
	rows, ok := s.datasets[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrDatasetNotFound, "dataset %q", id)
	}
	return rows, nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Trees = 15
	cfg.MaxDepth = 8
	cfg.ImportanceSamples = 300
	return cfg
}

func newTestService(src dataset.Source) *Service {
	cfg := testConfig()
	store := NewStore(src, NewTrainer(dataset.DiamondAuction(), cfg))
	return NewService(store, cfg)
}
