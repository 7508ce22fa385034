// Package optimize runs a seeded random search over the trained feature domain.
package optimize

import (
	"math"
	"math/rand/v2"
	"strings"

	"github.com/YuminosukeSato/auctionml/dataset"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
)

// Trial band applied when the caller does not configure one.
const (
	MinSamples = 50
	MaxSamples = 5000
)

// targetEpsilon guards the relative value deviation against a zero target.
const targetEpsilon = 1e-9

// Objective is what the search maximizes.
type Objective string

const (
	// MaxValue maximizes the predicted value subject to MinProbability.
	MaxValue Objective = "max_value"
	// MaxProbability maximizes the predicted probability.
	MaxProbability Objective = "max_probability"
	// MatchTarget minimizes the weighted deviation from a target value and probability.
	MatchTarget Objective = "match_target"
)

// ParseObjective accepts canonical names and the short forms of the dashboard.
func ParseObjective(s string) (Objective, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "max_value", "max_price":
		return MaxValue, nil
	case "max_probability", "max_prob":
		return MaxProbability, nil
	case "match_target", "target":
		return MatchTarget, nil
	default:
		return "", errors.NewValidationError("objective", "unsupported objective", s)
	}
}

// Request configures one search.
type Request struct {
	Objective Objective `json:"objective"`
	NSamples  int       `json:"n_samples"`
	// Fixed pins categorical fields; the rest are drawn from the vocabulary.
	Fixed          map[string]string `json:"fixed_categoricals,omitempty"`
	MinProbability float64           `json:"min_probability"`

	TargetValue       *float64 `json:"target_value,omitempty"`
	TargetProbability *float64 `json:"target_probability,omitempty"`
	// Zero weights default to 1.
	ValueWeight       float64 `json:"value_weight,omitempty"`
	ProbabilityWeight float64 `json:"probability_weight,omitempty"`
}

// Limits is the trial band. Zero fields fall back to the package defaults.
type Limits struct {
	MinSamples int
	MaxSamples int
}

// Candidate is one sampled configuration with its predictions and score.
type Candidate struct {
	Record         dataset.Record `json:"record"`
	Value          float64        `json:"value"`
	Probability    float64        `json:"probability,omitempty"`
	HasProbability bool           `json:"has_probability"`
	Score          float64        `json:"score"`
}

// Result is the outcome of a search. Feasible is false, with a nil error,
// when every trial violated the probability constraint.
type Result struct {
	Objective Objective  `json:"objective"`
	Feasible  bool       `json:"feasible"`
	Best      *Candidate `json:"best,omitempty"`
	Evaluated int        `json:"evaluated"`
	Skipped   int        `json:"skipped"`
}

// ClampSamples forces n into the trial band.
func ClampSamples(n int, limits Limits) int {
	lo, hi := limits.MinSamples, limits.MaxSamples
	if lo <= 0 {
		lo = MinSamples
	}
	if hi <= 0 {
		hi = MaxSamples
	}
	return errors.ClipInt(n, lo, hi)
}

// Run draws NSamples trials from rng, predicts them in one batch and keeps the
// best-scoring feasible candidate.
func Run(req Request, domain dataset.Domain, limits Limits, predict dataset.PredictFunc, rng *rand.Rand) (Result, error) {
	if rng == nil {
		return Result{}, errors.NewValueError("optimize.Run", "a random source is required")
	}
	if err := validate(req, domain); err != nil {
		return Result{}, err
	}

	n := ClampSamples(req.NSamples, limits)
	records, err := sample(n, req.Fixed, domain, rng)
	if err != nil {
		return Result{}, err
	}

	outcomes, err := predict(records)
	if err != nil {
		return Result{}, err
	}
	if len(outcomes) != n {
		return Result{}, errors.NewDimensionError("optimize.Run", n, len(outcomes), 0)
	}

	result := Result{Objective: req.Objective, Evaluated: n}
	bestScore := math.Inf(-1)
	for i, o := range outcomes {
		score, ok := scoreOf(req, o)
		if !ok {
			result.Skipped++
			continue
		}
		if score > bestScore {
			bestScore = score
			result.Best = &Candidate{
				Record:         records[i],
				Value:          o.Value,
				Probability:    o.Probability,
				HasProbability: o.HasProbability,
				Score:          score,
			}
		}
	}
	result.Feasible = result.Best != nil
	return result, nil
}

func validate(req Request, domain dataset.Domain) error {
	if err := domain.CheckFixed("optimize.Run", req.Fixed); err != nil {
		return err
	}
	switch req.Objective {
	case MaxValue:
		if req.MinProbability > 0 && !domain.HasProbability {
			return errors.NewValidationError("min_probability", "requires a probability model", req.MinProbability)
		}
	case MaxProbability:
		if !domain.HasProbability {
			return errors.NewValidationError("objective", "requires a probability model", string(req.Objective))
		}
	case MatchTarget:
		if req.TargetValue == nil {
			return errors.NewValidationError("target_value", "required for match_target", nil)
		}
		if domain.HasProbability && req.TargetProbability == nil {
			return errors.NewValidationError("target_probability", "required for match_target", nil)
		}
	default:
		return errors.NewValidationError("objective", "unsupported objective", string(req.Objective))
	}
	return nil
}

// sample draws each trial sequentially so results depend only on rng.
func sample(n int, fixed map[string]string, domain dataset.Domain, rng *rand.Rand) ([]dataset.Record, error) {
	records := make([]dataset.Record, n)
	for t := range records {
		r := dataset.Record{
			Numeric:     make(map[string]float64, len(domain.Schema.Numeric)),
			Categorical: make(map[string]string, len(domain.Schema.Categorical)),
		}
		for _, f := range domain.Schema.Numeric {
			rg, ok := domain.Ranges[f.Name]
			if !ok {
				return nil, errors.NewSchemaError("optimize.Run", f.Name, "no trained range")
			}
			if f.Integer {
				lo, hi := math.Ceil(rg.Min), math.Floor(rg.Max)
				if hi < lo {
					r.Numeric[f.Name] = math.Round(rg.Mid())
				} else {
					r.Numeric[f.Name] = lo + float64(rng.IntN(int(hi-lo)+1))
				}
				continue
			}
			r.Numeric[f.Name] = rg.Min + rng.Float64()*(rg.Max-rg.Min)
		}
		for _, c := range domain.Schema.Categorical {
			if level := fixed[c]; level != "" {
				r.Categorical[c] = level
				continue
			}
			vocab := domain.Vocabulary[c]
			if len(vocab) == 0 {
				return nil, errors.NewSchemaError("optimize.Run", c, "empty vocabulary")
			}
			r.Categorical[c] = vocab[rng.IntN(len(vocab))]
		}
		records[t] = r
	}
	return records, nil
}

// scoreOf returns the objective score, or false when the trial is infeasible.
func scoreOf(req Request, o dataset.Outcome) (float64, bool) {
	switch req.Objective {
	case MaxValue:
		if req.MinProbability > 0 && o.Probability < req.MinProbability {
			return 0, false
		}
		return o.Value, true
	case MaxProbability:
		return o.Probability, true
	default:
		wv, wp := req.ValueWeight, req.ProbabilityWeight
		if wv == 0 {
			wv = 1
		}
		if wp == 0 {
			wp = 1
		}
		target := *req.TargetValue
		loss := wv * math.Abs(o.Value-target) / math.Max(math.Abs(target), targetEpsilon)
		if o.HasProbability && req.TargetProbability != nil {
			loss += wp * math.Abs(o.Probability-*req.TargetProbability)
		}
		return -loss, true
	}
}
