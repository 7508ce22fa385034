package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/auctionml/dataset"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
)

func trainingRows() []dataset.Row {
	mk := func(carat, viewings, idx float64, color, clarity string) dataset.Row {
		return dataset.Row{
			Numeric:     map[string]float64{"carat": carat, "viewings": viewings, "price_index": idx},
			Categorical: map[string]string{"color": color, "clarity": clarity},
			Target:      carat * 5000,
		}
	}
	return []dataset.Row{
		mk(1.0, 10, 1.0, "G", "VS1"),
		mk(2.0, 20, 1.0, "H", "VS1"),
		mk(3.0, 30, 1.0, "G", "SI1"),
		mk(4.0, 40, 1.0, "D", "VS1"),
	}
}

func TestFitStatistics(t *testing.T) {
	enc, err := Fit(dataset.DiamondAuction(), trainingRows())
	require.NoError(t, err)

	require.Len(t, enc.Numeric, 3)
	assert.InDelta(t, 2.5, enc.Numeric[0].Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), enc.Numeric[0].Std, 1e-12)
	// constant column floored
	assert.Equal(t, StdEpsilon, enc.Numeric[2].Std)

	levels, ok := enc.Vocabulary("color")
	require.True(t, ok)
	assert.Equal(t, []string{"D", "G", "H"}, levels)

	mode, ok := enc.Mode("color")
	require.True(t, ok)
	assert.Equal(t, "G", mode)
	mode, _ = enc.Mode("clarity")
	assert.Equal(t, "VS1", mode)

	assert.Equal(t, 1+3+3+2, enc.Width())
	assert.Equal(t, []string{
		"intercept", "carat", "viewings", "price_index",
		"color=D", "color=G", "color=H", "clarity=SI1", "clarity=VS1",
	}, enc.FeatureNames())
	assert.Equal(t, []string{"", "carat", "viewings", "price_index", "color", "color", "color", "clarity", "clarity"}, enc.SourceFields())
}

func TestFitExcludesUnusableRows(t *testing.T) {
	rows := trainingRows()
	rows = append(rows, dataset.Row{
		Numeric:     map[string]float64{"carat": math.Inf(1), "viewings": 1, "price_index": 1},
		Categorical: map[string]string{"color": "Z", "clarity": "VS1"},
	})
	enc, err := Fit(dataset.DiamondAuction(), rows)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, enc.Numeric[0].Mean, 1e-12)
	levels, _ := enc.Vocabulary("color")
	assert.NotContains(t, levels, "Z")
}

func TestFitEmpty(t *testing.T) {
	_, err := Fit(dataset.DiamondAuction(), nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestEncodeLayoutAndDeterminism(t *testing.T) {
	enc, err := Fit(dataset.DiamondAuction(), trainingRows())
	require.NoError(t, err)

	record := dataset.Record{
		Numeric:     map[string]float64{"carat": 2.5, "viewings": 25, "price_index": 1.0},
		Categorical: map[string]string{"color": "H", "clarity": "SI1"},
	}
	first, err := enc.Encode(record)
	require.NoError(t, err)
	second, err := enc.Encode(record)
	require.NoError(t, err)

	require.Len(t, first, enc.Width())
	for i := range first {
		assert.Equal(t, math.Float64bits(first[i]), math.Float64bits(second[i]), "column %d", i)
	}
	assert.Equal(t, 1.0, first[0])
	assert.InDelta(t, 0, first[1], 1e-12)
	assert.Equal(t, []float64{0, 0, 1, 1, 0}, first[4:])
}

func TestEncodeUnknownCategory(t *testing.T) {
	record := dataset.Record{
		Numeric:     map[string]float64{"carat": 1, "viewings": 10, "price_index": 1},
		Categorical: map[string]string{"color": "Z", "clarity": "VS1"},
	}

	enc, err := Fit(dataset.DiamondAuction(), trainingRows())
	require.NoError(t, err)
	vec, err := enc.Encode(record)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, vec[4:7])

	strict, err := Fit(dataset.DiamondAuction(), trainingRows(), WithUnknownCategoryPolicy(UnknownReject))
	require.NoError(t, err)
	_, err = strict.Encode(record)
	var sErr *errors.SchemaError
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, "color", sErr.Field)
}

func TestFitVocabularyFromExtraRows(t *testing.T) {
	heldOut := []dataset.Row{{
		Numeric:     map[string]float64{"carat": 100, "viewings": 10, "price_index": 1},
		Categorical: map[string]string{"color": "Z", "clarity": "VS1"},
	}}

	enc, err := Fit(dataset.DiamondAuction(), trainingRows(),
		WithUnknownCategoryPolicy(UnknownReject),
		WithVocabularyFrom(heldOut),
	)
	require.NoError(t, err)

	levels, ok := enc.Vocabulary("color")
	require.True(t, ok)
	assert.Equal(t, []string{"D", "G", "H", "Z"}, levels)
	mode, _ := enc.Mode("color")
	assert.Equal(t, "G", mode)
	// statistics come from the training rows only
	assert.InDelta(t, 2.5, enc.Numeric[0].Mean, 1e-12)

	vec, err := enc.Encode(heldOut[0].Record())
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 1}, vec[4:8])
}

func TestEncodeSchemaErrors(t *testing.T) {
	enc, err := Fit(dataset.DiamondAuction(), trainingRows())
	require.NoError(t, err)

	tests := []struct {
		name   string
		record dataset.Record
		field  string
	}{
		{
			name: "missing numeric",
			record: dataset.Record{
				Numeric:     map[string]float64{"carat": 1, "viewings": 10},
				Categorical: map[string]string{"color": "G", "clarity": "VS1"},
			},
			field: "price_index",
		},
		{
			name: "missing categorical",
			record: dataset.Record{
				Numeric:     map[string]float64{"carat": 1, "viewings": 10, "price_index": 1},
				Categorical: map[string]string{"color": "G"},
			},
			field: "clarity",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := enc.Encode(tt.record)
			var sErr *errors.SchemaError
			require.True(t, errors.As(err, &sErr), "got %v", err)
			assert.Equal(t, tt.field, sErr.Field)
		})
	}

	_, err = enc.Encode(dataset.Record{
		Numeric:     map[string]float64{"carat": math.NaN(), "viewings": 10, "price_index": 1},
		Categorical: map[string]string{"color": "G", "clarity": "VS1"},
	})
	var vErr *errors.ValueError
	assert.True(t, errors.As(err, &vErr))
}

func TestEncodeRowsMatchesEncode(t *testing.T) {
	rows := trainingRows()
	for i := 0; i < 600; i++ {
		rows = append(rows, rows[i%4])
	}
	enc, err := Fit(dataset.DiamondAuction(), rows)
	require.NoError(t, err)

	X, err := enc.EncodeRows(rows)
	require.NoError(t, err)
	r, c := X.Dims()
	assert.Equal(t, len(rows), r)
	assert.Equal(t, enc.Width(), c)

	for _, i := range []int{0, 3, 300, len(rows) - 1} {
		vec, err := enc.Encode(rows[i].Record())
		require.NoError(t, err)
		assert.Equal(t, vec, X.RawRowView(i))
	}
}

func TestParseUnknownCategoryPolicy(t *testing.T) {
	p, err := ParseUnknownCategoryPolicy("Reject")
	require.NoError(t, err)
	assert.Equal(t, UnknownReject, p)
	assert.Equal(t, "reject", p.String())

	p, err = ParseUnknownCategoryPolicy("")
	require.NoError(t, err)
	assert.Equal(t, UnknownIgnore, p)

	_, err = ParseUnknownCategoryPolicy("zero")
	assert.Error(t, err)
}
