package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/auctionml/pkg/errors"
)

func diamondRow(carat float64, color string) Row {
	return Row{
		Numeric:     map[string]float64{"carat": carat, "viewings": 10, "price_index": 1.1},
		Categorical: map[string]string{"color": color, "clarity": "VS1"},
		Target:      5000 * carat,
		Companion:   1,
	}
}

func TestDiamondAuctionSchema(t *testing.T) {
	s := DiamondAuction()
	require.NoError(t, s.Validate())
	assert.Equal(t, []string{"carat", "viewings", "price_index"}, s.NumericNames())
	assert.True(t, s.HasCompanion())
	assert.True(t, s.IsCategorical("clarity"))
	assert.False(t, s.IsCategorical("carat"))

	f, ok := s.NumericField("viewings")
	require.True(t, ok)
	assert.True(t, f.Integer)
	_, ok = s.NumericField("depth")
	assert.False(t, ok)
}

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name   string
		schema Schema
	}{
		{"no features", Schema{Target: "y"}},
		{"no target", Schema{Categorical: []string{"color"}}},
		{"duplicate", Schema{Categorical: []string{"color", "color"}, Target: "y"}},
		{"feature shadows target", Schema{Numeric: []NumericField{{Name: "y"}}, Target: "y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			var vErr *errors.ValidationError
			assert.True(t, errors.As(err, &vErr), "got %v", err)
		})
	}
}

func TestFilterValidDropsBadRows(t *testing.T) {
	var warnings []error
	errors.SetZerologWarnFunc(func(w error) { warnings = append(warnings, w) })
	defer errors.SetZerologWarnFunc(nil)

	s := DiamondAuction()
	nan := diamondRow(1, "G")
	nan.Numeric = map[string]float64{"carat": math.NaN(), "viewings": 1, "price_index": 1}
	empty := diamondRow(1, "")
	missing := diamondRow(1, "G")
	missing.Numeric = map[string]float64{"carat": 1}
	badTarget := diamondRow(1, "G")
	badTarget.Target = math.Inf(1)

	rows := []Row{diamondRow(1, "G"), nan, empty, diamondRow(2, "H"), missing, badTarget}
	valid := FilterValid(s, rows, "training")

	require.Len(t, valid, 2)
	assert.Equal(t, 1.0, valid[0].Numeric["carat"])
	assert.Equal(t, 2.0, valid[1].Numeric["carat"])
	assert.Len(t, warnings, 4)

	var dq *errors.DataQualityWarning
	require.True(t, errors.As(warnings[0], &dq))
	assert.Equal(t, 6, dq.Total)
}

func TestRanges(t *testing.T) {
	s := DiamondAuction()
	rows := []Row{diamondRow(0.5, "G"), diamondRow(2.5, "H"), diamondRow(1.0, "G")}

	ranges := Ranges(s, rows)
	assert.Equal(t, Range{Min: 0.5, Max: 2.5}, ranges["carat"])
	assert.Equal(t, 1.5, ranges["carat"].Mid())
	assert.Equal(t, Range{Min: 10, Max: 10}, ranges["viewings"])

	assert.Equal(t, Range{}, Ranges(s, nil)["carat"])
}

func TestRecordClone(t *testing.T) {
	r := diamondRow(1, "G").Record()
	c := r.Clone()
	c.Numeric["carat"] = 9
	c.Categorical["color"] = "D"
	assert.Equal(t, 1.0, r.Numeric["carat"])
	assert.Equal(t, "G", r.Categorical["color"])
}
