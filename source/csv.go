// Package source loads auction datasets from CSV files held locally, in
// Google Cloud Storage or in memory.
package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/auctionml/dataset"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
)

// ParseCSV reads a headed CSV of training rows. Every schema column must be
// present; rows with unparsable or non-finite numbers, empty categorical
// values or malformed records are dropped with a DataQualityWarning.
func ParseCSV(schema dataset.Schema, r io.Reader) ([]dataset.Row, error) {
	return parse(schema, r, true)
}

// ParseRecords reads a headed CSV of inference records. Target columns are
// ignored when present. Unlike training ingestion nothing is dropped: the
// first bad record fails the whole parse with its line number, so the
// returned records line up one-to-one with the data lines.
func ParseRecords(schema dataset.Schema, r io.Reader) ([]dataset.Record, error) {
	rows, err := parse(schema, r, false)
	if err != nil {
		return nil, err
	}
	out := make([]dataset.Record, len(rows))
	for i, row := range rows {
		out[i] = row.Record()
	}
	return out, nil
}

func parse(schema dataset.Schema, r io.Reader, withTargets bool) ([]dataset.Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewSchemaError("ParseCSV", "", "missing header")
	}
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	required := append([]string(nil), schema.NumericNames()...)
	required = append(required, schema.Categorical...)
	if withTargets {
		required = append(required, schema.Target)
		if schema.HasCompanion() {
			required = append(required, schema.Companion)
		}
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, errors.NewSchemaError("ParseCSV", col, "missing column")
		}
	}

	var (
		out     []dataset.Row
		total   int
		reasons []string
		dropped = map[string]int{}
	)
	drop := func(reason string) {
		if dropped[reason] == 0 {
			reasons = append(reasons, reason)
		}
		dropped[reason]++
	}

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		total++
		if err != nil {
			if !withTargets {
				return nil, errors.Wrap(err, "read csv record")
			}
			drop("malformed record")
			continue
		}
		row, field, reason := parseRow(schema, index, rec, withTargets)
		if reason != "" {
			if !withTargets {
				line, _ := reader.FieldPos(0)
				return nil, errors.NewSchemaError("ParseRecords", field, fmt.Sprintf("line %d: %s", line, reason))
			}
			drop(reason)
			continue
		}
		out = append(out, row)
	}

	for _, reason := range reasons {
		errors.Warn(errors.NewDataQualityWarning("ingest", dropped[reason], total, reason))
	}
	return out, nil
}

// parseRow returns the offending field and a reason when rec is unusable.
func parseRow(schema dataset.Schema, index map[string]int, rec []string, withTargets bool) (dataset.Row, string, string) {
	row := dataset.Row{
		Numeric:     make(map[string]float64, len(schema.Numeric)),
		Categorical: make(map[string]string, len(schema.Categorical)),
	}
	for _, f := range schema.Numeric {
		v, ok := parseFloat(rec[index[f.Name]])
		if !ok {
			return dataset.Row{}, f.Name, "invalid numeric value for " + f.Name
		}
		row.Numeric[f.Name] = v
	}
	for _, c := range schema.Categorical {
		v := strings.TrimSpace(rec[index[c]])
		if v == "" {
			return dataset.Row{}, c, "empty categorical value for " + c
		}
		row.Categorical[c] = v
	}
	if !withTargets {
		return row, "", ""
	}

	target, ok := parseFloat(rec[index[schema.Target]])
	if !ok {
		return dataset.Row{}, schema.Target, "invalid target value"
	}
	row.Target = target
	if schema.HasCompanion() {
		companion, ok := parseFlag(rec[index[schema.Companion]])
		if !ok {
			return dataset.Row{}, schema.Companion, "invalid companion value"
		}
		row.Companion = companion
	}
	return row, "", ""
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !errors.IsFinite(v) {
		return 0, false
	}
	return v, true
}

// parseFlag accepts numeric 0/1 style values and boolean words.
func parseFlag(s string) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y":
		return 1, true
	case "false", "no", "n":
		return 0, true
	}
	return parseFloat(s)
}
