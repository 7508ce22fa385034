package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "Fit",
			kind:     "invalid input",
			err:      fmt.Errorf("test error"),
			wantMsg:  "auctionml: Fit: invalid input: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Predict",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "auctionml: Predict: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 10, 7, 1)

	want := "auctionml: Predict: dimension mismatch on axis 1 (features). Expected 10, got 7"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewSchemaError(t *testing.T) {
	err := NewSchemaError("Encoder.Encode", "carat", "required numeric field is missing")

	want := "auctionml: Encoder.Encode: field 'carat': required numeric field is missing"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var schemaErr *SchemaError
	if !As(err, &schemaErr) {
		t.Fatal("Error should be castable to *SchemaError")
	}
	if schemaErr.Field != "carat" {
		t.Errorf("Field = %q, want carat", schemaErr.Field)
	}
}

func TestIsInputError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"validation", NewValidationError("kind", "unknown model kind", "svm"), true},
		{"schema", NewSchemaError("Encode", "color", "missing"), true},
		{"value", NewValueError("Interval", "confidence must be in (0, 1)"), true},
		{"dimension", NewDimensionError("Solve", 3, 2, 0), true},
		{"wrapped validation", Wrap(NewValidationError("metric", "unknown", "x"), "surface"), true},
		{"model", NewModelError("Fit", "failed", nil), false},
		{"plain", New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsInputError(tt.err); got != tt.want {
				t.Errorf("IsInputError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWarnRoutesToZerologFunc(t *testing.T) {
	var got []error
	SetZerologWarnFunc(func(w error) { got = append(got, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewDataQualityWarning("ingest", 2, 10, "non-finite numeric value"))

	if len(got) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(got))
	}
	want := "ingest: dropped 2 of 10 rows: non-finite numeric value"
	if got[0].Error() != want {
		t.Errorf("warning = %q, want %q", got[0].Error(), want)
	}
}

func TestWarnFallsBackToHandler(t *testing.T) {
	var got error
	SetWarningHandler(func(w error) { got = w })
	defer SetWarningHandler(func(w error) {})

	Warn(NewNumericalWarning("Solve", 2, 0, "zero pivot replaced by epsilon"))

	var numWarn *NumericalWarning
	if !As(got, &numWarn) {
		t.Fatalf("expected *NumericalWarning, got %T", got)
	}
	if numWarn.Index != 2 {
		t.Errorf("Index = %d, want 2", numWarn.Index)
	}
}

func TestWrapfAndIs(t *testing.T) {
	wrapped := Wrapf(ErrDatasetNotFound, "dataset %q", "lots-2024")

	if !Is(wrapped, ErrDatasetNotFound) {
		t.Error("Expected Is(wrapped, ErrDatasetNotFound) to be true")
	}
	if !strings.Contains(wrapped.Error(), `dataset "lots-2024"`) {
		t.Errorf("unexpected message %q", wrapped.Error())
	}
}

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("ok", []float64{1, 2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := CheckNumericalStability("ridge", []float64{1, math.NaN(), math.Inf(1)})
	var numErr *NumericalInstabilityError
	if !As(err, &numErr) {
		t.Fatalf("expected *NumericalInstabilityError, got %v", err)
	}
	if len(numErr.Values) != 2 {
		t.Errorf("expected 2 unstable values, got %d", len(numErr.Values))
	}
}

func TestSafeDivideAndClip(t *testing.T) {
	if got := SafeDivide(1, 0); got != 0 {
		t.Errorf("SafeDivide(1, 0) = %v, want 0", got)
	}
	if got := SafeDivide(6, 3); got != 2 {
		t.Errorf("SafeDivide(6, 3) = %v, want 2", got)
	}
	if got := ClipValue(5, 0, 1); got != 1 {
		t.Errorf("ClipValue = %v, want 1", got)
	}
	if got := ClipInt(3, 10, 50); got != 10 {
		t.Errorf("ClipInt = %v, want 10", got)
	}
}

func TestRecover(t *testing.T) {
	err := SafeExecute("explode", func() error {
		panic("boom")
	})

	var panicErr *PanicError
	if !As(err, &panicErr) {
		t.Fatalf("expected *PanicError, got %v", err)
	}
	if panicErr.Operation != "explode" {
		t.Errorf("Operation = %q", panicErr.Operation)
	}
	if !strings.Contains(panicErr.String(), "Stack trace") {
		t.Error("expected stack trace in String()")
	}

	if err := SafeExecute("fine", func() error { return nil }); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
