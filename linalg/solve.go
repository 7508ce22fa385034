// Package linalg holds the dense linear-algebra routines behind ridge fitting.
//
// The solver is a plain Gauss-Jordan elimination so that near-singular
// normal equations degrade to a finite answer instead of failing.
package linalg

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/auctionml/pkg/errors"
)

// PivotEpsilon replaces a zero pivot during elimination.
const PivotEpsilon = 1e-12

// Solve returns x such that A·x = b.
//
// Each column selects the row with the largest absolute value from the current
// row down, swaps it into place, normalizes it, then eliminates the column from
// every other row, so no back substitution is needed. A zero pivot is replaced
// by PivotEpsilon and reported through errors.Warn as a NumericalWarning.
// Only shape mismatches are errors. A and b are not modified.
func Solve(A mat.Matrix, b mat.Vector) (*mat.VecDense, error) {
	n, c := A.Dims()
	if n != c {
		return nil, errors.NewDimensionError("linalg.Solve", n, c, 1)
	}
	if b.Len() != n {
		return nil, errors.NewDimensionError("linalg.Solve", n, b.Len(), 0)
	}
	if n == 0 {
		return nil, errors.NewModelError("linalg.Solve", "empty system", errors.ErrEmptyData)
	}

	// augmented copy [A | b]
	aug := mat.NewDense(n, n+1, nil)
	aug.Slice(0, n, 0, n).(*mat.Dense).Copy(A)
	for i := 0; i < n; i++ {
		aug.Set(i, n, b.AtVec(i))
	}

	for col := 0; col < n; col++ {
		pivotRow := col
		best := math.Abs(aug.At(col, col))
		for r := col + 1; r < n; r++ {
			if v := math.Abs(aug.At(r, col)); v > best {
				best = v
				pivotRow = r
			}
		}
		if pivotRow != col {
			swapRows(aug, pivotRow, col)
		}

		pivot := aug.At(col, col)
		if pivot == 0 {
			errors.Warn(errors.NewNumericalWarning("linalg.Solve", col, pivot, "zero pivot replaced by epsilon"))
			pivot = PivotEpsilon
		}

		row := aug.RawRowView(col)
		for j := range row {
			row[j] /= pivot
		}

		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := aug.At(r, col)
			if factor == 0 {
				continue
			}
			other := aug.RawRowView(r)
			for j := range other {
				other[j] -= factor * row[j]
			}
		}
	}

	x := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		x.SetVec(i, aug.At(i, n))
	}
	return x, nil
}

func swapRows(m *mat.Dense, i, j int) {
	ri, rj := m.RawRowView(i), m.RawRowView(j)
	for k := range ri {
		ri[k], rj[k] = rj[k], ri[k]
	}
}

// Transpose returns a materialized copy of Aᵗ.
func Transpose(A mat.Matrix) *mat.Dense {
	var t mat.Dense
	t.CloneFrom(A.T())
	return &t
}

// Mul returns A·B.
func Mul(A, B mat.Matrix) (*mat.Dense, error) {
	_, ac := A.Dims()
	br, _ := B.Dims()
	if ac != br {
		return nil, errors.NewDimensionError("linalg.Mul", ac, br, 0)
	}
	var out mat.Dense
	out.Mul(A, B)
	return &out, nil
}

// MulVec returns A·x.
func MulVec(A mat.Matrix, x mat.Vector) (*mat.VecDense, error) {
	_, ac := A.Dims()
	if ac != x.Len() {
		return nil, errors.NewDimensionError("linalg.MulVec", ac, x.Len(), 0)
	}
	var out mat.VecDense
	out.MulVec(A, x)
	return &out, nil
}
