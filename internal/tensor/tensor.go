package tensor

import (
	"errors"
	"math"

	"github.com/fieldgeom/manifold/internal/config"
)

// ErrSingularMatrix is returned when inversion finds no usable pivot.
// Callers regularize (see geometry.InvertMetric) before treating this as fatal.
var ErrSingularMatrix = errors.New("singular matrix")

// #region determinant

// Determinant computes det(m) for a flat row-major n x n matrix using
// elimination with partial pivoting. A pivot with magnitude below
// config.PivotEpsilon yields 0. The input is not modified.
func Determinant(m []float64, n int) float64 {
	a := make([]float64, len(m))
	copy(a, m)

	det := 1.0
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row*n+col]) > math.Abs(a[pivot*n+col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot*n+col]) < config.PivotEpsilon {
			return 0
		}
		if pivot != col {
			swapRows(a, n, pivot, col)
			det = -det
		}
		det *= a[col*n+col]
		for row := col + 1; row < n; row++ {
			factor := a[row*n+col] / a[col*n+col]
			for k := col; k < n; k++ {
				a[row*n+k] -= factor * a[col*n+k]
			}
		}
	}
	return det
}

// #endregion determinant

// #region invert

// Invert computes the inverse of a flat row-major n x n matrix via
// Gauss-Jordan elimination on the augmented system. Returns
// ErrSingularMatrix when no usable pivot exists; callers are expected to
// have regularized near-singular input first. Deterministic for identical
// input.
func Invert(m []float64, n int) ([]float64, error) {
	// Augmented [a | inv], inv starts as identity.
	a := make([]float64, len(m))
	copy(a, m)
	inv := make([]float64, n*n)
	for i := 0; i < n; i++ {
		inv[i*n+i] = 1
	}

	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row*n+col]) > math.Abs(a[pivot*n+col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot*n+col]) < config.PivotEpsilon {
			return nil, ErrSingularMatrix
		}
		if pivot != col {
			swapRows(a, n, pivot, col)
			swapRows(inv, n, pivot, col)
		}

		scale := a[col*n+col]
		for k := 0; k < n; k++ {
			a[col*n+k] /= scale
			inv[col*n+k] /= scale
		}

		for row := 0; row < n; row++ {
			if row == col {
				continue
			}
			factor := a[row*n+col]
			if factor == 0 {
				continue
			}
			for k := 0; k < n; k++ {
				a[row*n+k] -= factor * a[col*n+k]
				inv[row*n+k] -= factor * inv[col*n+k]
			}
		}
	}
	return inv, nil
}

// #endregion invert

// #region helpers

// Identity returns a flat n x n identity matrix.
func Identity(n int) []float64 {
	m := make([]float64, n*n)
	for i := 0; i < n; i++ {
		m[i*n+i] = 1
	}
	return m
}

func swapRows(m []float64, n, i, j int) {
	for k := 0; k < n; k++ {
		m[i*n+k], m[j*n+k] = m[j*n+k], m[i*n+k]
	}
}

// #endregion helpers
