package tensor

import (
	"math"
	"testing"
)

func TestDeterminantIdentity(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 8, 16} {
		if det := Determinant(Identity(n), n); det != 1 {
			t.Fatalf("det(I_%d) = %v, want 1", n, det)
		}
	}
}

func TestDeterminantKnownValues(t *testing.T) {
	// det([[2,1],[1,3]]) = 5
	m := []float64{2, 1, 1, 3}
	if det := Determinant(m, 2); math.Abs(det-5) > 1e-12 {
		t.Fatalf("det = %v, want 5", det)
	}

	// Row-swapped identity has det -1.
	swapped := []float64{0, 1, 1, 0}
	if det := Determinant(swapped, 2); math.Abs(det+1) > 1e-12 {
		t.Fatalf("det = %v, want -1", det)
	}
}

func TestDeterminantSingularIsZero(t *testing.T) {
	// Second row is a multiple of the first.
	m := []float64{1, 2, 2, 4}
	if det := Determinant(m, 2); det != 0 {
		t.Fatalf("det of singular matrix = %v, want 0", det)
	}
}

func TestInvertRoundTrip(t *testing.T) {
	// Symmetric positive-definite test matrices of several sizes.
	for _, n := range []int{2, 3, 4, 6} {
		m := make([]float64, n*n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i == j {
					m[i*n+j] = 2 + float64(i)*0.5
				} else {
					m[i*n+j] = 0.1 / (1 + math.Abs(float64(i-j)))
				}
			}
		}

		inv, err := Invert(m, n)
		if err != nil {
			t.Fatalf("n=%d: invert failed: %v", n, err)
		}
		back, err := Invert(inv, n)
		if err != nil {
			t.Fatalf("n=%d: second invert failed: %v", n, err)
		}
		for i := range m {
			if math.Abs(back[i]-m[i]) > 1e-6 {
				t.Fatalf("n=%d: invert(invert(g))[%d] = %v, want %v", n, i, back[i], m[i])
			}
		}
	}
}

func TestInvertTimesOriginalIsIdentity(t *testing.T) {
	n := 3
	m := []float64{4, 1, 0, 1, 3, 0.5, 0, 0.5, 2}
	inv, err := Invert(m, n)
	if err != nil {
		t.Fatalf("invert failed: %v", err)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var sum float64
			for k := 0; k < n; k++ {
				sum += m[i*n+k] * inv[k*n+j]
			}
			want := 0.0
			if i == j {
				want = 1.0
			}
			if math.Abs(sum-want) > 1e-9 {
				t.Fatalf("(m*inv)[%d][%d] = %v, want %v", i, j, sum, want)
			}
		}
	}
}

func TestInvertSingularFails(t *testing.T) {
	m := []float64{1, 2, 2, 4}
	if _, err := Invert(m, 2); err != ErrSingularMatrix {
		t.Fatalf("expected ErrSingularMatrix, got %v", err)
	}
}

func TestInvertDeterministic(t *testing.T) {
	m := []float64{3, 1, 1, 2}
	a, err := Invert(m, 2)
	if err != nil {
		t.Fatalf("invert failed: %v", err)
	}
	b, err := Invert(m, 2)
	if err != nil {
		t.Fatalf("invert failed: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic inverse at %d: %v vs %v", i, a[i], b[i])
		}
	}
}
