package geometry

import (
	"fmt"
	"math"

	"github.com/fieldgeom/manifold/internal/config"
	"github.com/fieldgeom/manifold/internal/tensor"
)

// All tensors in this package are flat row-major arrays over the fixed
// analysis dimension d (config.AnalysisDim): metrics and curvature are d*d,
// Christoffel symbols and metric partials are d*d*d with index (k*d+i)*d+j.
// Only the first d components of any field participate; the storage
// dimension of the underlying embeddings is irrelevant here.

// #region build-metric

// BuildMetric approximates the local metric tensor at a field sample from
// secant differences against at least two neighbor samples, restricted to
// the first d components. The gradient outer products are averaged, the
// diagonal is biased by scale for conditioning, and the result is mirrored
// to be exactly symmetric.
func BuildMetric(field []float32, neighbors [][]float32, scale float64, d int) ([]float64, error) {
	if len(neighbors) < 2 {
		return nil, fmt.Errorf("build metric: need at least 2 neighbors, got %d", len(neighbors))
	}
	if len(field) < d {
		return nil, fmt.Errorf("build metric: field has %d components, need %d", len(field), d)
	}

	g := make([]float64, d*d)
	used := 0
	for _, nb := range neighbors {
		if len(nb) < d {
			continue
		}
		grad := make([]float64, d)
		for i := 0; i < d; i++ {
			grad[i] = float64(nb[i]) - float64(field[i])
		}
		for i := 0; i < d; i++ {
			if grad[i] == 0 {
				continue
			}
			for j := 0; j < d; j++ {
				g[i*d+j] += grad[i] * grad[j]
			}
		}
		used++
	}
	if used < 2 {
		return nil, fmt.Errorf("build metric: only %d usable neighbors of %d", used, len(neighbors))
	}

	inv := 1.0 / float64(used)
	for i := range g {
		g[i] *= inv
	}
	for i := 0; i < d; i++ {
		g[i*d+i] += scale
	}

	// Mirror to kill any asymmetry from accumulation order.
	for i := 0; i < d; i++ {
		for j := i + 1; j < d; j++ {
			m := (g[i*d+j] + g[j*d+i]) / 2
			g[i*d+j] = m
			g[j*d+i] = m
		}
	}
	return g, nil
}

// #endregion build-metric

// #region invert-metric

// InvertMetric inverts a metric tensor, regularizing first when the
// determinant magnitude is below config.DetEpsilon by adding
// config.DiagonalBump to every diagonal entry. If inversion still fails the
// tensor kernel's ErrSingularMatrix surfaces: the point must be flagged,
// never silently zeroed.
func InvertMetric(g []float64, d int) ([]float64, error) {
	det := tensor.Determinant(g, d)
	work := g
	if math.Abs(det) < config.DetEpsilon {
		work = make([]float64, len(g))
		copy(work, g)
		for i := 0; i < d; i++ {
			work[i*d+i] += config.DiagonalBump
		}
	}
	inv, err := tensor.Invert(work, d)
	if err != nil {
		return nil, fmt.Errorf("invert metric (det=%.6e): %w", det, err)
	}
	return inv, nil
}

// #endregion invert-metric

// #region metric-partials

// MetricPartials approximates the partial derivatives of the metric,
// one slot per direction l: the first len(neighborMetrics) directions hold
// secant differences against neighboring metric tensors over step h, the
// rest stay zero. Index layout: (l*d+i)*d+j for d_l g_ij.
func MetricPartials(g []float64, neighborMetrics [][]float64, h float64, d int) []float64 {
	dg := make([]float64, d*d*d)
	if h == 0 {
		return dg
	}
	for l, nb := range neighborMetrics {
		if l >= d || len(nb) != d*d {
			continue
		}
		for i := 0; i < d; i++ {
			for j := 0; j < d; j++ {
				dg[(l*d+i)*d+j] = (nb[i*d+j] - g[i*d+j]) / h
			}
		}
	}
	return dg
}

// #endregion metric-partials

// #region christoffel

// Christoffel computes the connection coefficients from the metric, its
// inverse, and its partial derivatives:
//
//	Gamma^k_ij = 1/2 * sum_l g^kl * (d_i g_jl + d_j g_il - d_l g_ij)
//
// Result is flat d^3 with index (k*d+i)*d+j. O(d^4).
func Christoffel(gInv, dg []float64, d int) []float64 {
	gamma := make([]float64, d*d*d)
	for k := 0; k < d; k++ {
		for i := 0; i < d; i++ {
			for j := 0; j < d; j++ {
				var sum float64
				for l := 0; l < d; l++ {
					term := dg[(i*d+j)*d+l] + dg[(j*d+i)*d+l] - dg[(l*d+i)*d+j]
					sum += gInv[k*d+l] * term
				}
				gamma[(k*d+i)*d+j] = 0.5 * sum
			}
		}
	}
	return gamma
}

// GammaPartial approximates the temporal derivative of the Christoffel
// symbols from two consecutive computations over step h. One d^3 array
// serves every direction in the curvature contraction; the full d^4
// derivative is never materialized.
func GammaPartial(prev, cur []float64, h float64, d int) []float64 {
	dgamma := make([]float64, d*d*d)
	if h == 0 || len(prev) != len(cur) {
		return dgamma
	}
	for i := range cur {
		dgamma[i] = (cur[i] - prev[i]) / h
	}
	return dgamma
}

// #endregion christoffel

// #region curvature

// Curvature computes the Ricci-type curvature tensor by the standard
// contraction of the Christoffel symbols and their derivatives:
//
//	R_ij = d_k Gamma^k_ij - d_i Gamma^k_kj
//	     + Gamma^k_kl * Gamma^l_ij - Gamma^k_il * Gamma^l_kj
//
// dgamma is the shared derivative array from GammaPartial (may be all
// zeros when no prior connection exists). Result is flat d^2. O(d^4).
func Curvature(gamma, dgamma []float64, d int) []float64 {
	ricci := make([]float64, d*d)
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			var r float64
			for k := 0; k < d; k++ {
				r += dgamma[(k*d+i)*d+j] - dgamma[(k*d+k)*d+j]
				for l := 0; l < d; l++ {
					r += gamma[(k*d+k)*d+l]*gamma[(l*d+i)*d+j] -
						gamma[(k*d+i)*d+l]*gamma[(l*d+k)*d+j]
				}
			}
			ricci[i*d+j] = r
		}
	}
	return ricci
}

// ScalarCurvature contracts the curvature tensor with the inverse metric:
// R = sum_ij g^ij R_ij.
func ScalarCurvature(ricci, gInv []float64, d int) float64 {
	var r float64
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			r += gInv[i*d+j] * ricci[i*d+j]
		}
	}
	return r
}

// #endregion curvature
