package scalar

import (
	"math"

	"github.com/fieldgeom/manifold/internal/config"
)

// #region semantic-mass

// SemanticMass combines recursive depth D, constraint density (the inverse
// metric determinant), and attractor stability A:
//
//	M = D * (1 / max(det_g, floor)) * A
//
// The determinant floor keeps the constraint term bounded as det_g -> 0.
func SemanticMass(depth, detG, stability float64) float64 {
	d := detG
	if d < config.MassFloor {
		d = config.MassFloor
	}
	return depth * (1 / d) * stability
}

// #endregion semantic-mass

// #region autopoietic-potential

// Autopoietic potential parameters.
const (
	AutopoieticThreshold = 0.7
	AutopoieticAlpha     = 1.0
	AutopoieticBeta      = 2.0
)

// AutopoieticPotential is the structure-generation drive once coherence
// magnitude exceeds the threshold: alpha*(||C||-threshold)^beta above it,
// zero below.
func AutopoieticPotential(coherenceMag float64) float64 {
	return AutopoieticPotentialAt(coherenceMag, AutopoieticThreshold, AutopoieticAlpha, AutopoieticBeta)
}

// AutopoieticPotentialAt is the parameterized form.
func AutopoieticPotentialAt(coherenceMag, threshold, alpha, beta float64) float64 {
	if coherenceMag < threshold {
		return 0
	}
	return alpha * math.Pow(coherenceMag-threshold, beta)
}

// AutopoieticGradient is d(potential)/d||C||: the outward drive used by the
// evolution integrator. Zero below the threshold.
func AutopoieticGradient(coherenceMag float64) float64 {
	if coherenceMag < AutopoieticThreshold {
		return 0
	}
	return AutopoieticAlpha * AutopoieticBeta * math.Pow(coherenceMag-AutopoieticThreshold, AutopoieticBeta-1)
}

// #endregion autopoietic-potential

// #region circumspection

// Circumspection parameters.
const (
	CircumspectionOptimal   = 0.5
	CircumspectionSteepness = 2.0
)

// Circumspection is the damping term opposing runaway recursive coupling,
// peaked near the optimal coupling magnitude:
//
//	H = ||R||_F * exp(-k*(||R||_F - optimal))
//
// with the exponent clamped to keep the result finite.
func Circumspection(couplingMag float64) float64 {
	exp := -CircumspectionSteepness * (couplingMag - CircumspectionOptimal)
	if exp > config.ExpClamp {
		exp = config.ExpClamp
	} else if exp < -config.ExpClamp {
		exp = -config.ExpClamp
	}
	return couplingMag * math.Exp(exp)
}

// #endregion circumspection

// #region vector-helpers

// Norm computes the L2 norm of the first n components of v. When n exceeds
// len(v) the whole vector is used.
func Norm(v []float32, n int) float64 {
	if n > len(v) {
		n = len(v)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(v[i]) * float64(v[i])
	}
	return math.Sqrt(sum)
}

// Distance computes the Euclidean distance between the first n components
// of a and b. Components beyond either length are treated as zero.
func Distance(a, b []float32, n int) float64 {
	var sum float64
	for i := 0; i < n; i++ {
		var av, bv float64
		if i < len(a) {
			av = float64(a[i])
		}
		if i < len(b) {
			bv = float64(b[i])
		}
		d := av - bv
		sum += d * d
	}
	return math.Sqrt(sum)
}

// FrobeniusNorm computes the Frobenius norm of a flat tensor.
func FrobeniusNorm(t []float64) float64 {
	var sum float64
	for _, v := range t {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Clip01 restricts v to [0, 1]. NaN clips to 0 so severity scores stay total.
func Clip01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion vector-helpers
