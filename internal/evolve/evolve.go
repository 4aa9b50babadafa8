package evolve

import (
	"github.com/fieldgeom/manifold/internal/config"
	"github.com/fieldgeom/manifold/internal/field"
	"github.com/fieldgeom/manifold/internal/scalar"
)

// #region types

// StepInput carries everything one explicit Euler step needs. The caller
// supplies Dt and owns numerical stability: there is no implicit solve and
// no adaptive stepping.
type StepInput struct {
	// Coherence is the full coherence field; the returned field has the
	// same length.
	Coherence []float32

	// Derivs holds temporal first/second derivatives of the coherence
	// field over the analysis dimensions. May be empty (insufficient
	// history): the d'Alembertian and damping terms then vanish.
	Derivs field.Derivatives

	// GInv and Gamma are the current inverse metric (d*d) and Christoffel
	// symbols (d*d*d). Nil Gamma means a flat connection.
	GInv  []float64
	Gamma []float64

	// CouplingMag feeds the circumspection damping coefficient.
	CouplingMag float64

	Dt  float64
	Dim int
}

// StepConfig tunes the four force terms.
type StepConfig struct {
	NominalMag      float64 // magnitude the stability attractor restores toward
	AttractorGain   float64
	AutopoieticGain float64
	DampingGain     float64
}

// DefaultStepConfig returns the standard integrator gains.
func DefaultStepConfig() StepConfig {
	return StepConfig{
		NominalMag:      scalar.AutopoieticThreshold,
		AttractorGain:   0.1,
		AutopoieticGain: 1.0,
		DampingGain:     1.0,
	}
}

// #endregion types

// #region step

// Step advances the coherence field by one explicit Euler step:
//
//	next = C + dt * (box(C) + attractor(C) + autopoietic(C) - damping(C))
//
// box is the covariant d'Alembertian approximation over the analysis
// dimensions; the other three terms act radially on the whole field.
func Step(in StepInput, cfg StepConfig) []float32 {
	n := len(in.Coherence)
	next := make([]float32, n)
	if n == 0 {
		return next
	}

	d := in.Dim
	if d > n {
		d = n
	}
	mag := scalar.Norm(in.Coherence, d)

	box := dalembertian(in, d)
	attractor := cfg.AttractorGain * (cfg.NominalMag - mag) / (mag + config.RateEpsilon)
	autopoietic := cfg.AutopoieticGain * scalar.AutopoieticGradient(mag) / (mag + config.RateEpsilon)
	damping := cfg.DampingGain * scalar.Circumspection(in.CouplingMag)

	for k := 0; k < n; k++ {
		c := float64(in.Coherence[k])
		force := (attractor + autopoietic) * c
		if k < d {
			force += box[k]
			if len(in.Derivs.First) == d {
				force -= damping * in.Derivs.First[k]
			}
		}
		next[k] = float32(c + in.Dt*force)
	}
	return next
}

// #endregion step

// #region dalembertian

// dalembertian approximates the covariant second derivative of the
// coherence field over the analysis dimensions: the temporal second
// derivative corrected by the Christoffel contraction against the inverse
// metric. With an identity metric, a flat connection, and no history it is
// identically zero.
func dalembertian(in StepInput, d int) []float64 {
	out := make([]float64, d)
	if len(in.Derivs.Second) == d {
		copy(out, in.Derivs.Second)
	}
	if len(in.Gamma) != d*d*d || len(in.GInv) != d*d {
		return out
	}

	var gradSq float64
	if len(in.Derivs.First) == d {
		for _, v := range in.Derivs.First {
			gradSq += v * v
		}
	}
	if gradSq == 0 {
		return out
	}

	for k := 0; k < d; k++ {
		var corr float64
		for i := 0; i < d; i++ {
			for j := 0; j < d; j++ {
				corr += in.GInv[i*d+j] * in.Gamma[(k*d+i)*d+j]
			}
		}
		out[k] -= corr * gradSq
	}
	return out
}

// #endregion dalembertian
