package coupling

import (
	"time"

	"github.com/fieldgeom/manifold/internal/manifold"
	"github.com/fieldgeom/manifold/internal/scalar"
)

// #region edge

// Edge is one computed coupling between an ordered pair of points.
// Self-pairs are allowed; Self is true when both points belong to the same
// actor. Edges accumulate into a per-point time series in the store.
type Edge struct {
	ID          string
	SourceID    string
	TargetID    string
	SourceActor string
	TargetActor string

	// Tensor is the third-order coupling tensor, flat d^3. It may be
	// dropped after Magnitude is taken; Magnitude is always >= 0.
	Tensor    []float64
	Magnitude float64

	Self          bool
	EvolutionRate float64
	ComputedAt    time.Time
}

// #endregion edge

// #region tensor

// Tensor computes the third-order coupling tensor between two points from
// mixed finite-difference partials over their semantic and coherence
// fields, restricted to the first d components:
//
//	R_ijk = dS_i * dC_j * X_k
//
// where dS and dC are cross-point secants of the semantic and coherence
// fields over step h, and X is the mixed semantic/coherence exchange term.
// The p == q case degenerates to the zero tensor (a point exerts no
// first-order coupling on an identical copy of itself).
func Tensor(p, q *manifold.Point, h float64, d int) []float64 {
	out := make([]float64, d*d*d)
	if h == 0 {
		return out
	}
	if len(p.SemanticField) < d || len(p.CoherenceField) < d ||
		len(q.SemanticField) < d || len(q.CoherenceField) < d {
		return out
	}

	ds := make([]float64, d)
	dc := make([]float64, d)
	mixed := make([]float64, d)
	for i := 0; i < d; i++ {
		ds[i] = (float64(q.SemanticField[i]) - float64(p.SemanticField[i])) / h
		dc[i] = (float64(q.CoherenceField[i]) - float64(p.CoherenceField[i])) / h
		mixed[i] = (float64(p.SemanticField[i])*float64(q.CoherenceField[i]) -
			float64(q.SemanticField[i])*float64(p.CoherenceField[i])) / h
	}

	for i := 0; i < d; i++ {
		if ds[i] == 0 {
			continue
		}
		for j := 0; j < d; j++ {
			if dc[j] == 0 {
				continue
			}
			base := ds[i] * dc[j]
			for k := 0; k < d; k++ {
				out[(i*d+j)*d+k] = base * mixed[k]
			}
		}
	}
	return out
}

// Magnitude is the Frobenius norm of a coupling tensor.
func Magnitude(t []float64) float64 {
	return scalar.FrobeniusNorm(t)
}

// #endregion tensor

// #region compute

// Compute builds a full Edge for the ordered pair (p, q). prevMagnitude is
// the magnitude of the most recent prior edge for the same pair (0 when
// none); the evolution rate is the magnitude change per unit elapsed time
// against that edge.
func Compute(p, q *manifold.Point, h float64, d int, prevMagnitude float64, prevAt time.Time) Edge {
	t := Tensor(p, q, h, d)
	mag := Magnitude(t)
	now := time.Now().UTC()

	var rate float64
	if !prevAt.IsZero() {
		elapsed := now.Sub(prevAt).Seconds()
		if elapsed > 0 {
			rate = (mag - prevMagnitude) / elapsed
		}
	}

	return Edge{
		SourceID:      p.ID,
		TargetID:      q.ID,
		SourceActor:   p.ActorID,
		TargetActor:   q.ActorID,
		Tensor:        t,
		Magnitude:     mag,
		Self:          p.ActorID != "" && p.ActorID == q.ActorID,
		EvolutionRate: rate,
		ComputedAt:    now,
	}
}

// #endregion compute
