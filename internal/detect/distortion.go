package detect

import (
	"fmt"

	"github.com/fieldgeom/manifold/internal/config"
	"github.com/fieldgeom/manifold/internal/scalar"
)

// Distortion detectors: coupling structure warps away from the shared
// field.

// #region projection

// SignalProjection (metric tension) fires when a strong negative bias
// co-occurs with concentrated threat-like structure.
func SignalProjection(in ProjectionInput, th DistortionThresholds) (Signature, bool) {
	if in.NegativeBias <= th.BiasThreshold || in.ThreatConcentration <= th.ConcentrationThreshold {
		return Signature{}, false
	}

	severity := scalar.Clip01(in.NegativeBias * in.ThreatConcentration * 2)
	return Signature{
		Type:               TypeSignalProjection,
		Severity:           severity,
		GeometricSignature: []float64{in.NegativeBias, in.ThreatConcentration},
		Evidence: fmt.Sprintf(
			"negative_bias=%.6f above bias_threshold=%.6f with concentration=%.6f above concentration_threshold=%.6f",
			in.NegativeBias, th.BiasThreshold, in.ThreatConcentration, th.ConcentrationThreshold),
	}, true
}

// #endregion projection

// #region decoupling

// OperativeDecoupling fires when divergence from the actor's own history,
// relative to current coherence, exceeds the ratio threshold.
func OperativeDecoupling(in DecouplingInput, th DistortionThresholds) (Signature, bool) {
	if in.Samples < 3 {
		return Signature{}, false
	}
	ratio := in.SelfDivergence / (in.CoherenceMag + config.RateEpsilon)
	if ratio <= th.DivergenceRatio {
		return Signature{}, false
	}

	severity := scalar.Clip01(ratio * in.ConsensusDivergence)
	return Signature{
		Type:               TypeOperativeDecoupling,
		Severity:           severity,
		GeometricSignature: []float64{in.SelfDivergence, in.CoherenceMag, in.ConsensusDivergence},
		Evidence: fmt.Sprintf(
			"self_divergence=%.6f vs coherence=%.6f ratio=%.6f above ratio_threshold=%.6f, consensus_divergence=%.6f",
			in.SelfDivergence, in.CoherenceMag, ratio, th.DivergenceRatio, in.ConsensusDivergence),
	}, true
}

// #endregion decoupling

// #region hypercoupling

// RecursiveHypercoupling fires when the self-coupling share of total
// coupling exceeds the threshold while the external share stays under the
// floor: the point couples mostly to its own history.
func RecursiveHypercoupling(in HypercouplingInput, th DistortionThresholds) (Signature, bool) {
	var selfSum, extSum float64
	for _, m := range in.SelfMagnitudes {
		selfSum += m
	}
	for _, m := range in.ExternalMagnitudes {
		extSum += m
	}
	total := selfSum + extSum
	if total < config.RateEpsilon {
		return Signature{}, false
	}

	selfShare := selfSum / total
	extShare := extSum / total
	if selfShare <= th.SelfShareThreshold || extShare >= th.ExternalShareFloor {
		return Signature{}, false
	}

	severity := scalar.Clip01(selfShare * (1 - extShare))
	return Signature{
		Type:               TypeRecursiveHypercoupling,
		Severity:           severity,
		GeometricSignature: []float64{selfShare, extShare},
		Evidence: fmt.Sprintf(
			"self_share=%.6f above share_threshold=%.6f with external_share=%.6f under share_floor=%.6f",
			selfShare, th.SelfShareThreshold, extShare, th.ExternalShareFloor),
	}, true
}

// #endregion hypercoupling

// #region multiplexer

// Distortion runs the three distortion detectors in declared order.
func Distortion(in DistortionInput, th DistortionThresholds) []Signature {
	var out []Signature
	if sig, ok := SignalProjection(in.Projection, th); ok {
		out = append(out, sig)
	}
	if sig, ok := OperativeDecoupling(in.Decoupling, th); ok {
		out = append(out, sig)
	}
	if sig, ok := RecursiveHypercoupling(in.Hypercoupling, th); ok {
		out = append(out, sig)
	}
	return out
}

// #endregion multiplexer
