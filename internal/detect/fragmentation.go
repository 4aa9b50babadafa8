package detect

import (
	"fmt"
	"math"

	"github.com/fieldgeom/manifold/internal/config"
	"github.com/fieldgeom/manifold/internal/field"
	"github.com/fieldgeom/manifold/internal/scalar"
)

// Fragmentation detectors: the field comes apart faster than it can
// restructure.

// #region dissociation

// AttractorDissociation fires when new attractors appear faster than the
// autopoietic potential can sustain them.
func AttractorDissociation(in DissociationInput, th FragmentationThresholds) (Signature, bool) {
	if in.Samples < 3 {
		return Signature{}, false
	}
	potentialRate := math.Abs(in.PotentialRate)
	if in.NewAttractorRate <= th.DissociationKappa*math.Max(in.PotentialRate, config.RateEpsilon) {
		return Signature{}, false
	}

	severity := scalar.Clip01(in.NewAttractorRate / (potentialRate + config.RateEpsilon) / 10)
	return Signature{
		Type:               TypeAttractorDissociation,
		Severity:           severity,
		GeometricSignature: []float64{in.NewAttractorRate, in.PotentialRate},
		Evidence: fmt.Sprintf(
			"attractor_rate=%.6f exceeds kappa=%.6f * potential_rate=%.6f",
			in.NewAttractorRate, th.DissociationKappa, in.PotentialRate),
	}, true
}

// #endregion dissociation

// #region dissolution

// FieldDissolution fires when the coherence gradient dominates the
// coherence magnitude while the second derivative is positive: the field is
// flying apart and accelerating.
func FieldDissolution(in DissolutionInput, th FragmentationThresholds) (Signature, bool) {
	if in.Samples < 3 || in.SecondDeriv <= 0 {
		return Signature{}, false
	}
	ratio := in.GradientNorm / (in.CoherenceMag + config.RateEpsilon)
	if ratio <= th.DissolutionRatio {
		return Signature{}, false
	}

	severity := scalar.Clip01(ratio / 10)
	return Signature{
		Type:               TypeFieldDissolution,
		Severity:           severity,
		GeometricSignature: []float64{in.GradientNorm, in.CoherenceMag, in.SecondDeriv},
		Evidence: fmt.Sprintf(
			"gradient_norm=%.6f vs coherence=%.6f ratio=%.6f above ratio_threshold=%.6f with second_deriv=%.6f positive",
			in.GradientNorm, in.CoherenceMag, ratio, th.DissolutionRatio, in.SecondDeriv),
	}, true
}

// #endregion dissolution

// #region dispersion

// CouplingDispersion fires when the coupling magnitude series trends
// downward and sapience is too low to compensate.
func CouplingDispersion(in DispersionInput, th FragmentationThresholds) (Signature, bool) {
	if len(in.CouplingSeries) < 3 {
		return Signature{}, false
	}
	slope := field.Slope(in.CouplingSeries)
	if slope >= -th.DecayThreshold || in.Sapience >= th.SapienceCompensation {
		return Signature{}, false
	}

	severity := scalar.Clip01(math.Abs(slope) * (1 - in.Sapience) * 10)
	return Signature{
		Type:               TypeCouplingDispersion,
		Severity:           severity,
		GeometricSignature: []float64{slope, in.Sapience},
		Evidence: fmt.Sprintf(
			"coupling_slope=%.6f below -decay_threshold=%.6f with sapience=%.6f under compensation=%.6f",
			slope, th.DecayThreshold, in.Sapience, th.SapienceCompensation),
	}, true
}

// #endregion dispersion

// #region multiplexer

// Fragmentation runs the three fragmentation detectors in declared order.
func Fragmentation(in FragmentationInput, th FragmentationThresholds) []Signature {
	var out []Signature
	if sig, ok := AttractorDissociation(in.Dissociation, th); ok {
		out = append(out, sig)
	}
	if sig, ok := FieldDissolution(in.Dissolution, th); ok {
		out = append(out, sig)
	}
	if sig, ok := CouplingDispersion(in.Dispersion, th); ok {
		out = append(out, sig)
	}
	return out
}

// #endregion multiplexer
