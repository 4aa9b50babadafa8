package detect

import (
	"fmt"
	"math"

	"github.com/fieldgeom/manifold/internal/config"
	"github.com/fieldgeom/manifold/internal/scalar"
)

// Inflation detectors: structure grows past what regulation can absorb.

// #region hyperexpansion

// StructureHyperexpansion fires when the autopoietic potential dwarfs the
// constraining force while both circumspection and sapience are absent:
// unregulated structure generation.
func StructureHyperexpansion(in HyperexpansionInput, th InflationThresholds) (Signature, bool) {
	phi := scalar.AutopoieticPotential(in.CoherenceMag)
	ratio := phi / (in.ConstrainingForce + config.RateEpsilon)
	if ratio <= th.ExpansionRatio ||
		in.Circumspection >= th.CircumspectionFloor ||
		in.Sapience >= th.SapienceThreshold {
		return Signature{}, false
	}

	severity := scalar.Clip01(ratio * (1 - in.Sapience) * (1 - in.Circumspection) / 20)
	return Signature{
		Type:               TypeStructureHyperexpansion,
		Severity:           severity,
		GeometricSignature: []float64{phi, in.ConstrainingForce, in.Circumspection, in.Sapience},
		Evidence: fmt.Sprintf(
			"potential=%.6f vs force=%.6f ratio=%.6f above expansion_ratio=%.6f, circumspection=%.6f under floor=%.6f, sapience=%.6f under threshold=%.6f",
			phi, in.ConstrainingForce, ratio, th.ExpansionRatio,
			in.Circumspection, th.CircumspectionFloor, in.Sapience, th.SapienceThreshold),
	}, true
}

// #endregion hyperexpansion

// #region hypercoherence

// FieldHypercoherence fires when coherence magnitude exceeds the cap while
// external flux is below the leak threshold: a sealed, over-coherent field.
func FieldHypercoherence(in HypercoherenceInput, th InflationThresholds) (Signature, bool) {
	if in.CoherenceMag <= th.CoherenceCap || in.ExternalFlux >= th.LeakThreshold {
		return Signature{}, false
	}

	severity := scalar.Clip01(in.CoherenceMag * (1 - in.ExternalFlux))
	return Signature{
		Type:               TypeFieldHypercoherence,
		Severity:           severity,
		GeometricSignature: []float64{in.CoherenceMag, in.ExternalFlux},
		Evidence: fmt.Sprintf(
			"coherence=%.6f above cap=%.6f with external_flux=%.6f under leak_threshold=%.6f",
			in.CoherenceMag, th.CoherenceCap, in.ExternalFlux, th.LeakThreshold),
	}, true
}

// #endregion hypercoherence

// #region hyperasymmetry

// BoundaryHyperasymmetry fires when local semantic mass grows while the
// non-local comparison mass drains: the point inflates at its
// surroundings' expense.
func BoundaryHyperasymmetry(in HyperasymmetryInput, th InflationThresholds) (Signature, bool) {
	if in.Samples < 3 {
		return Signature{}, false
	}
	if in.LocalMassGrowth <= th.GrowthThreshold || in.NonlocalMassTrend >= -th.DrainThreshold {
		return Signature{}, false
	}

	drain := math.Abs(in.NonlocalMassTrend)
	severity := scalar.Clip01(in.LocalMassGrowth * drain * 5)
	return Signature{
		Type:               TypeBoundaryHyperasymmetry,
		Severity:           severity,
		GeometricSignature: []float64{in.LocalMassGrowth, in.NonlocalMassTrend},
		Evidence: fmt.Sprintf(
			"local_growth=%.6f above growth_threshold=%.6f with nonlocal_trend=%.6f under -drain_threshold=%.6f",
			in.LocalMassGrowth, th.GrowthThreshold, in.NonlocalMassTrend, th.DrainThreshold),
	}, true
}

// #endregion hyperasymmetry

// #region multiplexer

// Inflation runs the three inflation detectors in declared order.
func Inflation(in InflationInput, th InflationThresholds) []Signature {
	var out []Signature
	if sig, ok := StructureHyperexpansion(in.Hyperexpansion, th); ok {
		out = append(out, sig)
	}
	if sig, ok := FieldHypercoherence(in.Hypercoherence, th); ok {
		out = append(out, sig)
	}
	if sig, ok := BoundaryHyperasymmetry(in.Hyperasymmetry, th); ok {
		out = append(out, sig)
	}
	return out
}

// #endregion multiplexer
