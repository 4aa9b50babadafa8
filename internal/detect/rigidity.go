package detect

import (
	"fmt"
	"math"

	"github.com/fieldgeom/manifold/internal/config"
	"github.com/fieldgeom/manifold/internal/scalar"
)

// Rigidity detectors: the field stops moving while still carrying
// structure. Each detector is a total function of its input and thresholds:
// it returns (Signature, true) on a hit and (Signature{}, false) otherwise,
// including every insufficient-data case.

// #region crystallization

// MetricCrystallization fires when the metric evolution rate is near zero
// while the scalar curvature is not: structure frozen in a curved
// configuration.
func MetricCrystallization(in CrystallizationInput, th RigidityThresholds) (Signature, bool) {
	if in.Samples < 3 {
		return Signature{}, false
	}
	curv := math.Abs(in.ScalarCurvature)
	if in.EvolutionRate >= th.MaxEvolutionRate || curv <= th.MinCurvature {
		return Signature{}, false
	}

	severity := scalar.Clip01(curv / (in.EvolutionRate + config.RateEpsilon) / 100)
	return Signature{
		Type:               TypeMetricCrystallization,
		Severity:           severity,
		GeometricSignature: []float64{in.EvolutionRate, in.ScalarCurvature},
		Evidence: fmt.Sprintf(
			"evolution_rate=%.6f below max_evolution=%.6f with curvature=%.6f above min_curvature=%.6f",
			in.EvolutionRate, th.MaxEvolutionRate, curv, th.MinCurvature),
	}, true
}

// #endregion crystallization

// #region calcification

// FieldCalcification fires when the coherence field stops responding to
// applied pressure over the window.
func FieldCalcification(in CalcificationInput, th RigidityThresholds) (Signature, bool) {
	if in.Samples < 3 || in.Pressure < th.MinPressure {
		return Signature{}, false
	}
	ratio := in.Pressure / (in.Response + config.RateEpsilon)
	if ratio <= th.PressureResponseRatio {
		return Signature{}, false
	}

	severity := scalar.Clip01(ratio / 50)
	return Signature{
		Type:               TypeFieldCalcification,
		Severity:           severity,
		GeometricSignature: []float64{in.Pressure, in.Response},
		Evidence: fmt.Sprintf(
			"pressure=%.6f response=%.6f ratio=%.6f above ratio_threshold=%.6f",
			in.Pressure, in.Response, ratio, th.PressureResponseRatio),
	}, true
}

// #endregion calcification

// #region isolation

// AttractorIsolation fires when a highly stable attractor is held by a
// constraining force far exceeding the autopoietic potential of its
// coherence: the structure is pinned, not self-sustaining.
func AttractorIsolation(in IsolationInput, th RigidityThresholds) (Signature, bool) {
	if in.Stability <= th.StabilityThreshold {
		return Signature{}, false
	}
	phi := scalar.AutopoieticPotential(in.CoherenceMag)
	ratio := in.ConstrainingForce / (phi + config.RateEpsilon)
	if ratio <= th.ForcePotentialRatio {
		return Signature{}, false
	}

	severity := scalar.Clip01(ratio / 10)
	return Signature{
		Type:               TypeAttractorIsolation,
		Severity:           severity,
		GeometricSignature: []float64{in.Stability, in.ConstrainingForce, phi},
		Evidence: fmt.Sprintf(
			"stability=%.6f above stability_threshold=%.6f, force=%.6f vs potential=%.6f exceeds ratio=%.6f",
			in.Stability, th.StabilityThreshold, in.ConstrainingForce, phi, th.ForcePotentialRatio),
	}, true
}

// #endregion isolation

// #region multiplexer

// Rigidity runs the three rigidity detectors in declared order.
func Rigidity(in RigidityInput, th RigidityThresholds) []Signature {
	var out []Signature
	if sig, ok := MetricCrystallization(in.Crystallization, th); ok {
		out = append(out, sig)
	}
	if sig, ok := FieldCalcification(in.Calcification, th); ok {
		out = append(out, sig)
	}
	if sig, ok := AttractorIsolation(in.Isolation, th); ok {
		out = append(out, sig)
	}
	return out
}

// #endregion multiplexer
