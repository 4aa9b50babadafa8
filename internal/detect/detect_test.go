package detect

import (
	"math"
	"math/rand"
	"testing"
)

// checkSignature enforces the output contract on a positive detection.
func checkSignature(t *testing.T, sig Signature) {
	t.Helper()
	if sig.Severity < 0 || sig.Severity > 1 {
		t.Fatalf("%s: severity %v outside [0,1]", sig.Type, sig.Severity)
	}
	if math.IsNaN(sig.Severity) {
		t.Fatalf("%s: severity is NaN", sig.Type)
	}
	if sig.Evidence == "" {
		t.Fatalf("%s: empty evidence string", sig.Type)
	}
	if len(sig.GeometricSignature) == 0 {
		t.Fatalf("%s: empty geometric signature", sig.Type)
	}
}

func TestMetricCrystallizationFires(t *testing.T) {
	in := CrystallizationInput{EvolutionRate: 0.001, ScalarCurvature: 2.5, Samples: 5}
	sig, ok := MetricCrystallization(in, DefaultRigidityThresholds())
	if !ok {
		t.Fatal("expected crystallization to fire")
	}
	checkSignature(t, sig)
	if sig.Severity != 1 {
		t.Fatalf("severity = %v, want clipped 1", sig.Severity)
	}
}

func TestMetricCrystallizationHealthyMetric(t *testing.T) {
	// A metric that still evolves does not crystallize, whatever the curvature.
	in := CrystallizationInput{EvolutionRate: 0.5, ScalarCurvature: 10, Samples: 5}
	if _, ok := MetricCrystallization(in, DefaultRigidityThresholds()); ok {
		t.Fatal("evolving metric must not fire")
	}
}

func TestInsufficientHistoryYieldsZeroRows(t *testing.T) {
	th := DefaultThresholds()

	// Every windowed detector with a 2-sample history: no rows, no panic.
	if _, ok := MetricCrystallization(CrystallizationInput{EvolutionRate: 0, ScalarCurvature: 10, Samples: 2}, th.Rigidity); ok {
		t.Fatal("crystallization fired with 2 samples")
	}
	if _, ok := FieldCalcification(CalcificationInput{Pressure: 1, Response: 0, Samples: 2}, th.Rigidity); ok {
		t.Fatal("calcification fired with 2 samples")
	}
	if _, ok := AttractorDissociation(DissociationInput{NewAttractorRate: 10, Samples: 2}, th.Fragmentation); ok {
		t.Fatal("dissociation fired with 2 samples")
	}
	if _, ok := FieldDissolution(DissolutionInput{GradientNorm: 10, CoherenceMag: 0.1, SecondDeriv: 1, Samples: 2}, th.Fragmentation); ok {
		t.Fatal("dissolution fired with 2 samples")
	}
	if _, ok := CouplingDispersion(DispersionInput{CouplingSeries: []float64{0.5, 0.1}}, th.Fragmentation); ok {
		t.Fatal("dispersion fired with 2 samples")
	}
	if _, ok := BoundaryHyperasymmetry(HyperasymmetryInput{LocalMassGrowth: 1, NonlocalMassTrend: -1, Samples: 2}, th.Inflation); ok {
		t.Fatal("hyperasymmetry fired with 2 samples")
	}
	if _, ok := OperativeDecoupling(DecouplingInput{SelfDivergence: 10, CoherenceMag: 0.1, ConsensusDivergence: 1, Samples: 2}, th.Distortion); ok {
		t.Fatal("decoupling fired with 2 samples")
	}
	// Zero coupling total: hypercoupling stays silent.
	if _, ok := RecursiveHypercoupling(HypercouplingInput{}, th.Distortion); ok {
		t.Fatal("hypercoupling fired with no edges")
	}
}

func TestFieldHypercoherenceScenario(t *testing.T) {
	in := HypercoherenceInput{CoherenceMag: 0.95, ExternalFlux: 0.05}
	sig, ok := FieldHypercoherence(in, DefaultInflationThresholds())
	if !ok {
		t.Fatal("expected hypercoherence to fire")
	}
	checkSignature(t, sig)
	if math.Abs(sig.Severity-0.9025) > 1e-9 {
		t.Fatalf("severity = %v, want 0.9025", sig.Severity)
	}
}

func TestFieldHypercoherenceLeakyFieldHealthy(t *testing.T) {
	in := HypercoherenceInput{CoherenceMag: 0.95, ExternalFlux: 0.5}
	if _, ok := FieldHypercoherence(in, DefaultInflationThresholds()); ok {
		t.Fatal("leaky field must not fire")
	}
}

func TestRecursiveHypercouplingScenario(t *testing.T) {
	in := HypercouplingInput{
		SelfMagnitudes:     []float64{0.95, 0.90, 0.85, 0.80},
		ExternalMagnitudes: []float64{0.05},
	}
	sig, ok := RecursiveHypercoupling(in, DefaultDistortionThresholds())
	if !ok {
		t.Fatal("expected hypercoupling to fire")
	}
	checkSignature(t, sig)
	selfShare := 3.5 / 3.55
	extShare := 0.05 / 3.55
	want := selfShare * (1 - extShare)
	if math.Abs(sig.Severity-want) > 1e-9 {
		t.Fatalf("severity = %v, want %v", sig.Severity, want)
	}
	if math.Abs(sig.Severity-0.972) > 1e-3 {
		t.Fatalf("severity = %v, want about 0.972", sig.Severity)
	}
}

func TestCouplingDispersionScenario(t *testing.T) {
	in := DispersionInput{
		CouplingSeries: []float64{0.6, 0.4, 0.2, 0.1},
		Sapience:       0,
	}
	sig, ok := CouplingDispersion(in, DefaultFragmentationThresholds())
	if !ok {
		t.Fatal("expected dispersion to fire")
	}
	checkSignature(t, sig)
	// Slope is -0.17; |slope|*10 clips to 1.
	if sig.Severity != 1 {
		t.Fatalf("severity = %v, want 1", sig.Severity)
	}
}

func TestCouplingDispersionSapienceCompensates(t *testing.T) {
	in := DispersionInput{
		CouplingSeries: []float64{0.6, 0.4, 0.2, 0.1},
		Sapience:       0.9,
	}
	if _, ok := CouplingDispersion(in, DefaultFragmentationThresholds()); ok {
		t.Fatal("high sapience should compensate dispersion")
	}
}

func TestStructureHyperexpansionGates(t *testing.T) {
	th := DefaultInflationThresholds()
	base := HyperexpansionInput{
		CoherenceMag:      1.5, // potential = 0.64
		ConstrainingForce: 0.01,
		Circumspection:    0.0,
		Sapience:          0.0,
	}
	sig, ok := StructureHyperexpansion(base, th)
	if !ok {
		t.Fatal("expected hyperexpansion to fire")
	}
	checkSignature(t, sig)

	// Each regulation channel alone suppresses it.
	regulated := base
	regulated.Circumspection = 0.5
	if _, ok := StructureHyperexpansion(regulated, th); ok {
		t.Fatal("circumspection should suppress hyperexpansion")
	}
	regulated = base
	regulated.Sapience = 0.9
	if _, ok := StructureHyperexpansion(regulated, th); ok {
		t.Fatal("sapience should suppress hyperexpansion")
	}
}

func TestBoundaryHyperasymmetryFires(t *testing.T) {
	in := HyperasymmetryInput{LocalMassGrowth: 0.5, NonlocalMassTrend: -0.3, Samples: 4}
	sig, ok := BoundaryHyperasymmetry(in, DefaultInflationThresholds())
	if !ok {
		t.Fatal("expected hyperasymmetry to fire")
	}
	checkSignature(t, sig)
	if math.Abs(sig.Severity-0.75) > 1e-9 {
		t.Fatalf("severity = %v, want 0.5*0.3*5 = 0.75", sig.Severity)
	}
}

func TestSignalProjectionFires(t *testing.T) {
	in := ProjectionInput{NegativeBias: 0.8, ThreatConcentration: 0.7}
	sig, ok := SignalProjection(in, DefaultDistortionThresholds())
	if !ok {
		t.Fatal("expected projection to fire")
	}
	checkSignature(t, sig)
	if math.Abs(sig.Severity-1) > 1e-9 { // 0.8*0.7*2 = 1.12 clips
		t.Fatalf("severity = %v, want 1", sig.Severity)
	}
}

func TestOperativeDecouplingFires(t *testing.T) {
	in := DecouplingInput{SelfDivergence: 2.0, CoherenceMag: 0.5, ConsensusDivergence: 0.2, Samples: 5}
	sig, ok := OperativeDecoupling(in, DefaultDistortionThresholds())
	if !ok {
		t.Fatal("expected decoupling to fire")
	}
	checkSignature(t, sig)
	if math.Abs(sig.Severity-0.8) > 1e-6 { // ratio 4 * 0.2
		t.Fatalf("severity = %v, want 0.8", sig.Severity)
	}
}

func TestAllPreservesCategoryOrder(t *testing.T) {
	in := Input{
		Rigidity: RigidityInput{
			Crystallization: CrystallizationInput{EvolutionRate: 0.001, ScalarCurvature: 2.5, Samples: 5},
		},
		Inflation: InflationInput{
			Hypercoherence: HypercoherenceInput{CoherenceMag: 0.95, ExternalFlux: 0.05},
		},
		Distortion: DistortionInput{
			Hypercoupling: HypercouplingInput{
				SelfMagnitudes:     []float64{0.95, 0.90, 0.85, 0.80},
				ExternalMagnitudes: []float64{0.05},
			},
		},
	}
	sigs := All(in, DefaultThresholds())
	if len(sigs) != 3 {
		t.Fatalf("got %d signatures, want 3", len(sigs))
	}
	wantOrder := []string{TypeMetricCrystallization, TypeFieldHypercoherence, TypeRecursiveHypercoupling}
	for i, w := range wantOrder {
		if sigs[i].Type != w {
			t.Fatalf("signature %d = %s, want %s", i, sigs[i].Type, w)
		}
	}
}

func TestAllEmptyInputIsHealthy(t *testing.T) {
	if sigs := All(Input{}, DefaultThresholds()); len(sigs) != 0 {
		t.Fatalf("empty input produced %d signatures, want 0", len(sigs))
	}
}

// TestSeverityBoundedUnderFuzzing drives every detector with random inputs
// and thresholds and checks the [0,1] severity contract and the evidence
// contract on every emitted row.
func TestSeverityBoundedUnderFuzzing(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	mag := func() float64 { return rng.Float64() * 10 }
	signed := func() float64 { return (rng.Float64() - 0.5) * 20 }
	unit := func() float64 { return rng.Float64() }

	for i := 0; i < 2000; i++ {
		th := Thresholds{
			Rigidity: RigidityThresholds{
				MaxEvolutionRate: unit(), MinCurvature: mag(),
				MinPressure: unit(), PressureResponseRatio: mag(),
				StabilityThreshold: unit(), ForcePotentialRatio: mag(),
			},
			Fragmentation: FragmentationThresholds{
				DissociationKappa: mag(), DissolutionRatio: mag(),
				DecayThreshold: unit(), SapienceCompensation: unit(),
			},
			Inflation: InflationThresholds{
				ExpansionRatio: mag(), CircumspectionFloor: unit(), SapienceThreshold: unit(),
				CoherenceCap: unit(), LeakThreshold: unit(),
				GrowthThreshold: unit(), DrainThreshold: unit(),
			},
			Distortion: DistortionThresholds{
				BiasThreshold: unit(), ConcentrationThreshold: unit(),
				DivergenceRatio: mag(), SelfShareThreshold: unit(), ExternalShareFloor: unit(),
			},
		}

		series := make([]float64, 3+rng.Intn(5))
		for j := range series {
			series[j] = mag()
		}

		in := Input{
			Rigidity: RigidityInput{
				Crystallization: CrystallizationInput{EvolutionRate: mag(), ScalarCurvature: signed(), Samples: rng.Intn(8)},
				Calcification:   CalcificationInput{Pressure: mag(), Response: mag(), Samples: rng.Intn(8)},
				Isolation:       IsolationInput{Stability: unit() * 2, ConstrainingForce: mag(), CoherenceMag: mag()},
			},
			Fragmentation: FragmentationInput{
				Dissociation: DissociationInput{NewAttractorRate: mag(), PotentialRate: signed(), Samples: rng.Intn(8)},
				Dissolution:  DissolutionInput{GradientNorm: mag(), CoherenceMag: mag(), SecondDeriv: signed(), Samples: rng.Intn(8)},
				Dispersion:   DispersionInput{CouplingSeries: series, Sapience: unit()},
			},
			Inflation: InflationInput{
				Hyperexpansion: HyperexpansionInput{CoherenceMag: mag(), ConstrainingForce: mag(), Circumspection: unit(), Sapience: unit()},
				Hypercoherence: HypercoherenceInput{CoherenceMag: mag(), ExternalFlux: unit()},
				Hyperasymmetry: HyperasymmetryInput{LocalMassGrowth: signed(), NonlocalMassTrend: signed(), Samples: rng.Intn(8)},
			},
			Distortion: DistortionInput{
				Projection:    ProjectionInput{NegativeBias: unit(), ThreatConcentration: unit()},
				Decoupling:    DecouplingInput{SelfDivergence: mag(), CoherenceMag: mag(), ConsensusDivergence: mag(), Samples: rng.Intn(8)},
				Hypercoupling: HypercouplingInput{SelfMagnitudes: []float64{mag(), mag()}, ExternalMagnitudes: []float64{mag()}},
			},
		}

		for _, sig := range All(in, th) {
			checkSignature(t, sig)
		}
	}
}
