package detect

// #region signature

// Detector type names, grouped by category in declared evaluation order.
const (
	TypeMetricCrystallization = "metric_crystallization"
	TypeFieldCalcification    = "field_calcification"
	TypeAttractorIsolation    = "attractor_isolation"

	TypeAttractorDissociation = "attractor_dissociation"
	TypeFieldDissolution      = "field_dissolution"
	TypeCouplingDispersion    = "coupling_dispersion"

	TypeStructureHyperexpansion = "structure_hyperexpansion"
	TypeFieldHypercoherence     = "field_hypercoherence"
	TypeBoundaryHyperasymmetry  = "boundary_hyperasymmetry"

	TypeSignalProjection      = "signal_projection"
	TypeOperativeDecoupling   = "operative_decoupling"
	TypeRecursiveHypercoupling = "recursive_hypercoupling"
)

// Category names in fixed top-level order.
const (
	CategoryRigidity      = "rigidity"
	CategoryFragmentation = "fragmentation"
	CategoryInflation     = "inflation"
	CategoryDistortion    = "distortion"
)

// Signature is one detected pathology instance. It is ephemeral output:
// produced fresh per call, never persisted by the core itself.
//
// Every positive detection carries the raw quantities that produced the
// score (GeometricSignature) and a fixed-point evidence string naming the
// literal values compared against the literal threshold. Downstream
// auditing inspects the evidence text, so its presence is a contract.
type Signature struct {
	Type               string
	Severity           float64 // always in [0,1]
	GeometricSignature []float64
	Evidence           string
}

// CategoryOf maps a signature type to its category. Unknown types map to
// the empty string.
func CategoryOf(sigType string) string {
	switch sigType {
	case TypeMetricCrystallization, TypeFieldCalcification, TypeAttractorIsolation:
		return CategoryRigidity
	case TypeAttractorDissociation, TypeFieldDissolution, TypeCouplingDispersion:
		return CategoryFragmentation
	case TypeStructureHyperexpansion, TypeFieldHypercoherence, TypeBoundaryHyperasymmetry:
		return CategoryInflation
	case TypeSignalProjection, TypeOperativeDecoupling, TypeRecursiveHypercoupling:
		return CategoryDistortion
	}
	return ""
}

// #endregion signature

// #region rigidity-inputs

// CrystallizationInput feeds the metric crystallization detector.
type CrystallizationInput struct {
	EvolutionRate   float64 // mean metric change per step over the window
	ScalarCurvature float64
	Samples         int // history samples backing EvolutionRate
}

// CalcificationInput feeds the field calcification detector.
type CalcificationInput struct {
	Pressure float64 // mean applied semantic pressure over the window
	Response float64 // mean coherence response over the window
	Samples  int
}

// IsolationInput feeds the attractor isolation detector.
type IsolationInput struct {
	Stability         float64 // attractor stability component
	ConstrainingForce float64
	CoherenceMag      float64
}

// RigidityInput bundles the three rigidity detectors' inputs.
type RigidityInput struct {
	Crystallization CrystallizationInput
	Calcification   CalcificationInput
	Isolation       IsolationInput
}

// #endregion rigidity-inputs

// #region fragmentation-inputs

// DissociationInput feeds the attractor dissociation detector.
type DissociationInput struct {
	NewAttractorRate float64 // new attractors per step over the window
	PotentialRate    float64 // dPhi/dt over the same window
	Samples          int
}

// DissolutionInput feeds the field dissolution detector.
type DissolutionInput struct {
	GradientNorm float64 // ||grad C||
	CoherenceMag float64
	SecondDeriv  float64 // mean second derivative of coherence magnitude
	Samples      int
}

// DispersionInput feeds the coupling dispersion detector.
type DispersionInput struct {
	CouplingSeries []float64 // ordered coupling magnitudes, oldest first
	Sapience       float64
}

// FragmentationInput bundles the three fragmentation detectors' inputs.
type FragmentationInput struct {
	Dissociation DissociationInput
	Dissolution  DissolutionInput
	Dispersion   DispersionInput
}

// #endregion fragmentation-inputs

// #region inflation-inputs

// HyperexpansionInput feeds the structure hyperexpansion detector.
type HyperexpansionInput struct {
	CoherenceMag      float64
	ConstrainingForce float64
	Circumspection    float64 // [0,1]
	Sapience          float64 // [0,1]
}

// HypercoherenceInput feeds the field hypercoherence detector.
type HypercoherenceInput struct {
	CoherenceMag float64
	ExternalFlux float64 // mean external coupling flux, [0,1]
}

// HyperasymmetryInput feeds the boundary hyperasymmetry detector.
type HyperasymmetryInput struct {
	LocalMassGrowth  float64 // local semantic mass growth over the window
	NonlocalMassTrend float64 // trend of comparison-baseline mass
	Samples          int
}

// InflationInput bundles the three inflation detectors' inputs.
type InflationInput struct {
	Hyperexpansion HyperexpansionInput
	Hypercoherence HypercoherenceInput
	Hyperasymmetry HyperasymmetryInput
}

// #endregion inflation-inputs

// #region distortion-inputs

// ProjectionInput feeds the signal projection (metric tension) detector.
type ProjectionInput struct {
	NegativeBias        float64 // [0,1]
	ThreatConcentration float64 // [0,1]
}

// DecouplingInput feeds the operative decoupling detector.
type DecouplingInput struct {
	SelfDivergence      float64 // divergence from the actor's own history
	CoherenceMag        float64
	ConsensusDivergence float64 // divergence from the comparison baseline
	Samples             int
}

// HypercouplingInput feeds the recursive hypercoupling detector.
type HypercouplingInput struct {
	SelfMagnitudes     []float64 // same-actor coupling magnitudes
	ExternalMagnitudes []float64 // cross-actor coupling magnitudes
}

// DistortionInput bundles the three distortion detectors' inputs.
type DistortionInput struct {
	Projection     ProjectionInput
	Decoupling     DecouplingInput
	Hypercoupling  HypercouplingInput
}

// #endregion distortion-inputs

// #region input

// Input bundles all four categories for the all-signatures call.
type Input struct {
	Rigidity      RigidityInput
	Fragmentation FragmentationInput
	Inflation     InflationInput
	Distortion    DistortionInput
}

// #endregion input
