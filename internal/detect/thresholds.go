package detect

// #region rigidity

// RigidityThresholds parameterize the rigidity category.
type RigidityThresholds struct {
	MaxEvolutionRate float64 // below this the metric counts as frozen
	MinCurvature     float64 // curvature that a frozen metric must not carry

	MinPressure           float64 // pressure below this is not a probe
	PressureResponseRatio float64 // pressure/response ratio that fires

	StabilityThreshold  float64 // attractor stability gate
	ForcePotentialRatio float64 // force/potential ratio that fires
}

// DefaultRigidityThresholds returns the standard rigidity parameters.
func DefaultRigidityThresholds() RigidityThresholds {
	return RigidityThresholds{
		MaxEvolutionRate:      0.01,
		MinCurvature:          0.1,
		MinPressure:           0.05,
		PressureResponseRatio: 5.0,
		StabilityThreshold:    0.8,
		ForcePotentialRatio:   3.0,
	}
}

// #endregion rigidity

// #region fragmentation

// FragmentationThresholds parameterize the fragmentation category.
type FragmentationThresholds struct {
	DissociationKappa float64 // new-attractor rate vs potential rate multiplier

	DissolutionRatio float64 // gradient/magnitude ratio that fires

	DecayThreshold       float64 // minimum negative coupling slope magnitude
	SapienceCompensation float64 // sapience above this compensates decay
}

// DefaultFragmentationThresholds returns the standard fragmentation parameters.
func DefaultFragmentationThresholds() FragmentationThresholds {
	return FragmentationThresholds{
		DissociationKappa:    2.0,
		DissolutionRatio:     3.0,
		DecayThreshold:       0.05,
		SapienceCompensation: 0.5,
	}
}

// #endregion fragmentation

// #region inflation

// InflationThresholds parameterize the inflation category.
type InflationThresholds struct {
	ExpansionRatio     float64 // potential/force ratio that fires
	CircumspectionFloor float64 // circumspection below this is absent
	SapienceThreshold  float64 // sapience gate for hyperexpansion

	CoherenceCap  float64 // coherence magnitude above this is hypercoherent
	LeakThreshold float64 // external flux below this means no leak

	GrowthThreshold float64 // local mass growth gate
	DrainThreshold  float64 // non-local trend below -this is a drain
}

// DefaultInflationThresholds returns the standard inflation parameters.
func DefaultInflationThresholds() InflationThresholds {
	return InflationThresholds{
		ExpansionRatio:      4.0,
		CircumspectionFloor: 0.1,
		SapienceThreshold:   0.5,
		CoherenceCap:        0.9,
		LeakThreshold:       0.1,
		GrowthThreshold:     0.2,
		DrainThreshold:      0.01,
	}
}

// #endregion inflation

// #region distortion

// DistortionThresholds parameterize the distortion category.
type DistortionThresholds struct {
	BiasThreshold          float64 // negative bias gate
	ConcentrationThreshold float64 // threat-like co-occurrence gate

	DivergenceRatio float64 // self-divergence/coherence ratio that fires

	SelfShareThreshold float64 // self-coupling share gate
	ExternalShareFloor float64 // external share below this fires
}

// DefaultDistortionThresholds returns the standard distortion parameters.
func DefaultDistortionThresholds() DistortionThresholds {
	return DistortionThresholds{
		BiasThreshold:          0.6,
		ConcentrationThreshold: 0.5,
		DivergenceRatio:        2.0,
		SelfShareThreshold:     0.8,
		ExternalShareFloor:     0.2,
	}
}

// #endregion distortion

// #region thresholds

// Thresholds bundles all four categories.
type Thresholds struct {
	Rigidity      RigidityThresholds      `yaml:"rigidity"`
	Fragmentation FragmentationThresholds `yaml:"fragmentation"`
	Inflation     InflationThresholds     `yaml:"inflation"`
	Distortion    DistortionThresholds    `yaml:"distortion"`
}

// DefaultThresholds returns the standard parameters for every detector.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Rigidity:      DefaultRigidityThresholds(),
		Fragmentation: DefaultFragmentationThresholds(),
		Inflation:     DefaultInflationThresholds(),
		Distortion:    DefaultDistortionThresholds(),
	}
}

// #endregion thresholds
