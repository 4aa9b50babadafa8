package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// #region constants

// Regularization constants shared by the tensor kernel and the metric builder.
// These are the single source of truth; no package repeats them as literals.
const (
	// PivotEpsilon is the pivot magnitude below which elimination treats a
	// matrix as singular.
	PivotEpsilon = 1e-12

	// DetEpsilon is the determinant magnitude below which a metric is
	// regularized before inversion.
	DetEpsilon = 1e-10

	// DiagonalBump is added to every diagonal entry of a near-singular
	// metric before inversion.
	DiagonalBump = 1e-6

	// MassFloor bounds the 1/det term in the semantic mass formula.
	MassFloor = 1e-10

	// ExpClamp bounds exponents before math.Exp to keep results finite.
	ExpClamp = 50.0

	// RateEpsilon guards denominators in detector severity formulas.
	RateEpsilon = 1e-9
)

// #endregion constants

// #region config

// Config holds the dimensional layout of the analysis core.
//
// AnalysisDim is the fixed dimension d over which all geometric structure
// (metric, Christoffel symbols, curvature, coupling tensors) is computed.
// Only the first AnalysisDim components of any stored field participate in
// geometry; the remaining FieldDim-AnalysisDim components ride along
// untouched. This is a deliberate tractability compromise, not an inference:
// every O(d^4) loop in the core is bounded by this constant.
type Config struct {
	AnalysisDim int `yaml:"analysis_dim"`
	FieldDim    int `yaml:"field_dim"`

	// StepSize is the finite-difference step h used by the derivative and
	// coupling engines.
	StepSize float64 `yaml:"step_size"`

	// DefaultDt is the integrator step when the caller does not supply one.
	DefaultDt float64 `yaml:"default_dt"`
}

// Default returns the standard layout: 100 analysis dimensions over
// 2000-dimensional stored fields.
func Default() Config {
	return Config{
		AnalysisDim: 100,
		FieldDim:    2000,
		StepSize:    0.01,
		DefaultDt:   0.01,
	}
}

// #endregion config

// #region load

// Load reads a YAML config file and overlays it on the defaults.
// A missing path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the dimensional layout for internal consistency.
func (c Config) Validate() error {
	if c.AnalysisDim < 2 {
		return fmt.Errorf("analysis_dim %d: must be at least 2", c.AnalysisDim)
	}
	if c.FieldDim < c.AnalysisDim {
		return fmt.Errorf("field_dim %d smaller than analysis_dim %d", c.FieldDim, c.AnalysisDim)
	}
	if c.StepSize <= 0 {
		return fmt.Errorf("step_size %g: must be positive", c.StepSize)
	}
	if c.DefaultDt <= 0 {
		return fmt.Errorf("default_dt %g: must be positive", c.DefaultDt)
	}
	return nil
}

// #endregion load
