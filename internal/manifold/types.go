package manifold

import "time"

// #region point

// Point is one analyzed unit of field data: a pair of high-dimensional
// embedding vectors plus the geometric structure derived from them.
//
// Identity fields are immutable after ingestion. Geometry fields are
// populated by explicit computation (engine.ComputeGeometry), never
// inferred implicitly, and persisted through the store collaborator.
type Point struct {
	ID        string
	GroupID   string // optional grouping, e.g. a conversation
	ActorID   string // optional opaque actor identity
	CreatedAt time.Time

	// SemanticField and CoherenceField are the two embedding vectors,
	// equal length (config.FieldDim). Only the first config.AnalysisDim
	// components participate in geometry.
	SemanticField  []float32
	CoherenceField []float32

	// CoherenceMag caches ||CoherenceField|| over the analysis dimensions.
	CoherenceMag float64

	// Metric is the symmetric d x d metric tensor, flat row-major.
	Metric    []float64
	MetricDet float64

	// Mass components and the derived semantic mass.
	RecursiveDepth     float64
	ConstraintDensity  float64
	AttractorStability float64
	SemanticMass       float64

	// Christoffel symbols (flat d^3, index (k*d+i)*d+j), Ricci-type
	// curvature (flat d^2), and the contracted scalar curvature.
	Christoffel     []float64
	Curvature       []float64
	ScalarCurvature float64
}

// HasGeometry reports whether the geometric fields have been computed.
func (p *Point) HasGeometry() bool {
	return len(p.Metric) > 0
}

// #endregion point

// #region sapience

// SapienceRecord is the externally produced regulatory signal for a point.
// At most one live value per point; read-only to this core.
type SapienceRecord struct {
	PointID             string
	Sapience            float64 // [0,1]
	ForecastSensitivity float64
	GradientResponse    float64
	CircumspectionFac   float64 // [0,1]
	RecursionRegulation float64
}

// #endregion sapience

// #region derived

// Derived bundles the geometry persisted for a point after explicit
// computation.
type Derived struct {
	Metric          []float64
	MetricDet       float64
	Inverse         []float64
	Christoffel     []float64
	Curvature       []float64
	ScalarCurvature float64
	SemanticMass    float64
}

// #endregion derived
