package engine

import (
	"time"

	"github.com/fieldgeom/manifold/internal/config"
	"github.com/fieldgeom/manifold/internal/coupling"
	"github.com/fieldgeom/manifold/internal/evolve"
	"github.com/fieldgeom/manifold/internal/field"
	"github.com/fieldgeom/manifold/internal/geometry"
	"github.com/fieldgeom/manifold/internal/manifold"
	"github.com/fieldgeom/manifold/internal/scalar"
	"github.com/fieldgeom/manifold/internal/tensor"
)

// #region compute-geometry

// ComputeGeometry derives and persists the full geometric structure of a
// point: metric, inverse, Christoffel symbols, curvature, scalar
// curvature, and semantic mass.
//
// Fewer than two usable history neighbors means the metric cannot be
// approximated; the point is returned untouched with no error, matching
// the insufficient-history convention everywhere else. A genuinely
// singular metric that survives regularization is a real failure and
// surfaces as tensor.ErrSingularMatrix.
func (e *Engine) ComputeGeometry(pointID string) (*manifold.Point, error) {
	p, err := e.store.GetPoint(pointID)
	if err != nil {
		return nil, err
	}

	d := e.cfg.AnalysisDim
	hist, err := e.store.GetHistory(subject(p), e.opts.HistoryWindow)
	if err != nil {
		return nil, err
	}

	var neighbors [][]float32
	var neighborMetrics [][]float64
	var prevGamma []float64
	for _, h := range hist {
		if h.ID == p.ID {
			continue
		}
		neighbors = append(neighbors, h.SemanticField)
		if len(h.Metric) == d*d {
			neighborMetrics = append(neighborMetrics, h.Metric)
		}
		if len(h.Christoffel) == d*d*d {
			prevGamma = h.Christoffel
		}
	}

	g, err := geometry.BuildMetric(p.SemanticField, neighbors, config.DiagonalBump, d)
	if err != nil {
		// Not enough usable neighbors yet; geometry waits for more history.
		return p, nil
	}

	det := tensor.Determinant(g, d)
	gInv, err := geometry.InvertMetric(g, d)
	if err != nil {
		return nil, err
	}

	dg := geometry.MetricPartials(g, neighborMetrics, e.cfg.StepSize, d)
	gamma := geometry.Christoffel(gInv, dg, d)

	var dgamma []float64
	if prevGamma != nil {
		dgamma = geometry.GammaPartial(prevGamma, gamma, e.cfg.StepSize, d)
	} else {
		dgamma = make([]float64, d*d*d)
	}

	ricci := geometry.Curvature(gamma, dgamma, d)
	r := geometry.ScalarCurvature(ricci, gInv, d)
	mass := scalar.SemanticMass(p.RecursiveDepth, det, p.AttractorStability)

	derived := manifold.Derived{
		Metric:          g,
		MetricDet:       det,
		Inverse:         gInv,
		Christoffel:     gamma,
		Curvature:       ricci,
		ScalarCurvature: r,
		SemanticMass:    mass,
	}
	if err := e.store.PersistDerived(p.ID, derived); err != nil {
		return nil, err
	}

	p.Metric = g
	p.MetricDet = det
	p.Christoffel = gamma
	p.Curvature = ricci
	p.ScalarCurvature = r
	p.SemanticMass = mass
	return p, nil
}

// #endregion compute-geometry

// #region compute-coupling

// ComputeCoupling computes, persists, and returns the coupling edge for
// the ordered pair of points. The evolution rate is taken against the
// most recent stored edge for the same pair.
func (e *Engine) ComputeCoupling(sourceID, targetID string) (coupling.Edge, error) {
	p, err := e.store.GetPoint(sourceID)
	if err != nil {
		return coupling.Edge{}, err
	}
	q, err := e.store.GetPoint(targetID)
	if err != nil {
		return coupling.Edge{}, err
	}

	var prevMag float64
	var prevAt time.Time
	prior, err := e.store.GetCouplingEdges(sourceID, e.opts.EdgeWindow)
	if err != nil {
		return coupling.Edge{}, err
	}
	for i := len(prior) - 1; i >= 0; i-- {
		if prior[i].TargetID == targetID {
			prevMag = prior[i].Magnitude
			prevAt = prior[i].ComputedAt
			break
		}
	}

	edge := coupling.Compute(p, q, e.cfg.StepSize, e.cfg.AnalysisDim, prevMag, prevAt)
	if err := e.store.SaveCouplingEdge(edge); err != nil {
		return coupling.Edge{}, err
	}
	return edge, nil
}

// #endregion compute-coupling

// #region evolve

// Evolve advances a point's coherence field by one explicit Euler step of
// size dt (the configured default when dt <= 0) and returns the evolved
// field without persisting it. The caller decides whether the result
// becomes a new point.
func (e *Engine) Evolve(pointID string, dt float64) ([]float32, error) {
	p, err := e.store.GetPoint(pointID)
	if err != nil {
		return nil, err
	}
	if dt <= 0 {
		dt = e.cfg.DefaultDt
	}

	d := e.cfg.AnalysisDim
	hist, err := e.store.GetHistory(subject(p), e.opts.HistoryWindow)
	if err != nil {
		return nil, err
	}
	samples := make([][]float32, 0, len(hist))
	for _, h := range hist {
		samples = append(samples, h.CoherenceField)
	}
	derivs := field.FiniteDifferences(samples, e.cfg.StepSize, d)

	var gInv []float64
	if len(p.Metric) == d*d {
		gInv, err = geometry.InvertMetric(p.Metric, d)
		if err != nil {
			return nil, err
		}
	}

	var couplingMag float64
	edges, err := e.store.GetCouplingEdges(subject(p), e.opts.EdgeWindow)
	if err != nil {
		return nil, err
	}
	if len(edges) > 0 {
		couplingMag = edges[len(edges)-1].Magnitude
	}

	in := evolve.StepInput{
		Coherence:   p.CoherenceField,
		Derivs:      derivs,
		GInv:        gInv,
		Gamma:       p.Christoffel,
		CouplingMag: couplingMag,
		Dt:          dt,
		Dim:         d,
	}
	return evolve.Step(in, e.opts.Step), nil
}

// #endregion evolve
