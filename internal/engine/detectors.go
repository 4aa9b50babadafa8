package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/fieldgeom/manifold/internal/coupling"
	"github.com/fieldgeom/manifold/internal/detect"
	"github.com/fieldgeom/manifold/internal/field"
	"github.com/fieldgeom/manifold/internal/logging"
	"github.com/fieldgeom/manifold/internal/manifold"
	"github.com/fieldgeom/manifold/internal/scalar"
	"github.com/fieldgeom/manifold/internal/store"
)

// #region snapshot

// snapshot is one consistent-enough read of everything the detector
// assemblies consume. A missing sapience record degrades to the zero
// record; everything else windowed degrades to empty.
type snapshot struct {
	p     *manifold.Point
	hist  []*manifold.Point
	peers []*manifold.Point
	edges []coupling.Edge
	sap   manifold.SapienceRecord
}

func (e *Engine) snapshot(pointID string) (*snapshot, error) {
	p, err := e.store.GetPoint(pointID)
	if err != nil {
		return nil, err
	}

	s := &snapshot{p: p}
	if s.hist, err = e.store.GetHistory(subject(p), e.opts.HistoryWindow); err != nil {
		return nil, err
	}
	if p.GroupID != "" {
		if s.peers, err = e.store.GetGroupHistory(p.GroupID, p.ActorID, e.opts.HistoryWindow); err != nil {
			return nil, err
		}
	}
	if s.edges, err = e.store.GetCouplingEdges(subject(p), e.opts.EdgeWindow); err != nil {
		return nil, err
	}
	s.sap, err = e.store.GetSapience(p.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return s, nil
}

// #endregion snapshot

// #region assembly

// assemble turns a snapshot into the full detector input. Every quantity
// here is a windowed summary; a window too short for one detector simply
// leaves that detector's gate closed.
func (e *Engine) assemble(s *snapshot) detect.Input {
	d := e.cfg.AnalysisDim
	p := s.p

	coherenceSamples := make([][]float32, 0, len(s.hist))
	magSeries := make([]float64, 0, len(s.hist))
	massSeries := make([]float64, 0, len(s.hist))
	potentialSeries := make([]float64, 0, len(s.hist))
	for _, h := range s.hist {
		coherenceSamples = append(coherenceSamples, h.CoherenceField)
		magSeries = append(magSeries, h.CoherenceMag)
		massSeries = append(massSeries, h.SemanticMass)
		potentialSeries = append(potentialSeries, scalar.AutopoieticPotential(h.CoherenceMag))
	}
	derivs := field.FiniteDifferences(coherenceSamples, e.cfg.StepSize, d)

	var gradientNorm, secondDeriv float64
	if !derivs.Empty() {
		for _, v := range derivs.First {
			gradientNorm += v * v
		}
		gradientNorm = math.Sqrt(gradientNorm)
		for _, v := range derivs.Second {
			secondDeriv += v
		}
		secondDeriv /= float64(len(derivs.Second))
	}

	couplingSeries := make([]float64, 0, len(s.edges))
	var selfMags, extMags []float64
	var extSum float64
	targets := make(map[string]struct{})
	for _, edge := range s.edges {
		couplingSeries = append(couplingSeries, edge.Magnitude)
		if edge.Self {
			selfMags = append(selfMags, edge.Magnitude)
		} else {
			extMags = append(extMags, edge.Magnitude)
			extSum += edge.Magnitude
		}
		targets[edge.TargetID] = struct{}{}
	}
	var meanCoupling float64
	if len(couplingSeries) > 0 {
		var sum float64
		for _, m := range couplingSeries {
			sum += m
		}
		meanCoupling = sum / float64(len(couplingSeries))
	}
	var externalFlux float64
	if len(extMags) > 0 {
		externalFlux = scalar.Clip01(extSum / float64(len(extMags)))
	}

	// The damping coefficient at the observed coupling level stands in for
	// the constraining force holding the attractor in place.
	constrainingForce := scalar.Circumspection(meanCoupling)

	circumspection := scalar.Clip01(scalar.Circumspection(meanCoupling))
	if s.sap.PointID != "" {
		circumspection = s.sap.CircumspectionFac
	}

	steps := len(s.hist) - 1
	if steps < 1 {
		steps = 1
	}
	newAttractorRate := float64(len(targets)) / float64(steps)

	return detect.Input{
		Rigidity: detect.RigidityInput{
			Crystallization: detect.CrystallizationInput{
				EvolutionRate:   metricEvolutionRate(s.hist, e.cfg.StepSize, d),
				ScalarCurvature: p.ScalarCurvature,
				Samples:         countGeometry(s.hist, d),
			},
			Calcification: detect.CalcificationInput{
				Pressure: meanFieldChange(s.hist, e.cfg.StepSize, d, semanticOf),
				Response: meanFieldChange(s.hist, e.cfg.StepSize, d, coherenceOf),
				Samples:  len(s.hist),
			},
			Isolation: detect.IsolationInput{
				Stability:         p.AttractorStability,
				ConstrainingForce: constrainingForce,
				CoherenceMag:      p.CoherenceMag,
			},
		},
		Fragmentation: detect.FragmentationInput{
			Dissociation: detect.DissociationInput{
				NewAttractorRate: newAttractorRate,
				PotentialRate:    field.Slope(potentialSeries),
				Samples:          len(s.hist),
			},
			Dissolution: detect.DissolutionInput{
				GradientNorm: gradientNorm,
				CoherenceMag: p.CoherenceMag,
				SecondDeriv:  secondDeriv,
				Samples:      len(s.hist),
			},
			Dispersion: detect.DispersionInput{
				CouplingSeries: couplingSeries,
				Sapience:       s.sap.Sapience,
			},
		},
		Inflation: detect.InflationInput{
			Hyperexpansion: detect.HyperexpansionInput{
				CoherenceMag:      p.CoherenceMag,
				ConstrainingForce: constrainingForce,
				Circumspection:    circumspection,
				Sapience:          s.sap.Sapience,
			},
			Hypercoherence: detect.HypercoherenceInput{
				CoherenceMag: p.CoherenceMag,
				ExternalFlux: externalFlux,
			},
			Hyperasymmetry: detect.HyperasymmetryInput{
				LocalMassGrowth:   field.Slope(massSeries),
				NonlocalMassTrend: peerMassTrend(s.peers),
				Samples:           len(s.hist),
			},
		},
		Distortion: detect.DistortionInput{
			Projection: detect.ProjectionInput{
				NegativeBias:        negativeBias(p.SemanticField, d),
				ThreatConcentration: energyConcentration(p.SemanticField, d),
			},
			Decoupling: detect.DecouplingInput{
				SelfDivergence:      divergenceFromMean(p, s.hist, d),
				CoherenceMag:        p.CoherenceMag,
				ConsensusDivergence: divergenceFromMean(p, s.peers, d),
				Samples:             len(s.hist),
			},
			Hypercoupling: detect.HypercouplingInput{
				SelfMagnitudes:     selfMags,
				ExternalMagnitudes: extMags,
			},
		},
	}
}

// #endregion assembly

// #region assembly-helpers

func semanticOf(p *manifold.Point) []float32  { return p.SemanticField }
func coherenceOf(p *manifold.Point) []float32 { return p.CoherenceField }

// meanFieldChange is the mean per-step L2 displacement of a field across
// consecutive history samples.
func meanFieldChange(hist []*manifold.Point, h float64, d int, fieldOf func(*manifold.Point) []float32) float64 {
	if len(hist) < 2 || h == 0 {
		return 0
	}
	var sum float64
	for i := 1; i < len(hist); i++ {
		sum += scalar.Distance(fieldOf(hist[i]), fieldOf(hist[i-1]), d) / h
	}
	return sum / float64(len(hist)-1)
}

// metricEvolutionRate is the mean per-step Frobenius displacement of the
// metric across consecutive history samples that carry geometry.
func metricEvolutionRate(hist []*manifold.Point, h float64, d int) float64 {
	if h == 0 {
		return 0
	}
	var sum float64
	var pairs int
	var prev []float64
	for _, p := range hist {
		if len(p.Metric) != d*d {
			continue
		}
		if prev != nil {
			diff := make([]float64, d*d)
			for i := range diff {
				diff[i] = p.Metric[i] - prev[i]
			}
			sum += scalar.FrobeniusNorm(diff) / h
			pairs++
		}
		prev = p.Metric
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}

func countGeometry(hist []*manifold.Point, d int) int {
	n := 0
	for _, p := range hist {
		if len(p.Metric) == d*d {
			n++
		}
	}
	return n
}

func peerMassTrend(peers []*manifold.Point) float64 {
	series := make([]float64, 0, len(peers))
	for _, p := range peers {
		series = append(series, p.SemanticMass)
	}
	return field.Slope(series)
}

// negativeBias is the fraction of strictly negative components among the
// analysis dimensions of the semantic field.
func negativeBias(v []float32, d int) float64 {
	if d > len(v) {
		d = len(v)
	}
	if d == 0 {
		return 0
	}
	neg := 0
	for i := 0; i < d; i++ {
		if v[i] < 0 {
			neg++
		}
	}
	return float64(neg) / float64(d)
}

// energyConcentration is the share of squared field energy held by the
// top decile of components by magnitude.
func energyConcentration(v []float32, d int) float64 {
	if d > len(v) {
		d = len(v)
	}
	if d == 0 {
		return 0
	}
	sq := make([]float64, d)
	var total float64
	for i := 0; i < d; i++ {
		sq[i] = float64(v[i]) * float64(v[i])
		total += sq[i]
	}
	if total == 0 {
		return 0
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sq)))
	top := d / 10
	if top < 1 {
		top = 1
	}
	var held float64
	for i := 0; i < top; i++ {
		held += sq[i]
	}
	return held / total
}

// divergenceFromMean is the distance between a point's semantic field and
// the component-wise mean of a reference set, excluding the point itself.
func divergenceFromMean(p *manifold.Point, ref []*manifold.Point, d int) float64 {
	mean := make([]float32, d)
	n := 0
	for _, r := range ref {
		if r.ID == p.ID || len(r.SemanticField) < d {
			continue
		}
		for i := 0; i < d; i++ {
			mean[i] += r.SemanticField[i]
		}
		n++
	}
	if n == 0 {
		return 0
	}
	for i := range mean {
		mean[i] /= float32(n)
	}
	return scalar.Distance(p.SemanticField, mean, d)
}

// #endregion assembly-helpers

// #region detect-ops

// DetectAll runs all twelve detectors against a point's current state and
// audits every positive signature. Insufficient history contributes zero
// rows; only store failures and unknown points error.
func (e *Engine) DetectAll(pointID string) ([]detect.Signature, error) {
	s, err := e.snapshot(pointID)
	if err != nil {
		return nil, err
	}
	sigs := detect.All(e.assemble(s), e.opts.Thresholds)
	return sigs, e.audit(pointID, sigs)
}

// DetectRigidity runs the three rigidity detectors for a point.
func (e *Engine) DetectRigidity(pointID string) ([]detect.Signature, error) {
	s, err := e.snapshot(pointID)
	if err != nil {
		return nil, err
	}
	sigs := detect.Rigidity(e.assemble(s).Rigidity, e.opts.Thresholds.Rigidity)
	return sigs, e.audit(pointID, sigs)
}

// DetectFragmentation runs the three fragmentation detectors for a point.
func (e *Engine) DetectFragmentation(pointID string) ([]detect.Signature, error) {
	s, err := e.snapshot(pointID)
	if err != nil {
		return nil, err
	}
	sigs := detect.Fragmentation(e.assemble(s).Fragmentation, e.opts.Thresholds.Fragmentation)
	return sigs, e.audit(pointID, sigs)
}

// DetectInflation runs the three inflation detectors for a point.
func (e *Engine) DetectInflation(pointID string) ([]detect.Signature, error) {
	s, err := e.snapshot(pointID)
	if err != nil {
		return nil, err
	}
	sigs := detect.Inflation(e.assemble(s).Inflation, e.opts.Thresholds.Inflation)
	return sigs, e.audit(pointID, sigs)
}

// DetectDistortion runs the three distortion detectors for a point.
func (e *Engine) DetectDistortion(pointID string) ([]detect.Signature, error) {
	s, err := e.snapshot(pointID)
	if err != nil {
		return nil, err
	}
	sigs := detect.Distortion(e.assemble(s).Distortion, e.opts.Thresholds.Distortion)
	return sigs, e.audit(pointID, sigs)
}

func (e *Engine) audit(pointID string, sigs []detect.Signature) error {
	for _, sig := range sigs {
		entry := logging.SignatureEntry{
			PointID:            pointID,
			SignatureType:      sig.Type,
			Category:           detect.CategoryOf(sig.Type),
			Severity:           sig.Severity,
			GeometricSignature: fmt.Sprintf("%v", sig.GeometricSignature),
			Evidence:           sig.Evidence,
		}
		if err := logging.LogSignature(e.store.DB(), entry); err != nil {
			return err
		}
	}
	return nil
}

// #endregion detect-ops
