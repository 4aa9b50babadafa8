package engine

import (
	"errors"
	"time"

	"github.com/fieldgeom/manifold/internal/analyze"
	"github.com/fieldgeom/manifold/internal/manifold"
	"github.com/fieldgeom/manifold/internal/scalar"
	"github.com/fieldgeom/manifold/internal/store"
)

// #region coordination

// CoordinationClusters buckets the recent cross-actor coupling edges of
// the named actors into time windows and returns the windows dense enough
// to count as coordinated activity. Endpoint geometry (coherence, mass)
// enriches each edge best-effort: an endpoint that has since vanished
// contributes zeros rather than failing the analysis.
func (e *Engine) CoordinationClusters(actors []string, window time.Duration, couplingThreshold float64, minClusterSize int) ([]analyze.Cluster, error) {
	seen := make(map[string]struct{})
	var clusterEdges []analyze.ClusterEdge

	for _, actor := range actors {
		edges, err := e.store.GetCouplingEdges(actor, e.opts.EdgeWindow)
		if err != nil {
			return nil, err
		}
		for _, edge := range edges {
			if _, dup := seen[edge.ID]; dup {
				continue
			}
			seen[edge.ID] = struct{}{}

			coherence, mass := e.endpointState(edge.SourceID, edge.TargetID)
			clusterEdges = append(clusterEdges, analyze.ClusterEdge{
				SourceActor: edge.SourceActor,
				TargetActor: edge.TargetActor,
				Magnitude:   edge.Magnitude,
				Coherence:   coherence,
				Mass:        mass,
				ComputedAt:  edge.ComputedAt,
			})
		}
	}

	return analyze.CoordinationClusters(clusterEdges, window, couplingThreshold, minClusterSize), nil
}

// endpointState returns the mean coherence magnitude and mean semantic
// mass of an edge's endpoints, treating missing points as zero.
func (e *Engine) endpointState(sourceID, targetID string) (coherence, mass float64) {
	n := 0
	for _, id := range []string{sourceID, targetID} {
		p, err := e.store.GetPoint(id)
		if err != nil {
			continue
		}
		coherence += p.CoherenceMag
		mass += p.SemanticMass
		n++
	}
	if n > 0 {
		coherence /= float64(n)
		mass /= float64(n)
	}
	return coherence, mass
}

// #endregion coordination

// #region escalation

// Escalation scores an ordered sequence of points for runaway dynamics.
// The point IDs are direct queries: any unknown ID fails with the store's
// not-found error. Fewer than three points yields a zero result.
func (e *Engine) Escalation(pointIDs []string) (analyze.EscalationResult, error) {
	seq := make([]analyze.EscalationPoint, 0, len(pointIDs))
	for _, id := range pointIDs {
		p, err := e.store.GetPoint(id)
		if err != nil {
			return analyze.EscalationResult{}, err
		}
		seq = append(seq, analyze.EscalationPoint{
			CoherenceMag:    p.CoherenceMag,
			ScalarCurvature: p.ScalarCurvature,
			Mass:            p.SemanticMass,
			Circumspection:  e.circumspectionFor(p),
		})
	}
	return analyze.Escalation(seq, e.cfg.StepSize), nil
}

// circumspectionFor prefers the externally supplied sapience record and
// falls back to the damping coefficient at the point's recent coupling
// level.
func (e *Engine) circumspectionFor(p *manifold.Point) float64 {
	rec, err := e.store.GetSapience(p.ID)
	if err == nil {
		return rec.CircumspectionFac
	}
	if !errors.Is(err, store.ErrNotFound) {
		return 0
	}

	edges, err := e.store.GetCouplingEdges(subject(p), e.opts.EdgeWindow)
	if err != nil || len(edges) == 0 {
		return 0
	}
	return scalar.Clip01(scalar.Circumspection(edges[len(edges)-1].Magnitude))
}

// #endregion escalation
