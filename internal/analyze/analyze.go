package analyze

import (
	"math"
	"sort"
	"time"

	"github.com/fieldgeom/manifold/internal/field"
	"github.com/fieldgeom/manifold/internal/scalar"
)

// #region coordination

// ClusterEdge is one cross-point coupling observation enriched with the
// geometric state of the points it connects.
type ClusterEdge struct {
	SourceActor string
	TargetActor string
	Magnitude   float64
	Coherence   float64 // mean geometric coherence of the two endpoints
	Mass        float64 // mean semantic mass of the two endpoints
	ComputedAt  time.Time
}

// Cluster is a time bucket holding enough strong cross-actor couplings to
// count as coordination.
type Cluster struct {
	WindowStart  time.Time
	EdgeCount    int
	Actors       []string // sorted unique actors participating
	MeanCoupling float64
	Confidence   float64 // [0,1]
}

// CoordinationClusters buckets cross-actor coupling edges at or above
// couplingThreshold into fixed time windows. A bucket with at least
// minClusterSize qualifying edges becomes a cluster with
//
//	confidence = clip(meanCoupling * meanCoherence * (count/10) * (meanMass/100))
//
// Raising couplingThreshold can only remove edges, so it never grows a
// cluster. Results are ordered by window start.
func CoordinationClusters(edges []ClusterEdge, window time.Duration, couplingThreshold float64, minClusterSize int) []Cluster {
	if window <= 0 || minClusterSize < 1 {
		return nil
	}

	buckets := make(map[time.Time][]ClusterEdge)
	for _, e := range edges {
		if e.SourceActor == "" || e.SourceActor == e.TargetActor {
			continue // self or unattributed coupling is not coordination
		}
		if e.Magnitude < couplingThreshold {
			continue
		}
		start := e.ComputedAt.Truncate(window)
		buckets[start] = append(buckets[start], e)
	}

	var out []Cluster
	for start, members := range buckets {
		if len(members) < minClusterSize {
			continue
		}

		var sumCoupling, sumCoherence, sumMass float64
		actors := make(map[string]struct{})
		for _, e := range members {
			sumCoupling += e.Magnitude
			sumCoherence += e.Coherence
			sumMass += e.Mass
			actors[e.SourceActor] = struct{}{}
			actors[e.TargetActor] = struct{}{}
		}
		n := float64(len(members))
		meanCoupling := sumCoupling / n
		meanCoherence := sumCoherence / n
		meanMass := sumMass / n

		names := make([]string, 0, len(actors))
		for a := range actors {
			names = append(names, a)
		}
		sort.Strings(names)

		out = append(out, Cluster{
			WindowStart:  start,
			EdgeCount:    len(members),
			Actors:       names,
			MeanCoupling: meanCoupling,
			Confidence:   scalar.Clip01(meanCoupling * meanCoherence * (n / 10) * (meanMass / 100)),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].WindowStart.Before(out[j].WindowStart) })
	return out
}

// #endregion coordination

// #region escalation

// EscalationPoint is the per-point state consumed by the escalation
// analyzer, in sequence order.
type EscalationPoint struct {
	CoherenceMag    float64
	ScalarCurvature float64
	Mass            float64
	Circumspection  float64
}

// EscalationResult scores an ordered point sequence.
type EscalationResult struct {
	Score               float64 // [0,1]
	Velocity            float64 // discrete d||C||/dt at the newest point
	Acceleration        float64
	InterventionUrgency bool
	Samples             int
}

// Escalation fuses the discrete velocity and acceleration of coherence
// magnitude with the newest point's scalar curvature and mass into a
// single escalation score. Fewer than 3 points yields a zero result
// (insufficient history), never an error. Intervention urgency is flagged
// when acceleration exceeds 0.3 while circumspection sits below 0.3.
func Escalation(seq []EscalationPoint, h float64) EscalationResult {
	res := EscalationResult{Samples: len(seq)}
	if len(seq) < 3 || h <= 0 {
		return res
	}

	series := make([]float64, len(seq))
	for i, p := range seq {
		series[i] = p.CoherenceMag
	}
	first, second := field.SeriesDerivatives(series, h)
	res.Velocity = first[len(first)-1]
	res.Acceleration = second[len(second)-1]

	last := seq[len(seq)-1]
	res.Score = scalar.Clip01(
		0.4*scalar.Clip01(res.Velocity) +
			0.3*scalar.Clip01(res.Acceleration) +
			0.2*scalar.Clip01(math.Abs(last.ScalarCurvature)/10) +
			0.1*scalar.Clip01(last.Mass/100))
	res.InterventionUrgency = res.Acceleration > 0.3 && last.Circumspection < 0.3
	return res
}

// #endregion escalation
