package analyze

import (
	"testing"
	"time"
)

func edgeAt(t0 time.Time, offset time.Duration, src, dst string, mag float64) ClusterEdge {
	return ClusterEdge{
		SourceActor: src,
		TargetActor: dst,
		Magnitude:   mag,
		Coherence:   0.8,
		Mass:        50,
		ComputedAt:  t0.Add(offset),
	}
}

func TestCoordinationClustersBasic(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	edges := []ClusterEdge{
		edgeAt(t0, 0, "a", "b", 0.9),
		edgeAt(t0, time.Minute, "b", "c", 0.8),
		edgeAt(t0, 2*time.Minute, "a", "c", 0.85),
		// Weak edge, filtered out.
		edgeAt(t0, 3*time.Minute, "a", "d", 0.1),
		// Different window.
		edgeAt(t0, 2*time.Hour, "a", "b", 0.9),
	}

	clusters := CoordinationClusters(edges, time.Hour, 0.5, 3)
	if len(clusters) != 1 {
		t.Fatalf("got %d clusters, want 1", len(clusters))
	}
	c := clusters[0]
	if c.EdgeCount != 3 {
		t.Fatalf("edge count = %d, want 3", c.EdgeCount)
	}
	if len(c.Actors) != 3 {
		t.Fatalf("actors = %v, want 3 unique", c.Actors)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		t.Fatalf("confidence %v outside [0,1]", c.Confidence)
	}
}

func TestCoordinationIgnoresSelfCoupling(t *testing.T) {
	t0 := time.Now().UTC()
	edges := []ClusterEdge{
		edgeAt(t0, 0, "a", "a", 0.9),
		edgeAt(t0, 0, "a", "a", 0.9),
		edgeAt(t0, 0, "a", "a", 0.9),
	}
	if clusters := CoordinationClusters(edges, time.Hour, 0.5, 3); len(clusters) != 0 {
		t.Fatalf("self-coupling formed %d clusters, want 0", len(clusters))
	}
}

func TestRaisingThresholdNeverGrowsClusters(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var edges []ClusterEdge
	mags := []float64{0.2, 0.4, 0.5, 0.6, 0.8, 0.9}
	for i, m := range mags {
		edges = append(edges, edgeAt(t0, time.Duration(i)*time.Minute, "a", "b", m))
	}

	prevTotal := 1 << 30
	for _, th := range []float64{0.1, 0.3, 0.5, 0.7, 0.95} {
		clusters := CoordinationClusters(edges, time.Hour, th, 1)
		total := 0
		for _, c := range clusters {
			total += c.EdgeCount
		}
		if total > prevTotal {
			t.Fatalf("threshold %v grew total cluster size: %d > %d", th, total, prevTotal)
		}
		prevTotal = total
	}
}

func TestEscalationInsufficientHistory(t *testing.T) {
	res := Escalation([]EscalationPoint{{CoherenceMag: 1}, {CoherenceMag: 2}}, 1.0)
	if res.Score != 0 || res.InterventionUrgency {
		t.Fatalf("short sequence should score zero: %+v", res)
	}
}

func TestEscalationAcceleratingSequence(t *testing.T) {
	// Quadratically growing coherence: positive velocity and acceleration.
	seq := []EscalationPoint{
		{CoherenceMag: 0.1, Circumspection: 0.1},
		{CoherenceMag: 0.3, Circumspection: 0.1},
		{CoherenceMag: 0.9, Circumspection: 0.1},
		{CoherenceMag: 2.0, Circumspection: 0.1, ScalarCurvature: 5, Mass: 40},
	}
	res := Escalation(seq, 1.0)
	if res.Velocity <= 0 {
		t.Fatalf("velocity = %v, want positive", res.Velocity)
	}
	if res.Acceleration <= 0.3 {
		t.Fatalf("acceleration = %v, want > 0.3", res.Acceleration)
	}
	if !res.InterventionUrgency {
		t.Fatal("expected intervention urgency")
	}
	if res.Score <= 0 || res.Score > 1 {
		t.Fatalf("score %v outside (0,1]", res.Score)
	}
}

func TestEscalationCircumspectionSuppressesUrgency(t *testing.T) {
	seq := []EscalationPoint{
		{CoherenceMag: 0.1, Circumspection: 0.9},
		{CoherenceMag: 0.3, Circumspection: 0.9},
		{CoherenceMag: 0.9, Circumspection: 0.9},
		{CoherenceMag: 2.0, Circumspection: 0.9},
	}
	res := Escalation(seq, 1.0)
	if res.InterventionUrgency {
		t.Fatal("high circumspection should suppress urgency")
	}
}

func TestEscalationFlatSequenceScoresLow(t *testing.T) {
	seq := []EscalationPoint{
		{CoherenceMag: 0.5}, {CoherenceMag: 0.5}, {CoherenceMag: 0.5}, {CoherenceMag: 0.5},
	}
	res := Escalation(seq, 1.0)
	if res.Velocity != 0 || res.Acceleration != 0 {
		t.Fatalf("flat sequence derivatives: v=%v a=%v, want 0", res.Velocity, res.Acceleration)
	}
	if res.InterventionUrgency {
		t.Fatal("flat sequence should not be urgent")
	}
}
