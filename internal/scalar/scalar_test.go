package scalar

import (
	"math"
	"testing"
)

func TestSemanticMassMonotonicInDepthAndStability(t *testing.T) {
	base := SemanticMass(1.0, 0.5, 1.0)
	if m := SemanticMass(2.0, 0.5, 1.0); m <= base {
		t.Fatalf("mass should increase with depth: %v <= %v", m, base)
	}
	if m := SemanticMass(1.0, 0.5, 2.0); m <= base {
		t.Fatalf("mass should increase with stability: %v <= %v", m, base)
	}
}

func TestSemanticMassIncreasesAsDetShrinks(t *testing.T) {
	prev := 0.0
	for _, det := range []float64{1.0, 0.5, 0.1, 1e-3, 1e-8} {
		m := SemanticMass(1.0, det, 1.0)
		if m < prev {
			t.Fatalf("mass should not decrease as det shrinks: det=%v mass=%v prev=%v", det, m, prev)
		}
		prev = m
	}
	// Bounded by the floor: det below the floor changes nothing.
	atFloor := SemanticMass(1.0, 1e-10, 1.0)
	below := SemanticMass(1.0, 1e-15, 1.0)
	if atFloor != below {
		t.Fatalf("mass should be floored: %v != %v", atFloor, below)
	}
	if math.IsInf(below, 0) {
		t.Fatal("mass must stay finite at the floor")
	}
}

func TestAutopoieticPotentialBelowThresholdIsZero(t *testing.T) {
	for _, c := range []float64{0, 0.1, 0.5, 0.699} {
		if p := AutopoieticPotential(c); p != 0 {
			t.Fatalf("potential(%v) = %v, want 0", c, p)
		}
	}
}

func TestAutopoieticPotentialIncreasingConvexAboveThreshold(t *testing.T) {
	xs := []float64{0.7, 0.8, 0.9, 1.0, 1.2}
	var prev, prevDelta float64
	for i, x := range xs {
		p := AutopoieticPotential(x)
		if i > 0 {
			delta := p - prev
			if delta <= 0 && x > 0.7 {
				t.Fatalf("potential should strictly increase above threshold: p(%v)=%v prev=%v", x, p, prev)
			}
			if i > 1 && delta < prevDelta {
				t.Fatalf("potential should be convex: delta %v < previous delta %v at %v", delta, prevDelta, x)
			}
			prevDelta = delta
		}
		prev = p
	}
}

func TestCircumspectionFiniteUnderExtremes(t *testing.T) {
	for _, mag := range []float64{0, 0.5, 1, 100, 1e6} {
		h := Circumspection(mag)
		if math.IsInf(h, 0) || math.IsNaN(h) {
			t.Fatalf("circumspection(%v) not finite: %v", mag, h)
		}
		if h < 0 {
			t.Fatalf("circumspection(%v) negative: %v", mag, h)
		}
	}
}

func TestCircumspectionPeaksNearOptimal(t *testing.T) {
	nearOptimal := Circumspection(0.5)
	if far := Circumspection(5.0); far >= nearOptimal {
		t.Fatalf("circumspection should decay past optimal: %v >= %v", far, nearOptimal)
	}
}

func TestNormRestriction(t *testing.T) {
	v := []float32{3, 4, 100, 100}
	if n := Norm(v, 2); math.Abs(n-5) > 1e-9 {
		t.Fatalf("norm of first 2 = %v, want 5", n)
	}
	// n beyond length uses the whole vector.
	if n := Norm([]float32{3, 4}, 10); math.Abs(n-5) > 1e-9 {
		t.Fatalf("norm = %v, want 5", n)
	}
}

func TestDistance(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 0}
	if d := Distance(a, b, 2); math.Abs(d-1) > 1e-9 {
		t.Fatalf("distance = %v, want 1", d)
	}
	// Short vector treated as zero-padded.
	if d := Distance([]float32{3}, []float32{}, 2); math.Abs(d-3) > 1e-9 {
		t.Fatalf("distance = %v, want 3", d)
	}
}

func TestClip01(t *testing.T) {
	if Clip01(-1) != 0 || Clip01(2) != 1 || Clip01(0.5) != 0.5 {
		t.Fatal("clip bounds wrong")
	}
	if Clip01(math.NaN()) != 0 {
		t.Fatal("NaN should clip to 0")
	}
}
