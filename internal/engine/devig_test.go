package engine

import (
	"math"
	"testing"
)

func TestRemoveVig2RoundTrip(t *testing.T) {
	pairs := [][2]float64{
		{1.85, 1.85},
		{1.50, 2.50},
		{1.05, 9.00},
		{3.75, 1.22},
	}
	for _, pair := range pairs {
		yes1, _ := RemoveVig2(pair[0], pair[1])
		yes2, _ := RemoveVig2(pair[1], pair[0])
		if math.Abs(yes1+yes2-1.0) > 1e-12 {
			t.Fatalf("round trip failed for %v: %f + %f != 1", pair, yes1, yes2)
		}
	}
}

func TestRemoveVig2EqualOdds(t *testing.T) {
	yes, no := RemoveVig2(1.90, 1.90)
	if math.Abs(yes-0.5) > 1e-12 || math.Abs(no-0.5) > 1e-12 {
		t.Fatalf("equal odds should devig to 0.5/0.5, got %f/%f", yes, no)
	}
}

func TestRemoveVig3Normalizes(t *testing.T) {
	a, b, c := RemoveVig3(2.10, 3.40, 3.60)
	sum := a + b + c
	if math.Abs(sum-1.0) > 1e-12 {
		t.Fatalf("three-way probabilities should sum to 1, got %f", sum)
	}
	if a <= b || a <= c {
		t.Fatalf("shortest odds should carry the largest probability: %f %f %f", a, b, c)
	}
}
