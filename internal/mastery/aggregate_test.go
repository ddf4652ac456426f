package mastery

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAggregateStats(t *testing.T) {
	individual := map[string]map[string]float64{
		"u1": {"loops": 0.6},
		"u2": {"loops": 0.8},
		"u3": {"loops": 1.0},
	}

	agg := Aggregate(individual)
	stats, ok := agg["loops"]
	if !ok {
		t.Fatalf("expected aggregate for loops")
	}
	if !almostEqual(stats.Mean, 0.8) {
		t.Fatalf("expected mean 0.8, got %f", stats.Mean)
	}
	if !almostEqual(stats.Min, 0.6) || !almostEqual(stats.Max, 1.0) {
		t.Fatalf("unexpected min/max: %f/%f", stats.Min, stats.Max)
	}
	// Population variance: mean of squared deviations.
	want := (0.04 + 0 + 0.04) / 3
	if !almostEqual(stats.Variance, want) {
		t.Fatalf("expected variance %f, got %f", want, stats.Variance)
	}
}

func TestAggregateOnlyCountsReportingMembers(t *testing.T) {
	individual := map[string]map[string]float64{
		"u1": {"loops": 0.4, "functions": 0.9},
		"u2": {"loops": 0.6},
		"u3": {},
	}

	agg := Aggregate(individual)
	if !almostEqual(agg["loops"].Mean, 0.5) {
		t.Fatalf("expected loops mean from two members, got %f", agg["loops"].Mean)
	}
	if !almostEqual(agg["functions"].Mean, 0.9) {
		t.Fatalf("expected functions mean from one member, got %f", agg["functions"].Mean)
	}
	if !almostEqual(agg["functions"].Variance, 0) {
		t.Fatalf("single sample should have zero variance, got %f", agg["functions"].Variance)
	}
}

func TestAggregateEmpty(t *testing.T) {
	if agg := Aggregate(map[string]map[string]float64{}); len(agg) != 0 {
		t.Fatalf("expected empty aggregate, got %#v", agg)
	}
}
