package units

import (
	"math"
	"testing"
)

func TestGoalRoundTripStaysWithinTolerance(t *testing.T) {
	goal := 2500.0

	imperial := MillilitersToOunces(goal)
	back := OuncesToMilliliters(imperial)

	if diff := math.Abs(back - goal); diff > RoundTripToleranceML {
		t.Fatalf("round trip drifted by %v ml, tolerance %v", diff, RoundTripToleranceML)
	}
}

func TestLengthAndWeightRoundTrip(t *testing.T) {
	if got := InchesToCentimeters(CentimetersToInches(180)); math.Abs(got-180) > 1e-9 {
		t.Fatalf("expected height to round trip, got %v", got)
	}
	if got := PoundsToKilograms(KilogramsToPounds(70)); math.Abs(got-70) > 1e-9 {
		t.Fatalf("expected weight to round trip, got %v", got)
	}
}

func TestFormatVolume(t *testing.T) {
	tests := []struct {
		name   string
		system System
		ml     float64
		want   string
	}{
		{name: "metric", system: Metric, ml: 250, want: "250 ml"},
		{name: "metric rounds", system: Metric, ml: 249.6, want: "250 ml"},
		{name: "imperial", system: Imperial, ml: 250, want: "8.5 oz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.system.FormatVolume(tt.ml); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSystemFor(t *testing.T) {
	if SystemFor(true) != Metric || SystemFor(false) != Imperial {
		t.Fatal("unexpected unit system mapping")
	}
	if Imperial.VolumeLabel() != "oz" || Metric.WeightLabel() != "kg" || Imperial.LengthLabel() != "in" {
		t.Fatal("unexpected unit labels")
	}
}
