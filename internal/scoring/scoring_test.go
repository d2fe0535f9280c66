package scoring

import (
	"math"
	"testing"
)

func TestOverallRatingBoundaries(t *testing.T) {
	tests := []struct {
		carbon float64
		want   Rating
	}{
		{0, RatingExcellent},
		{4.99, RatingExcellent},
		{5.00, RatingGood},
		{9.99, RatingGood},
		{10.00, RatingModerate},
		{14.99, RatingModerate},
		{15.00, RatingPoor},
		{19.99, RatingPoor},
		{20.00, RatingCritical},
		{250, RatingCritical},
	}
	for _, tt := range tests {
		if got := OverallRating(tt.carbon); got != tt.want {
			t.Errorf("OverallRating(%v) = %q, want %q", tt.carbon, got, tt.want)
		}
	}
}

func TestCarbonFootprintComponents(t *testing.T) {
	tests := []struct {
		name   string
		method string
		km     float64
		kwh    float64
		diet   string
		waste  float64
		want   float64
	}{
		{"bike contributes nothing", "bike", 500, 0, "veg", 0, 2.0},
		{"walk contributes nothing", "walk", 42, 0, "veg", 0, 2.0},
		{"car per km", "car", 10, 0, "veg", 0, 4.1},
		{"bus per km", "bus", 10, 0, "veg", 0, 2.8},
		{"ev per km", "ev", 10, 0, "veg", 0, 2.5},
		{"unknown transport uses car", "rocket", 10, 0, "veg", 0, 4.1},
		{"electricity", "walk", 0, 4, "veg", 0, 4.0},
		{"mixed diet", "walk", 0, 0, "mixed", 0, 3.5},
		{"heavy meat diet", "walk", 0, 0, "heavy_meat", 0, 7.0},
		{"unknown diet uses mixed", "walk", 0, 0, "carnivore", 0, 3.5},
		{"waste", "walk", 0, 0, "veg", 5, 4.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CarbonFootprint(tt.method, tt.km, tt.kwh, tt.diet, tt.waste)
			if got != tt.want {
				t.Errorf("CarbonFootprint = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCarbonFootprintIsSumOfParts(t *testing.T) {
	in := Input{TransportMethod: "bus", TransportKm: 12.5, ElectricityKWh: 7.3, DietType: "mixed", WasteKg: 1.7}
	parts := TransportFactor(in.TransportMethod)*in.TransportKm +
		in.ElectricityKWh*0.5 +
		DietCarbon(in.DietType) +
		in.WasteKg*0.4
	got := CarbonFootprint(in.TransportMethod, in.TransportKm, in.ElectricityKWh, in.DietType, in.WasteKg)
	if math.Abs(got-parts) > 0.005 {
		t.Fatalf("CarbonFootprint = %v, parts sum to %v", got, parts)
	}
}

func TestComputeHighImpactScenario(t *testing.T) {
	got := Compute(Input{
		TransportMethod: "car",
		TransportKm:     30,
		ElectricityKWh:  15,
		WaterLiters:     100,
		DietType:        "heavy_meat",
		WasteKg:         3,
	})
	want := Scores{Carbon: 22.0, Water: 5100.0, Energy: 30.0, Waste: 3.0, Rating: RatingCritical}
	if got != want {
		t.Fatalf("Compute = %+v, want %+v", got, want)
	}
}

func TestComputeLowImpactScenario(t *testing.T) {
	got := Compute(Input{TransportMethod: "walk", DietType: "veg"})
	if got.Carbon != 2.0 || got.Rating != RatingExcellent {
		t.Fatalf("Compute = %+v, want carbon 2.0 rated Excellent", got)
	}
	if got.Water != 1500 {
		t.Errorf("Water = %v, want 1500", got.Water)
	}
	if got.Energy != 0 || got.Waste != 0 {
		t.Errorf("Energy, Waste = %v, %v, want 0, 0", got.Energy, got.Waste)
	}
}

func TestWaterAndEnergy(t *testing.T) {
	if got := WaterFootprint(250, "mixed"); got != 3250 {
		t.Errorf("WaterFootprint(250, mixed) = %v, want 3250", got)
	}
	if got := WaterFootprint(0, "unknown"); got != 3000 {
		t.Errorf("WaterFootprint(0, unknown) = %v, want 3000", got)
	}
	if got := EnergyScore(3, 8); got != 7 {
		t.Errorf("EnergyScore(3, 8) = %v, want 7", got)
	}
	if got := WasteScore(1.234); got != 1.23 {
		t.Errorf("WasteScore(1.234) = %v, want 1.23", got)
	}
}

func TestRound2Ties(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.125, 0.12},
		{2.125, 2.12},
		{0.375, 0.38},
		{1500.125, 1500.12},
		{0.015, 0.01},
		{1.005, 1},
		{1.234, 1.23},
		{1.236, 1.24},
		{-2.125, -2.12},
		{22, 22},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestScoresRoundTiesToEven(t *testing.T) {
	if got := CarbonFootprint("walk", 0, 0.25, "veg", 0); got != 2.12 {
		t.Errorf("CarbonFootprint(walk, 0, 0.25, veg, 0) = %v, want 2.12", got)
	}
	if got := CarbonFootprint("walk", 0, 2.25, "veg", 0); got != 3.12 {
		t.Errorf("CarbonFootprint(walk, 0, 2.25, veg, 0) = %v, want 3.12", got)
	}
	if got := WaterFootprint(0.125, "veg"); got != 1500.12 {
		t.Errorf("WaterFootprint(0.125, veg) = %v, want 1500.12", got)
	}
	if got := EnergyScore(0, 0.25); got != 0.12 {
		t.Errorf("EnergyScore(0, 0.25) = %v, want 0.12", got)
	}
	if got := WasteScore(0.125); got != 0.12 {
		t.Errorf("WasteScore(0.125) = %v, want 0.12", got)
	}
}

func TestValidate(t *testing.T) {
	valid := Input{TransportMethod: "car", DietType: "veg"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	bad := Input{TransportKm: -1, ElectricityKWh: math.NaN(), WaterLiters: math.Inf(1)}
	err := bad.Validate()
	if !IsValidationError(err) {
		t.Fatalf("Validate() = %v, want *ValidationError", err)
	}
	ve := err.(*ValidationError)
	if len(ve.Fields) != 5 {
		t.Fatalf("got %d field errors, want 5: %+v", len(ve.Fields), ve.Fields)
	}
}
