// Package scoring turns a day of self-reported lifestyle metrics into
// environmental impact scores and a categorical rating.
//
// Every function here is pure. Inputs are expected to be validated
// (finite, non-negative) before they arrive; see Input.Validate.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// TransportMethod is how the user travelled.
type TransportMethod string

const (
	TransportCar  TransportMethod = "car"
	TransportBus  TransportMethod = "bus"
	TransportBike TransportMethod = "bike"
	TransportWalk TransportMethod = "walk"
	TransportEV   TransportMethod = "ev"
)

// DietType is the user's diet category for the day.
type DietType string

const (
	DietVeg       DietType = "veg"
	DietMixed     DietType = "mixed"
	DietHeavyMeat DietType = "heavy_meat"
)

// Rating is the five-level label derived from the carbon score. The string
// values are part of the public API.
type Rating string

const (
	RatingExcellent Rating = "Excellent"
	RatingGood      Rating = "Good"
	RatingModerate  Rating = "Moderate"
	RatingPoor      Rating = "Poor"
	RatingCritical  Rating = "Critical"
)

// Ratings lists every rating from best to worst.
var Ratings = []Rating{RatingExcellent, RatingGood, RatingModerate, RatingPoor, RatingCritical}

// kg CO2 per km.
var transportFactors = map[TransportMethod]float64{
	TransportCar:  0.21,
	TransportBus:  0.08,
	TransportBike: 0,
	TransportWalk: 0,
	TransportEV:   0.05,
}

// kg CO2 per day.
var dietCarbon = map[DietType]float64{
	DietVeg:       2.0,
	DietMixed:     3.5,
	DietHeavyMeat: 7.0,
}

// liters per day.
var dietWater = map[DietType]float64{
	DietVeg:       1500,
	DietMixed:     3000,
	DietHeavyMeat: 5000,
}

const (
	electricityFactor = 0.5 // kg CO2 per kWh
	wasteFactor       = 0.4 // kg CO2 per kg of waste
	travelEnergy      = 0.5 // energy units per km
)

// rating thresholds, checked in ascending order with strict <.
var ratingBands = []struct {
	below  float64
	rating Rating
}{
	{5, RatingExcellent},
	{10, RatingGood},
	{15, RatingModerate},
	{20, RatingPoor},
}

// Input is one day of lifestyle metrics.
type Input struct {
	TransportMethod string  `json:"transport_method"`
	TransportKm     float64 `json:"transport_km"`
	ElectricityKWh  float64 `json:"electricity_kwh"`
	WaterLiters     float64 `json:"water_liters"`
	DietType        string  `json:"diet_type"`
	WasteKg         float64 `json:"waste_kg"`
}

// Scores is the derived result for one Input.
type Scores struct {
	Carbon float64 `json:"carbon_score"`
	Water  float64 `json:"water_score"`
	Energy float64 `json:"energy_score"`
	Waste  float64 `json:"waste_score"`
	Rating Rating  `json:"overall_rating"`
}

// FieldError describes one invalid Input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every invalid field of an Input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("invalid %s: %s", e.Fields[0].Field, e.Fields[0].Message)
	}
	return fmt.Sprintf("%d invalid fields", len(e.Fields))
}

// Validate rejects missing categories and negative or non-finite numbers.
// Unknown transport methods and diets are accepted; they score with the
// car and mixed factors respectively.
func (in Input) Validate() error {
	var fields []FieldError
	if in.TransportMethod == "" {
		fields = append(fields, FieldError{"transport_method", "is required"})
	}
	if in.DietType == "" {
		fields = append(fields, FieldError{"diet_type", "is required"})
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"transport_km", in.TransportKm},
		{"electricity_kwh", in.ElectricityKWh},
		{"water_liters", in.WaterLiters},
		{"waste_kg", in.WasteKg},
	} {
		switch {
		case math.IsNaN(f.v) || math.IsInf(f.v, 0):
			fields = append(fields, FieldError{f.name, "must be a finite number"})
		case f.v < 0:
			fields = append(fields, FieldError{f.name, "must be greater than or equal to 0"})
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// IsValidationError reports whether err came from Input.Validate.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransportFactor returns kg CO2 per km for method, defaulting to car.
func TransportFactor(method string) float64 {
	if f, ok := transportFactors[TransportMethod(method)]; ok {
		return f
	}
	return transportFactors[TransportCar]
}

// DietCarbon returns the daily diet constant, defaulting to mixed.
func DietCarbon(diet string) float64 {
	if c, ok := dietCarbon[DietType(diet)]; ok {
		return c
	}
	return dietCarbon[DietMixed]
}

// DietWater returns the daily diet water constant, defaulting to mixed.
func DietWater(diet string) float64 {
	if w, ok := dietWater[DietType(diet)]; ok {
		return w
	}
	return dietWater[DietMixed]
}

// CarbonFootprint is transport + electricity + diet + waste, in kg CO2.
func CarbonFootprint(method string, km, kwh float64, diet string, wasteKg float64) float64 {
	transport := TransportFactor(method) * km
	electricity := kwh * electricityFactor
	food := DietCarbon(diet)
	waste := wasteKg * wasteFactor
	return Round2(transport + electricity + food + waste)
}

// WaterFootprint is direct usage plus the diet's embedded water.
func WaterFootprint(liters float64, diet string) float64 {
	return Round2(liters + DietWater(diet))
}

// EnergyScore combines electricity with half a unit per km travelled.
func EnergyScore(kwh, km float64) float64 {
	return Round2(kwh + travelEnergy*km)
}

// WasteScore is the waste mass itself.
func WasteScore(kg float64) float64 {
	return Round2(kg)
}

// OverallRating maps a carbon score onto a Rating. A score sitting exactly
// on a threshold belongs to the worse bucket: 5.00 is Good, 20.00 is Critical.
func OverallRating(carbon float64) Rating {
	for _, band := range ratingBands {
		if carbon < band.below {
			return band.rating
		}
	}
	return RatingCritical
}

// Compute runs every scoring function for in.
func Compute(in Input) Scores {
	carbon := CarbonFootprint(in.TransportMethod, in.TransportKm, in.ElectricityKWh, in.DietType, in.WasteKg)
	return Scores{
		Carbon: carbon,
		Water:  WaterFootprint(in.WaterLiters, in.DietType),
		Energy: EnergyScore(in.ElectricityKWh, in.TransportKm),
		Waste:  WasteScore(in.WasteKg),
		Rating: OverallRating(carbon),
	}
}

// Round2 rounds to two decimal places using the exact binary value of v,
// with exact ties going to the even digit: 2.125 becomes 2.12, while 1.005
// (stored just below the tie) becomes 1.
func Round2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}
