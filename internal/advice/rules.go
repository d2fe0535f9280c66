package advice

import "github.com/ecotrack/backend/internal/scoring"

// MaxTips bounds every tip list this package returns.
const MaxTips = 5

// Rule tip texts. Clients match on some of these, so keep them stable.
const (
	TipCarpool          = "Consider using public transport or carpooling to reduce emissions"
	TipShortTrips       = "Try cycling or walking for short distances under 5km"
	TipSwitchVehicle    = "Switch to electric vehicles or use public transport twice a week"
	TipAppliancesOff    = "Reduce electricity usage by turning off unused appliances"
	TipLEDBulbs         = "Consider switching to LED bulbs and energy-efficient appliances"
	TipUnplugDevices    = "Unplug devices when not in use to save energy"
	TipLessRedMeat      = "Reduce red meat consumption to 2-3 times per week"
	TipPlantBased       = "Try incorporating more plant-based meals into your diet"
	TipMeatFreeDay      = "Consider having one meat-free day per week"
	TipRecycling        = "Increase recycling efforts and reduce single-use plastics"
	TipCompost          = "Compost organic waste to reduce landfill contribution"
	TipSegregation      = "Practice proper waste segregation for better recycling"
	TipHighFootprint    = "Your carbon footprint is high. Focus on sustainable transportation and energy use"
	TipKeepItUp         = "Great job! Maintain your eco-friendly habits"
	TipShareSustainable = "Share your sustainable practices with friends and family"
)

// lowEmission methods never trigger the long-distance vehicle tip.
var lowEmission = map[scoring.TransportMethod]bool{
	scoring.TransportBike: true,
	scoring.TransportWalk: true,
	scoring.TransportEV:   true,
}

// RuleTips returns between one and MaxTips tips for in. Rules run in a fixed
// order and the list is cut after MaxTips, so earlier rules win.
func RuleTips(in scoring.Input, carbon float64) []string {
	var tips []string
	method := scoring.TransportMethod(in.TransportMethod)

	switch {
	case method == scoring.TransportCar && in.TransportKm > 20:
		tips = append(tips, TipCarpool)
	case method == scoring.TransportCar:
		tips = append(tips, TipShortTrips)
	}

	if !lowEmission[method] && in.TransportKm > 10 {
		tips = append(tips, TipSwitchVehicle)
	}

	switch {
	case in.ElectricityKWh > 10:
		tips = append(tips, TipAppliancesOff, TipLEDBulbs)
	case in.ElectricityKWh > 5:
		tips = append(tips, TipUnplugDevices)
	}

	switch scoring.DietType(in.DietType) {
	case scoring.DietHeavyMeat:
		tips = append(tips, TipLessRedMeat, TipPlantBased)
	case scoring.DietMixed:
		tips = append(tips, TipMeatFreeDay)
	}

	switch {
	case in.WasteKg > 2:
		tips = append(tips, TipRecycling, TipCompost)
	case in.WasteKg > 1:
		tips = append(tips, TipSegregation)
	}

	if carbon > 15 {
		tips = append(tips, TipHighFootprint)
	}

	if len(tips) == 0 {
		tips = append(tips, TipKeepItUp, TipShareSustainable)
	}
	return truncate(tips)
}

func truncate(tips []string) []string {
	if len(tips) > MaxTips {
		return tips[:MaxTips]
	}
	return tips
}
