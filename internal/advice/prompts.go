package advice

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ecotrack/backend/internal/scoring"
)

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func tipsPrompt(in scoring.Input, s scoring.Scores) string {
	var b strings.Builder
	b.WriteString("You are an environmental sustainability expert. Based on the following daily habits, ")
	b.WriteString("provide exactly 5 personalized, actionable tips to reduce environmental impact.\n\n")
	b.WriteString("User's Daily Habits:\n")
	fmt.Fprintf(&b, "- Transportation: %s, %s km traveled\n", in.TransportMethod, num(in.TransportKm))
	fmt.Fprintf(&b, "- Electricity Usage: %s kWh\n", num(in.ElectricityKWh))
	fmt.Fprintf(&b, "- Water Usage: %s liters\n", num(in.WaterLiters))
	fmt.Fprintf(&b, "- Diet Type: %s\n", in.DietType)
	fmt.Fprintf(&b, "- Waste Generated: %s kg\n", num(in.WasteKg))
	fmt.Fprintf(&b, "- Carbon Footprint: %s kg CO2\n", num(s.Carbon))
	fmt.Fprintf(&b, "- Overall Rating: %s\n\n", s.Rating)
	b.WriteString("Requirements:\n")
	b.WriteString("1. Provide exactly 5 specific, actionable tips\n")
	b.WriteString("2. Prioritize tips based on their highest impact areas\n")
	b.WriteString("3. Make tips practical and achievable\n")
	b.WriteString("4. Include specific numbers where possible\n")
	b.WriteString("5. Be encouraging and positive\n\n")
	b.WriteString("Format: Return only a JSON array of 5 strings, nothing else.\n")
	b.WriteString(`Example: ["Tip 1", "Tip 2", "Tip 3", "Tip 4", "Tip 5"]`)
	return b.String()
}

func analysisPrompt(in scoring.Input, s scoring.Scores) string {
	var b strings.Builder
	b.WriteString("You are an environmental data analyst. Provide a concise analysis (3-4 sentences) ")
	b.WriteString("of this person's environmental impact:\n\n")
	b.WriteString("Scores:\n")
	fmt.Fprintf(&b, "- Carbon Footprint: %s kg CO2\n", num(s.Carbon))
	fmt.Fprintf(&b, "- Water Usage: %s liters\n", num(s.Water))
	fmt.Fprintf(&b, "- Energy Score: %s kWh\n", num(s.Energy))
	fmt.Fprintf(&b, "- Waste: %s kg\n", num(s.Waste))
	fmt.Fprintf(&b, "- Overall Rating: %s\n", s.Rating)
	fmt.Fprintf(&b, "- Main Transport: %s\n", in.TransportMethod)
	fmt.Fprintf(&b, "- Diet: %s\n\n", in.DietType)
	b.WriteString("Provide an insightful, data-driven analysis that:\n")
	b.WriteString("1. Compares their impact to average benchmarks\n")
	b.WriteString("2. Identifies their biggest impact areas\n")
	b.WriteString("3. Highlights what they're doing well\n")
	b.WriteString("4. Suggests the most impactful improvement area\n\n")
	b.WriteString("Keep it concise, encouraging, and actionable.")
	return b.String()
}

func comparisonPrompt(carbon, average float64) string {
	return fmt.Sprintf("Compare this person's carbon footprint to the average:\n"+
		"- Their carbon footprint: %s kg CO2\n"+
		"- Average carbon footprint: %s kg CO2\n\n"+
		"Provide one encouraging sentence (max 20 words) about their comparison.",
		num(carbon), num(average))
}

// Profile is the optional user context attached to a chat question.
type Profile struct {
	CarbonScore     float64        `json:"carbon_score"`
	OverallRating   scoring.Rating `json:"overall_rating"`
	TransportMethod string         `json:"transport_method"`
	DietType        string         `json:"diet_type"`
}

func chatPrompt(message string, profile *Profile) string {
	var b strings.Builder
	b.WriteString("You are EcoBot, an expert environmental sustainability assistant for EcoTrack app.\n")
	b.WriteString("Answer the user's question in a helpful, concise way (2-3 sentences max).\n")
	if profile != nil {
		if raw, err := json.MarshalIndent(profile, "", "  "); err == nil {
			b.WriteString("\n\nUser's Environmental Profile:\n")
			b.Write(raw)
		}
	}
	b.WriteString("\n\nUser Question: ")
	b.WriteString(message)
	b.WriteString("\n\nProvide a helpful, actionable answer focused on environmental sustainability.")
	return b.String()
}
