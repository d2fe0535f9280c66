package impact

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/ecotrack/backend/internal/model"
)

// CSVHeader is the first row written by EncodeCSV.
var CSVHeader = []string{
	"id", "user_id", "created_at",
	"transport_method", "transport_km", "electricity_kwh", "water_liters", "diet_type", "waste_kg",
	"carbon_score", "water_score", "energy_score", "waste_score", "overall_rating",
}

// EncodeCSV writes logs as CSV with a header row.
func EncodeCSV(w io.Writer, logs []*model.ImpactLog) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, l := range logs {
		if err := cw.Write(csvRow(l)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(l *model.ImpactLog) []string {
	return []string{
		l.ID.String(),
		l.UserID.String(),
		l.CreatedAt.UTC().Format(time.RFC3339),
		l.TransportMethod,
		formatFloat(l.TransportKm),
		formatFloat(l.ElectricityKWh),
		formatFloat(l.WaterLiters),
		l.DietType,
		formatFloat(l.WasteKg),
		formatFloat(l.Carbon),
		formatFloat(l.Water),
		formatFloat(l.Energy),
		formatFloat(l.Waste),
		string(l.Rating),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
