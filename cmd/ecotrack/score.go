package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ecotrack/backend/internal/advice"
	"github.com/ecotrack/backend/internal/config"
	"github.com/ecotrack/backend/internal/container"
	"github.com/ecotrack/backend/internal/genai"
	"github.com/ecotrack/backend/internal/scoring"
)

func newScoreCmd() *cobra.Command {
	var (
		in    scoring.Input
		useAI bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one day of habits and print the result as JSON",
		Long: `Computes the impact scores for a single set of habits and prints them with
tips and an analysis. Nothing is stored. With --ai the generative service is
consulted when GEMINI_API_KEY is set; otherwise the rule-based advice is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := scoreGenerator(useAI, slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil)))
			if err != nil {
				return err
			}
			return runScore(cmd.Context(), cmd.OutOrStdout(), gen, in)
		},
	}

	cmd.Flags().StringVar(&in.TransportMethod, "transport", string(scoring.TransportCar), "Transport method: car, bus, bike, walk or ev")
	cmd.Flags().Float64Var(&in.TransportKm, "km", 0, "Distance travelled in km")
	cmd.Flags().Float64Var(&in.ElectricityKWh, "kwh", 0, "Electricity used in kWh")
	cmd.Flags().Float64Var(&in.WaterLiters, "water", 0, "Water used in liters")
	cmd.Flags().StringVar(&in.DietType, "diet", string(scoring.DietMixed), "Diet: veg, mixed or heavy_meat")
	cmd.Flags().Float64Var(&in.WasteKg, "waste", 0, "Waste generated in kg")
	cmd.Flags().BoolVar(&useAI, "ai", false, "Use the generative service for tips and analysis")

	return cmd
}

func scoreGenerator(useAI bool, logger *slog.Logger) (*advice.Generator, error) {
	if !useAI {
		return advice.New(advice.Config{}, nil, logger), nil
	}
	gcfg, err := config.LoadGemini()
	if err != nil {
		return nil, err
	}
	return container.NewGenerator(gcfg, config.AdviceConfig{}, genai.NewClient(gcfg), logger), nil
}

type scoreResult struct {
	Input    scoring.Input  `json:"input"`
	Scores   scoring.Scores `json:"scores"`
	Tips     []string       `json:"tips"`
	Analysis string         `json:"ai_analysis"`
}

func runScore(ctx context.Context, w io.Writer, gen *advice.Generator, in scoring.Input) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := in.Validate(); err != nil {
		return err
	}
	scores := scoring.Compute(in)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(scoreResult{
		Input:    in,
		Scores:   scores,
		Tips:     gen.Tips(ctx, in, scores),
		Analysis: gen.Analysis(ctx, in, scores),
	})
}
