package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/ecotrack/backend/internal/advice"
	"github.com/ecotrack/backend/internal/scoring"
)

func TestRunScore(t *testing.T) {
	gen := advice.New(advice.Config{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	in := scoring.Input{TransportMethod: "walk", TransportKm: 2, ElectricityKWh: 3, WaterLiters: 50, DietType: "veg", WasteKg: 1}

	var out bytes.Buffer
	if err := runScore(context.Background(), &out, gen, in); err != nil {
		t.Fatal(err)
	}

	var res scoreResult
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Scores != scoring.Compute(in) {
		t.Fatalf("scores = %+v", res.Scores)
	}
	if len(res.Tips) == 0 || res.Analysis == "" {
		t.Fatalf("result = %+v", res)
	}
}

func TestRunScoreRejectsInvalidInput(t *testing.T) {
	gen := advice.New(advice.Config{}, nil, nil)
	err := runScore(context.Background(), io.Discard, gen, scoring.Input{TransportMethod: "car", DietType: "veg", WasteKg: -1})
	if !scoring.IsValidationError(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestScoreCommand(t *testing.T) {
	cmd := newScoreCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--transport", "bus", "--km", "10", "--diet", "mixed"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	var res scoreResult
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	// 10*0.08 + 3.5
	if res.Scores.Carbon != 4.3 {
		t.Fatalf("carbon = %v, want 4.3", res.Scores.Carbon)
	}
}
