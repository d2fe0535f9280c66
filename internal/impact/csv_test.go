package impact

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ecotrack/backend/internal/model"
	"github.com/ecotrack/backend/internal/scoring"
)

func TestEncodeCSV(t *testing.T) {
	l := model.NewImpactLog(uuid.New(), heavyDay, scoring.Compute(heavyDay), nil, "")
	l.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	var buf bytes.Buffer
	if err := EncodeCSV(&buf, []*model.ImpactLog{l}); err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	if rows[0][0] != "id" || len(rows[0]) != len(CSVHeader) {
		t.Fatalf("header = %v", rows[0])
	}
	row := rows[1]
	if row[2] != "2026-01-02T03:04:05Z" || row[3] != "car" || row[4] != "30" || row[13] != "Critical" {
		t.Fatalf("row = %v", row)
	}
}

func TestEncodeCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, nil); err != nil {
		t.Fatal(err)
	}
	rows, _ := csv.NewReader(&buf).ReadAll()
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want header only", len(rows))
	}
}
