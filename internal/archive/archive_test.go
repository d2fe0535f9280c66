package archive

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ecotrack/backend/internal/config"
	"github.com/ecotrack/backend/internal/model"
	"github.com/ecotrack/backend/internal/repository/repotest"
	"github.com/ecotrack/backend/internal/scoring"
)

func TestLocalStoragePutGet(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)
	ctx := context.Background()

	if err := s.Put(ctx, "a/b/c.csv", []byte("x,y\n"), contentTypeCSV); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "a/b/c.csv")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "x,y\n" {
		t.Errorf("Get = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "a", "b", "c.csv")); err != nil {
		t.Errorf("expected file on disk: %v", err)
	}
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	s := NewLocalStorage(t.TempDir())
	for _, key := range []string{"../outside.csv", "/etc/passwd"} {
		if err := s.Put(context.Background(), key, nil, contentTypeCSV); err == nil {
			t.Errorf("Put(%q) should fail", key)
		}
	}
}

func TestNewStorage(t *testing.T) {
	s, err := NewStorage(context.Background(), config.ArchiveConfig{Backend: "local", LocalDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*LocalStorage); !ok {
		t.Fatalf("storage = %T", s)
	}
	if _, err := NewStorage(context.Background(), config.ArchiveConfig{Backend: "ftp"}); err == nil {
		t.Fatal("unknown backend should fail")
	}
	if _, err := NewStorage(context.Background(), config.ArchiveConfig{Backend: "s3"}); err == nil {
		t.Fatal("s3 without a bucket should fail")
	}
}

func TestKey(t *testing.T) {
	day := time.Date(2026, 2, 7, 23, 30, 0, 0, time.FixedZone("x", -5*3600))
	if got := Key(day); got != "impact-logs/2026/02/08.csv" {
		t.Fatalf("Key = %q", got)
	}
}

func TestArchiverRunPrevious(t *testing.T) {
	store := repotest.NewStore()
	now := time.Date(2026, 5, 10, 1, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)

	for i, created := range []time.Time{
		yesterday.Add(-30 * time.Minute),
		yesterday.Add(2 * time.Hour),
		now,
	} {
		l := model.NewImpactLog(uuid.New(), scoring.Input{TransportMethod: "bus", DietType: "veg"}, scoring.Scores{Carbon: float64(i)}, nil, "")
		l.CreatedAt = created
		store.Logs().Create(context.Background(), l)
	}

	dir := t.TempDir()
	a := NewArchiver(store.Logs(), NewLocalStorage(dir), slog.New(slog.NewTextHandler(io.Discard, nil)))
	key, err := a.RunPrevious(context.Background(), now)
	if err != nil {
		t.Fatal(err)
	}
	if key != "impact-logs/2026/05/09.csv" {
		t.Fatalf("key = %q", key)
	}

	data, err := os.ReadFile(filepath.Join(dir, "impact-logs", "2026", "05", "09.csv"))
	if err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	// 00:30 and 03:00 on the 9th fall inside the day; the log at 01:00 on the 10th does not.
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
}
