package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ecotrack/backend/internal/impact"
	"github.com/ecotrack/backend/internal/model"
	"github.com/ecotrack/backend/internal/repository"
)

const contentTypeCSV = "text/csv"

// Key returns the blob key for the archive of day's logs.
func Key(day time.Time) string {
	return "impact-logs/" + day.UTC().Format("2006/01/02") + ".csv"
}

// Archiver writes one CSV per UTC day.
type Archiver struct {
	logs    repository.ImpactLogRepository
	storage Storage
	logger  *slog.Logger
}

// NewArchiver creates an Archiver.
func NewArchiver(logs repository.ImpactLogRepository, storage Storage, logger *slog.Logger) *Archiver {
	return &Archiver{logs: logs, storage: storage, logger: logger}
}

// Run archives the UTC day containing day and returns the key written.
// A day without logs still produces a header-only file.
func (a *Archiver) Run(ctx context.Context, day time.Time) (string, error) {
	window := model.Day(day)
	logs, err := a.logs.ListBetween(ctx, window)
	if err != nil {
		return "", fmt.Errorf("list impact logs: %w", err)
	}

	var buf bytes.Buffer
	if err := impact.EncodeCSV(&buf, logs); err != nil {
		return "", fmt.Errorf("encode csv: %w", err)
	}

	key := Key(window.Start)
	if err := a.storage.Put(ctx, key, buf.Bytes(), contentTypeCSV); err != nil {
		return "", err
	}
	a.logger.Info("impact logs archived", "key", key, "logs", len(logs))
	return key, nil
}

// RunPrevious archives the UTC day before now.
func (a *Archiver) RunPrevious(ctx context.Context, now time.Time) (string, error) {
	return a.Run(ctx, now.UTC().AddDate(0, 0, -1))
}
