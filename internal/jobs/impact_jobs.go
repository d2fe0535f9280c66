package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/ecotrack/backend/internal/repository"
)

// Job names.
const (
	StatsJobName   = "impact-stats"
	ArchiveJobName = "impact-archive"
)

// StatsJob logs the aggregate shown on the admin stats endpoint.
func StatsJob(logs repository.ImpactLogRepository, logger *slog.Logger) JobFunc {
	return func(ctx context.Context) error {
		stats, err := logs.Stats(ctx)
		if err != nil {
			return err
		}
		logger.Info("impact stats",
			"total_users", stats.TotalUsers,
			"total_logs", stats.TotalLogs,
			"average_carbon", stats.AverageCarbon,
			"by_rating", stats.ByRating,
		)
		return nil
	}
}

// DayArchiver archives the UTC day before now.
type DayArchiver interface {
	RunPrevious(ctx context.Context, now time.Time) (string, error)
}

// ArchiveJob archives the previous UTC day on every run.
func ArchiveJob(a DayArchiver, now func() time.Time) JobFunc {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context) error {
		_, err := a.RunPrevious(ctx, now())
		return err
	}
}
