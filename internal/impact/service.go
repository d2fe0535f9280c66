// Package impact implements the impact-log workflows behind the HTTP API:
// scoring a day, listing and exporting history, chat and comparison.
package impact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ecotrack/backend/internal/advice"
	"github.com/ecotrack/backend/internal/correlation"
	"github.com/ecotrack/backend/internal/events"
	"github.com/ecotrack/backend/internal/model"
	"github.com/ecotrack/backend/internal/repository"
	"github.com/ecotrack/backend/internal/scoring"
)

var (
	// ErrNoLogs is returned when an operation needs at least one stored log.
	ErrNoLogs = errors.New("impact: no impact data found")
	// ErrEmptyMessage is returned by Chat for a blank question.
	ErrEmptyMessage = errors.New("impact: message must not be empty")
)

// Export window bounds, in days.
const (
	DefaultExportDays = 30
	MaxExportDays     = 365
)

// Service coordinates scoring, advice, persistence and event publishing.
type Service struct {
	logs      repository.ImpactLogRepository
	generator *advice.Generator
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a Service. A nil publisher disables events.
func NewService(logs repository.ImpactLogRepository, generator *advice.Generator, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		logs:      logs,
		generator: generator,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Calculate scores in, attaches tips and an analysis, and stores the result
// for userID. Tips and analysis are produced concurrently; neither can fail.
func (s *Service) Calculate(ctx context.Context, userID uuid.UUID, in scoring.Input) (*model.ImpactLog, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	scores := scoring.Compute(in)

	var (
		tips     []string
		analysis string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tips = s.generator.Tips(gctx, in, scores)
		return nil
	})
	g.Go(func() error {
		analysis = s.generator.Analysis(gctx, in, scores)
		return nil
	})
	_ = g.Wait()

	entry := model.NewImpactLog(userID, in, scores, tips, analysis)
	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("store impact log: %w", err)
	}

	log := correlation.Logger(ctx, s.logger)
	log.Info("impact calculated", "log_id", entry.ID, "user_id", userID,
		"carbon_score", scores.Carbon, "overall_rating", scores.Rating)

	if err := s.publisher.PublishImpactCalculated(ctx, events.NewImpactCalculated(entry)); err != nil {
		log.Warn("failed to publish impact event", "log_id", entry.ID, "error", err)
	}
	return entry, nil
}

// History returns one page of the user's logs, newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID, p model.Pagination) (model.Page[model.ImpactResponse], error) {
	logs, total, err := s.logs.ListByUser(ctx, userID, p)
	if err != nil {
		return model.Page[model.ImpactResponse]{}, fmt.Errorf("list impact logs: %w", err)
	}
	out := make([]model.ImpactResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.Response())
	}
	return model.NewPage(out, total, p), nil
}

// Export returns the user's logs from the last days days, newest first.
func (s *Service) Export(ctx context.Context, userID uuid.UUID, days int) ([]*model.ImpactLog, error) {
	if days < 1 || days > MaxExportDays {
		return nil, fmt.Errorf("impact: days must be between 1 and %d", MaxExportDays)
	}
	now := s.now().UTC()
	window := model.DateRange{Start: now.AddDate(0, 0, -days), End: now.Add(time.Second)}
	logs, err := s.logs.ListByUserBetween(ctx, userID, window)
	if err != nil {
		return nil, fmt.Errorf("list impact logs: %w", err)
	}
	return logs, nil
}

// Chat answers message, using the user's latest log as context when one exists.
func (s *Service) Chat(ctx context.Context, userID uuid.UUID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	latest, err := s.logs.LatestByUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load latest impact log: %w", err)
	}
	var profile *advice.Profile
	if latest != nil {
		profile = &advice.Profile{
			CarbonScore:     latest.Carbon,
			OverallRating:   latest.Rating,
			TransportMethod: latest.TransportMethod,
			DietType:        latest.DietType,
		}
	}
	return s.generator.Chat(ctx, message, profile), nil
}

// Comparison relates a user's latest carbon score to the average.
type Comparison struct {
	CarbonScore   float64 `json:"carbon_score"`
	AverageCarbon float64 `json:"average_carbon"`
	Difference    float64 `json:"difference"`
	Insight       string  `json:"insight"`
}

// Compare builds a Comparison for the user's latest log. It returns ErrNoLogs
// when the user has none.
func (s *Service) Compare(ctx context.Context, userID uuid.UUID) (*Comparison, error) {
	latest, err := s.logs.LatestByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load latest impact log: %w", err)
	}
	if latest == nil {
		return nil, ErrNoLogs
	}
	avg := s.generator.AverageCarbon()
	return &Comparison{
		CarbonScore:   latest.Carbon,
		AverageCarbon: avg,
		Difference:    scoring.Round2(latest.Carbon - avg),
		Insight:       s.generator.Comparison(ctx, latest.Carbon),
	}, nil
}
