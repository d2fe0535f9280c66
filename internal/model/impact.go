package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecotrack/backend/internal/scoring"
)

// ImpactLog is one scored day, stored with the raw inputs it came from.
type ImpactLog struct {
	BaseEntity
	UserID uuid.UUID `json:"user_id" db:"user_id"`
	scoring.Input
	scoring.Scores
	Tips       []string `json:"tips" db:"tips"`
	AIAnalysis string   `json:"ai_analysis,omitempty" db:"ai_analysis"`
}

// NewImpactLog stamps a fresh ID and creation time onto a computed result.
func NewImpactLog(userID uuid.UUID, in scoring.Input, s scoring.Scores, tips []string, analysis string) *ImpactLog {
	return &ImpactLog{
		BaseEntity: NewBaseEntity(),
		UserID:     userID,
		Input:      in,
		Scores:     s,
		Tips:       tips,
		AIAnalysis: analysis,
	}
}

// ImpactResponse is what a user sees for one of their logs.
type ImpactResponse struct {
	ID            string         `json:"id"`
	CarbonScore   float64        `json:"carbon_score"`
	WaterScore    float64        `json:"water_score"`
	EnergyScore   float64        `json:"energy_score"`
	WasteScore    float64        `json:"waste_score"`
	OverallRating scoring.Rating `json:"overall_rating"`
	Tips          []string       `json:"tips"`
	AIAnalysis    *string        `json:"ai_analysis"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Response converts the log to its user-facing view.
func (l *ImpactLog) Response() ImpactResponse {
	var analysis *string
	if l.AIAnalysis != "" {
		a := l.AIAnalysis
		analysis = &a
	}
	tips := l.Tips
	if tips == nil {
		tips = []string{}
	}
	return ImpactResponse{
		ID:            l.ID.String(),
		CarbonScore:   l.Carbon,
		WaterScore:    l.Water,
		EnergyScore:   l.Energy,
		WasteScore:    l.Waste,
		OverallRating: l.Rating,
		Tips:          tips,
		AIAnalysis:    analysis,
		CreatedAt:     l.CreatedAt,
	}
}

// AdminLogView is a log joined with its owner, for the admin listing.
type AdminLogView struct {
	ID            string         `json:"id"`
	UserEmail     string         `json:"user_email"`
	UserName      string         `json:"user_name"`
	CarbonScore   float64        `json:"carbon_score"`
	WaterScore    float64        `json:"water_score"`
	EnergyScore   float64        `json:"energy_score"`
	WasteScore    float64        `json:"waste_score"`
	OverallRating scoring.Rating `json:"overall_rating"`
	CreatedAt     time.Time      `json:"created_at"`
}

// UnknownOwner fills user_email and user_name when a log's owner is gone.
const UnknownOwner = "Unknown"

// ImpactStats aggregates every stored log.
type ImpactStats struct {
	TotalUsers    int                    `json:"total_users"`
	TotalLogs     int                    `json:"total_logs"`
	AverageCarbon float64                `json:"average_carbon"`
	ByRating      map[scoring.Rating]int `json:"by_rating"`
}
