package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ecotrack/backend/internal/model"
	"github.com/ecotrack/backend/internal/scoring"
)

const impactColumns = `id, user_id, transport_method, transport_km, electricity_kwh, water_liters,
	diet_type, waste_kg, carbon_score, water_score, energy_score, waste_score,
	overall_rating, tips, ai_analysis, created_at`

// PostgresImpactLogRepository implements ImpactLogRepository for PostgreSQL.
type PostgresImpactLogRepository struct {
	db *sql.DB
}

// NewPostgresImpactLogRepository creates a new PostgresImpactLogRepository.
func NewPostgresImpactLogRepository(db *sql.DB) *PostgresImpactLogRepository {
	return &PostgresImpactLogRepository{db: db}
}

func (r *PostgresImpactLogRepository) Create(ctx context.Context, l *model.ImpactLog) error {
	tips := l.Tips
	if tips == nil {
		tips = []string{}
	}
	tipsJSON, err := json.Marshal(tips)
	if err != nil {
		return fmt.Errorf("encode tips: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO impact_logs (`+impactColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, l.ID, l.UserID, l.TransportMethod, l.TransportKm, l.ElectricityKWh, l.WaterLiters,
		l.DietType, l.WasteKg, l.Carbon, l.Water, l.Energy, l.Waste,
		string(l.Rating), tipsJSON, l.AIAnalysis, l.CreatedAt)
	return err
}

func (r *PostgresImpactLogRepository) ListByUser(ctx context.Context, userID uuid.UUID, p model.Pagination) ([]*model.ImpactLog, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM impact_logs WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	logs, err := r.query(ctx, fmt.Sprintf(`
		SELECT `+impactColumns+` FROM impact_logs
		WHERE user_id = $1
		ORDER BY created_at DESC LIMIT %d OFFSET %d
	`, p.PageSize, p.Offset()), userID)
	return logs, total, err
}

func (r *PostgresImpactLogRepository) LatestByUser(ctx context.Context, userID uuid.UUID) (*model.ImpactLog, error) {
	logs, err := r.query(ctx, `
		SELECT `+impactColumns+` FROM impact_logs
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1
	`, userID)
	if err != nil || len(logs) == 0 {
		return nil, err
	}
	return logs[0], nil
}

func (r *PostgresImpactLogRepository) ListByUserBetween(ctx context.Context, userID uuid.UUID, dr model.DateRange) ([]*model.ImpactLog, error) {
	return r.query(ctx, `
		SELECT `+impactColumns+` FROM impact_logs
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at DESC
	`, userID, dr.Start, dr.End)
}

func (r *PostgresImpactLogRepository) ListBetween(ctx context.Context, dr model.DateRange) ([]*model.ImpactLog, error) {
	return r.query(ctx, `
		SELECT `+impactColumns+` FROM impact_logs
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at ASC
	`, dr.Start, dr.End)
}

func (r *PostgresImpactLogRepository) ListWithOwners(ctx context.Context, p model.Pagination) ([]model.AdminLogView, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM impact_logs`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT l.id, COALESCE(u.email, $1), COALESCE(u.full_name, $1),
		       l.carbon_score, l.water_score, l.energy_score, l.waste_score,
		       l.overall_rating, l.created_at
		FROM impact_logs l
		LEFT JOIN users u ON u.id = l.user_id
		ORDER BY l.created_at DESC LIMIT %d OFFSET %d
	`, p.PageSize, p.Offset()), model.UnknownOwner)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var views []model.AdminLogView
	for rows.Next() {
		var v model.AdminLogView
		var id uuid.UUID
		if err := rows.Scan(&id, &v.UserEmail, &v.UserName,
			&v.CarbonScore, &v.WaterScore, &v.EnergyScore, &v.WasteScore,
			&v.OverallRating, &v.CreatedAt); err != nil {
			return nil, 0, err
		}
		v.ID = id.String()
		views = append(views, v)
	}
	return views, total, rows.Err()
}

func (r *PostgresImpactLogRepository) Stats(ctx context.Context) (*model.ImpactStats, error) {
	stats := &model.ImpactStats{ByRating: make(map[scoring.Rating]int, len(scoring.Ratings))}
	for _, rating := range scoring.Ratings {
		stats.ByRating[rating] = 0
	}

	err := r.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM users), COUNT(*), COALESCE(AVG(carbon_score), 0)
		FROM impact_logs
	`).Scan(&stats.TotalUsers, &stats.TotalLogs, &stats.AverageCarbon)
	if err != nil {
		return nil, err
	}
	stats.AverageCarbon = scoring.Round2(stats.AverageCarbon)

	rows, err := r.db.QueryContext(ctx, `SELECT overall_rating, COUNT(*) FROM impact_logs GROUP BY overall_rating`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var rating scoring.Rating
		var n int
		if err := rows.Scan(&rating, &n); err != nil {
			return nil, err
		}
		stats.ByRating[rating] = n
	}
	return stats, rows.Err()
}

func (r *PostgresImpactLogRepository) query(ctx context.Context, q string, args ...any) ([]*model.ImpactLog, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*model.ImpactLog
	for rows.Next() {
		l, err := scanImpactLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func scanImpactLog(rows *sql.Rows) (*model.ImpactLog, error) {
	var l model.ImpactLog
	var tipsJSON []byte
	err := rows.Scan(&l.ID, &l.UserID, &l.TransportMethod, &l.TransportKm, &l.ElectricityKWh, &l.WaterLiters,
		&l.DietType, &l.WasteKg, &l.Carbon, &l.Water, &l.Energy, &l.Waste,
		&l.Rating, &tipsJSON, &l.AIAnalysis, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tipsJSON, &l.Tips); err != nil {
		return nil, fmt.Errorf("decode tips for log %s: %w", l.ID, err)
	}
	return &l, nil
}
