package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/getmentor/portfolio-api/internal/models"
	"github.com/getmentor/portfolio-api/pkg/logger"
	"github.com/getmentor/portfolio-api/pkg/metrics"
	"go.uber.org/zap"
)

// SkillRepository reads the skill vocabulary
type SkillRepository struct {
	db DBTX
}

// NewSkillRepository creates a new skill repository
func NewSkillRepository(db DBTX) *SkillRepository {
	return &SkillRepository{db: db}
}

// GetAllSkills fetches every selectable skill in display order
func (r *SkillRepository) GetAllSkills(ctx context.Context) ([]models.Skill, error) {
	start := time.Now()
	operation := "getAllSkills"

	rows, err := r.db.Query(ctx, "SELECT value, label FROM skills ORDER BY sort_order, label")
	if err != nil {
		duration := metrics.MeasureDuration(start)
		recordMetrics(operation, "error", duration)
		logger.LogAPICall(ctx, "postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to query skills: %w", err)
	}
	defer rows.Close()

	skills := []models.Skill{}
	for rows.Next() {
		var skill models.Skill
		if err := rows.Scan(&skill.Value, &skill.Label); err != nil {
			recordMetrics(operation, "error", metrics.MeasureDuration(start))
			return nil, fmt.Errorf("failed to scan skill row: %w", err)
		}
		skills = append(skills, skill)
	}

	if err := rows.Err(); err != nil {
		recordMetrics(operation, "error", metrics.MeasureDuration(start))
		return nil, fmt.Errorf("error iterating skill rows: %w", err)
	}

	duration := metrics.MeasureDuration(start)
	recordMetrics(operation, "success", duration)
	logger.LogAPICall(ctx, "postgres", operation, "success", duration, zap.Int("count", len(skills)))

	return skills, nil
}
