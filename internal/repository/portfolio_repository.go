package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getmentor/portfolio-api/internal/models"
	apperrors "github.com/getmentor/portfolio-api/pkg/errors"
	"github.com/getmentor/portfolio-api/pkg/logger"
	"github.com/getmentor/portfolio-api/pkg/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation
const uniqueViolation = "23505"

// ErrSlugTaken is returned when the generated slug already exists
var ErrSlugTaken = errors.New("portfolio slug already taken")

// PortfolioRepository persists portfolios in PostgreSQL
type PortfolioRepository struct {
	db DBTX
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db DBTX) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

const portfolioColumns = "id::text, owner_id, slug, title, description, links, skills, image_urls, created_at"

// Create inserts a portfolio and fills in its creation time
func (r *PortfolioRepository) Create(ctx context.Context, portfolio *models.Portfolio) error {
	start := time.Now()
	operation := "createPortfolio"

	query := `
		INSERT INTO portfolios (id, owner_id, slug, title, description, links, skills, image_urls)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		portfolio.ID,
		portfolio.OwnerID,
		portfolio.Slug,
		portfolio.Title,
		portfolio.Description,
		nonNil(portfolio.Links),
		portfolio.Skills,
		portfolio.ImageURLs,
	).Scan(&portfolio.CreatedAt)

	duration := metrics.MeasureDuration(start)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			recordMetrics(operation, "conflict", duration)
			return fmt.Errorf("%w: %s", ErrSlugTaken, portfolio.Slug)
		}
		recordMetrics(operation, "error", duration)
		logger.LogAPICall(ctx, "postgres", operation, "error", duration, zap.Error(err))
		return apperrors.UnavailableError("postgres", err)
	}

	recordMetrics(operation, "success", duration)
	logger.LogAPICall(ctx, "postgres", operation, "success", duration,
		zap.String("portfolio_id", portfolio.ID),
		zap.String("owner_id", portfolio.OwnerID))

	return nil
}

// ListByOwner returns an owner's portfolios, newest first
func (r *PortfolioRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Portfolio, error) {
	start := time.Now()
	operation := "listPortfoliosByOwner"

	query := "SELECT " + portfolioColumns + " FROM portfolios WHERE owner_id = $1 ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		duration := metrics.MeasureDuration(start)
		recordMetrics(operation, "error", duration)
		logger.LogAPICall(ctx, "postgres", operation, "error", duration, zap.Error(err))
		return nil, apperrors.UnavailableError("postgres", err)
	}
	defer rows.Close()

	portfolios := []*models.Portfolio{}
	for rows.Next() {
		p, scanErr := scanPortfolio(rows)
		if scanErr != nil {
			recordMetrics(operation, "error", metrics.MeasureDuration(start))
			return nil, fmt.Errorf("failed to scan portfolio row: %w", scanErr)
		}
		portfolios = append(portfolios, p)
	}

	if err := rows.Err(); err != nil {
		recordMetrics(operation, "error", metrics.MeasureDuration(start))
		return nil, fmt.Errorf("error iterating portfolio rows: %w", err)
	}

	duration := metrics.MeasureDuration(start)
	recordMetrics(operation, "success", duration)
	logger.LogAPICall(ctx, "postgres", operation, "success", duration, zap.Int("count", len(portfolios)))

	return portfolios, nil
}

func scanPortfolio(row pgx.Row) (*models.Portfolio, error) {
	var p models.Portfolio
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Slug,
		&p.Title,
		&p.Description,
		&p.Links,
		&p.Skills,
		&p.ImageURLs,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func recordMetrics(operation, status string, duration float64) {
	metrics.DBRequestDuration.WithLabelValues(operation, status).Observe(duration)
	metrics.DBRequestTotal.WithLabelValues(operation, status).Inc()
}
