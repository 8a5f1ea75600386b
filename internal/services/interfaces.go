package services

import (
	"context"

	"github.com/getmentor/portfolio-api/internal/models"
)

// PortfolioRepository persists portfolios
type PortfolioRepository interface {
	Create(ctx context.Context, portfolio *models.Portfolio) error
}

// ImageStorage validates and stores portfolio images
type ImageStorage interface {
	ValidateImageType(contentType string) error
	ValidateImage(data []byte, contentType string) error
	GenerateKey(ownerID, portfolioID string, index int, contentType string) string
	UploadImage(ctx context.Context, key, contentType string, data []byte) (string, error)
	DeleteImage(ctx context.Context, key string) error
}

// SkillVocabulary knows the selectable skills
type SkillVocabulary interface {
	Contains(ctx context.Context, value string) (bool, error)
}

// PortfolioStore is the shared per-owner portfolio state
type PortfolioStore interface {
	List(ctx context.Context, ownerID string) ([]*models.Portfolio, error)
	UpdatePortfolio(portfolio *models.Portfolio)
}

// PortfolioServiceInterface defines the portfolio create and list operations
type PortfolioServiceInterface interface {
	CreatePortfolio(ctx context.Context, ownerID string, payload *models.SubmissionPayload) (*models.CreatePortfolioResult, error)
	SubmitPortfolio(ctx context.Context, ownerID string, payload *models.SubmissionPayload) (*models.CreatePortfolioResult, error)
	ListPortfolios(ctx context.Context, ownerID string) ([]*models.Portfolio, error)
}

// FormServiceInterface defines the operations on hosted portfolio forms
type FormServiceInterface interface {
	Open(ctx context.Context, ownerID string) (*models.PortfolioFormState, error)
	Get(ctx context.Context, ownerID, formID string) (*models.PortfolioFormState, error)
	UpdateFields(ctx context.Context, ownerID, formID string, req *models.UpdatePortfolioFormFieldsRequest) (*models.PortfolioFormState, error)
	SetSkills(ctx context.Context, ownerID, formID string, skills []string) (*models.PortfolioFormState, error)
	SetImages(ctx context.Context, ownerID, formID string, images []models.ImageAttachment) (*models.PortfolioFormState, error)
	Submit(ctx context.Context, ownerID, formID string) (*models.SubmitPortfolioFormResponse, error)
	Reset(ctx context.Context, ownerID, formID string) (*models.PortfolioFormState, error)
	Notifications(ctx context.Context, ownerID, formID string) ([]models.Notification, error)
	Discard(ctx context.Context, ownerID, formID string) error
}
