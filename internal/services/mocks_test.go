package services_test

import (
	"context"

	"github.com/getmentor/portfolio-api/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockPortfolioRepository is a mock implementation of PortfolioRepository
type MockPortfolioRepository struct {
	mock.Mock
}

func (m *MockPortfolioRepository) Create(ctx context.Context, portfolio *models.Portfolio) error {
	args := m.Called(ctx, portfolio)
	return args.Error(0)
}

// MockImageStorage is a mock implementation of ImageStorage
type MockImageStorage struct {
	mock.Mock
}

func (m *MockImageStorage) ValidateImageType(contentType string) error {
	args := m.Called(contentType)
	return args.Error(0)
}

func (m *MockImageStorage) ValidateImage(data []byte, contentType string) error {
	args := m.Called(data, contentType)
	return args.Error(0)
}

func (m *MockImageStorage) GenerateKey(ownerID, portfolioID string, index int, contentType string) string {
	args := m.Called(ownerID, portfolioID, index, contentType)
	return args.String(0)
}

func (m *MockImageStorage) UploadImage(ctx context.Context, key, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, key, contentType, data)
	return args.String(0), args.Error(1)
}

func (m *MockImageStorage) DeleteImage(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockSkillVocabulary is a mock implementation of SkillVocabulary
type MockSkillVocabulary struct {
	mock.Mock
}

func (m *MockSkillVocabulary) Contains(ctx context.Context, value string) (bool, error) {
	args := m.Called(ctx, value)
	return args.Bool(0), args.Error(1)
}

// MockPortfolioStore is a mock implementation of PortfolioStore
type MockPortfolioStore struct {
	mock.Mock
}

func (m *MockPortfolioStore) List(ctx context.Context, ownerID string) ([]*models.Portfolio, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Portfolio), args.Error(1)
}

func (m *MockPortfolioStore) UpdatePortfolio(portfolio *models.Portfolio) {
	m.Called(portfolio)
}

// MockPortfolioService is a mock implementation of PortfolioServiceInterface
type MockPortfolioService struct {
	mock.Mock
}

func (m *MockPortfolioService) CreatePortfolio(ctx context.Context, ownerID string, payload *models.SubmissionPayload) (*models.CreatePortfolioResult, error) {
	args := m.Called(ctx, ownerID, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreatePortfolioResult), args.Error(1)
}

func (m *MockPortfolioService) SubmitPortfolio(ctx context.Context, ownerID string, payload *models.SubmissionPayload) (*models.CreatePortfolioResult, error) {
	args := m.Called(ctx, ownerID, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreatePortfolioResult), args.Error(1)
}

func (m *MockPortfolioService) ListPortfolios(ctx context.Context, ownerID string) ([]*models.Portfolio, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Portfolio), args.Error(1)
}
