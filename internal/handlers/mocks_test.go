package handlers

import (
	"context"

	"github.com/getmentor/portfolio-api/internal/middleware"
	"github.com/getmentor/portfolio-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// withSession stands in for UserSessionMiddleware
func withSession(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserSessionContextKey, &models.UserSession{UserID: userID})
		c.Next()
	}
}

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

type MockFormService struct {
	mock.Mock
}

func (m *MockFormService) state(args mock.Arguments) (*models.PortfolioFormState, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PortfolioFormState), args.Error(1)
}

func (m *MockFormService) Open(ctx context.Context, ownerID string) (*models.PortfolioFormState, error) {
	return m.state(m.Called(ctx, ownerID))
}

func (m *MockFormService) Get(ctx context.Context, ownerID, formID string) (*models.PortfolioFormState, error) {
	return m.state(m.Called(ctx, ownerID, formID))
}

func (m *MockFormService) UpdateFields(ctx context.Context, ownerID, formID string, req *models.UpdatePortfolioFormFieldsRequest) (*models.PortfolioFormState, error) {
	return m.state(m.Called(ctx, ownerID, formID, req))
}

func (m *MockFormService) SetSkills(ctx context.Context, ownerID, formID string, skills []string) (*models.PortfolioFormState, error) {
	return m.state(m.Called(ctx, ownerID, formID, skills))
}

func (m *MockFormService) SetImages(ctx context.Context, ownerID, formID string, images []models.ImageAttachment) (*models.PortfolioFormState, error) {
	return m.state(m.Called(ctx, ownerID, formID, images))
}

func (m *MockFormService) Submit(ctx context.Context, ownerID, formID string) (*models.SubmitPortfolioFormResponse, error) {
	args := m.Called(ctx, ownerID, formID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubmitPortfolioFormResponse), args.Error(1)
}

func (m *MockFormService) Reset(ctx context.Context, ownerID, formID string) (*models.PortfolioFormState, error) {
	return m.state(m.Called(ctx, ownerID, formID))
}

func (m *MockFormService) Notifications(ctx context.Context, ownerID, formID string) ([]models.Notification, error) {
	args := m.Called(ctx, ownerID, formID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockFormService) Discard(ctx context.Context, ownerID, formID string) error {
	return m.Called(ctx, ownerID, formID).Error(0)
}

type MockSkillSource struct {
	mock.Mock
}

func (m *MockSkillSource) Get(ctx context.Context) ([]models.Skill, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Skill), args.Error(1)
}
