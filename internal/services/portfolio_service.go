package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/getmentor/portfolio-api/config"
	"github.com/getmentor/portfolio-api/internal/models"
	"github.com/getmentor/portfolio-api/internal/repository"
	apperrors "github.com/getmentor/portfolio-api/pkg/errors"
	"github.com/getmentor/portfolio-api/pkg/httpclient"
	"github.com/getmentor/portfolio-api/pkg/logger"
	"github.com/getmentor/portfolio-api/pkg/metrics"
	"github.com/getmentor/portfolio-api/pkg/retry"
	"github.com/getmentor/portfolio-api/pkg/slug"
	"github.com/getmentor/portfolio-api/pkg/storage"
	"github.com/getmentor/portfolio-api/pkg/tracing"
	"github.com/getmentor/portfolio-api/pkg/trigger"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	minTitleLength       = 2
	minDescriptionLength = 50

	portfolioCreatedEvent = "portfolio.created"
)

type PortfolioService struct {
	repo       PortfolioRepository
	storage    ImageStorage
	skills     SkillVocabulary
	store      PortfolioStore
	config     *config.Config
	httpClient httpclient.Client
	policy     *bluemonday.Policy
	now        func() time.Time
	newID      func() string
}

func NewPortfolioService(
	repo PortfolioRepository,
	imageStorage ImageStorage,
	skills SkillVocabulary,
	store PortfolioStore,
	cfg *config.Config,
	httpClient httpclient.Client,
) *PortfolioService {
	return &PortfolioService{
		repo:       repo,
		storage:    imageStorage,
		skills:     skills,
		store:      store,
		config:     cfg,
		httpClient: httpClient,
		policy:     bluemonday.StrictPolicy(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// CreatePortfolio uploads the images of payload and persists a new portfolio
// owned by ownerID. Uploaded images are removed again when the insert fails.
func (s *PortfolioService) CreatePortfolio(ctx context.Context, ownerID string, payload *models.SubmissionPayload) (*models.CreatePortfolioResult, error) {
	ctx, span := tracing.StartSpan(ctx, "portfolio.create",
		attribute.String("owner_id", ownerID),
		attribute.Int("images", len(payload.Images)),
	)
	defer span.End()

	portfolio, err := s.buildPortfolio(ctx, ownerID, payload)
	if err != nil {
		metrics.PortfolioCreations.WithLabelValues("invalid").Inc()
		tracing.RecordError(span, err)
		return nil, err
	}

	keys, err := s.uploadImages(ctx, portfolio, payload.Images)
	if err != nil {
		metrics.PortfolioCreations.WithLabelValues("error").Inc()
		tracing.RecordError(span, err)
		return nil, err
	}

	if err := s.insert(ctx, portfolio); err != nil {
		s.deleteImages(ctx, keys)
		metrics.PortfolioCreations.WithLabelValues("error").Inc()
		tracing.RecordError(span, err)
		logger.Error("Failed to create portfolio", zap.Error(err), zap.String("owner_id", ownerID))
		return nil, err
	}

	metrics.PortfolioCreations.WithLabelValues("success").Inc()
	span.SetAttributes(attribute.String("portfolio_id", portfolio.ID))
	logger.Info("Portfolio created",
		zap.String("portfolio_id", portfolio.ID),
		zap.String("owner_id", ownerID),
		zap.String("slug", portfolio.Slug),
		zap.Int("images", len(portfolio.ImageURLs)))

	trigger.CallAsync(ctx, s.config.EventTriggers.PortfolioCreatedTriggerURL, trigger.Event{
		Type:       portfolioCreatedEvent,
		RecordID:   portfolio.ID,
		OccurredAt: portfolio.CreatedAt,
		Data:       portfolio,
	}, s.httpClient)

	return &models.CreatePortfolioResult{
		NewPortfolio: portfolio,
		Message:      fmt.Sprintf("Portfolio \"%s\" is now visible on your profile.", portfolio.Title),
	}, nil
}

// SubmitPortfolio creates a portfolio and publishes it to the shared store
func (s *PortfolioService) SubmitPortfolio(ctx context.Context, ownerID string, payload *models.SubmissionPayload) (*models.CreatePortfolioResult, error) {
	result, err := s.CreatePortfolio(ctx, ownerID, payload)
	if err != nil {
		return nil, err
	}
	s.store.UpdatePortfolio(result.NewPortfolio)
	return result, nil
}

// ListPortfolios returns the portfolios of ownerID, newest first
func (s *PortfolioService) ListPortfolios(ctx context.Context, ownerID string) ([]*models.Portfolio, error) {
	portfolios, err := s.store.List(ctx, ownerID)
	if err != nil {
		logger.Error("Failed to list portfolios", zap.Error(err), zap.String("owner_id", ownerID))
		return nil, err
	}
	return portfolios, nil
}

func (s *PortfolioService) buildPortfolio(ctx context.Context, ownerID string, payload *models.SubmissionPayload) (*models.Portfolio, error) {
	title := s.sanitize(payload.Title)
	if utf8.RuneCountInString(title) < minTitleLength {
		return nil, apperrors.InvalidInputError("title", fmt.Sprintf("must be at least %d characters", minTitleLength))
	}
	description := s.sanitize(payload.Description)
	if utf8.RuneCountInString(description) < minDescriptionLength {
		return nil, apperrors.InvalidInputError("description", fmt.Sprintf("must be at least %d characters", minDescriptionLength))
	}

	skills, err := s.checkSkills(ctx, payload.Skills)
	if err != nil {
		return nil, err
	}

	if len(payload.Images) == 0 {
		return nil, apperrors.InvalidInputError("images", "at least one image is required")
	}
	for i, image := range payload.Images {
		if err := s.storage.ValidateImageType(image.ContentType); err != nil {
			return nil, apperrors.InvalidInputError(fmt.Sprintf("images[%d]", i), err.Error())
		}
	}

	return &models.Portfolio{
		ID:          s.newID(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Links:       cleanLinks(payload.Links),
		Skills:      skills,
		CreatedAt:   s.now().UTC(),
	}, nil
}

// maxSanitizePasses bounds the strip/unescape loop for nested entity encodings
const maxSanitizePasses = 5

// sanitize strips markup, including markup hidden behind HTML entities, and
// returns the plain text as typed. Values that keep producing markup after
// maxSanitizePasses are returned in their escaped form.
func (s *PortfolioService) sanitize(value string) string {
	for i := 0; i < maxSanitizePasses; i++ {
		stripped := s.policy.Sanitize(value)
		plain := html.UnescapeString(stripped)
		if plain == value {
			return strings.TrimSpace(plain)
		}
		value = plain
	}
	return strings.TrimSpace(s.policy.Sanitize(value))
}

func (s *PortfolioService) checkSkills(ctx context.Context, skills []string) ([]string, error) {
	seen := make(map[string]bool, len(skills))
	result := make([]string, 0, len(skills))

	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		if skill == "" || seen[skill] {
			continue
		}
		ok, err := s.skills.Contains(ctx, skill)
		if err != nil {
			return nil, apperrors.UnavailableError("skills", err)
		}
		if !ok {
			return nil, apperrors.InvalidInputError("skills", fmt.Sprintf("unknown skill %q", skill))
		}
		seen[skill] = true
		result = append(result, skill)
	}

	if len(result) == 0 {
		return nil, apperrors.InvalidInputError("skills", "at least one skill is required")
	}
	return result, nil
}

func cleanLinks(links []string) []string {
	result := make([]string, 0, len(links))
	for _, link := range links {
		if link = strings.TrimSpace(link); link != "" {
			result = append(result, link)
		}
	}
	return result
}

// uploadImages stores every image and fills portfolio.ImageURLs. Nothing is
// uploaded unless every image decodes and matches its declared type. On a
// failed upload the images stored so far are deleted.
func (s *PortfolioService) uploadImages(ctx context.Context, portfolio *models.Portfolio, images []models.ImageAttachment) ([]string, error) {
	decoded := make([][]byte, len(images))
	for i, image := range images {
		field := fmt.Sprintf("images[%d]", i)

		data, err := storage.DecodeImage(image.Image)
		if err != nil {
			return nil, apperrors.InvalidInputError(field, err.Error())
		}
		if err := s.storage.ValidateImage(data, image.ContentType); err != nil {
			return nil, apperrors.InvalidInputError(field, err.Error())
		}
		decoded[i] = data
	}

	keys := make([]string, 0, len(images))
	urls := make([]string, 0, len(images))

	for i, image := range images {
		data := decoded[i]
		key := s.storage.GenerateKey(portfolio.OwnerID, portfolio.ID, i, image.ContentType)

		url, err := retry.DoWithResult(ctx, retry.StorageConfig(), "uploadPortfolioImage", func() (string, error) {
			return s.storage.UploadImage(ctx, key, image.ContentType, data)
		})
		if err != nil {
			metrics.PortfolioImageUploads.WithLabelValues("error").Inc()
			logger.Error("Failed to upload portfolio image",
				zap.Error(err),
				zap.String("portfolio_id", portfolio.ID),
				zap.String("file_name", image.FileName))
			s.deleteImages(ctx, keys)
			return nil, apperrors.UnavailableError("object storage", err)
		}

		metrics.PortfolioImageUploads.WithLabelValues("success").Inc()
		keys = append(keys, key)
		urls = append(urls, url)
	}

	portfolio.ImageURLs = urls
	return keys, nil
}

// insert persists portfolio. A slug clash is retried once with a longer suffix.
func (s *PortfolioService) insert(ctx context.Context, portfolio *models.Portfolio) error {
	compact := strings.ReplaceAll(portfolio.ID, "-", "")

	portfolio.Slug = slug.Generate(portfolio.Title, compact[:8])
	err := s.repo.Create(ctx, portfolio)
	if errors.Is(err, repository.ErrSlugTaken) {
		logger.Warn("Portfolio slug taken, retrying", zap.String("slug", portfolio.Slug))
		portfolio.Slug = slug.Generate(portfolio.Title, compact[:16])
		err = s.repo.Create(ctx, portfolio)
	}
	if errors.Is(err, repository.ErrSlugTaken) {
		return apperrors.UnavailableError("postgres", err)
	}
	return err
}

// deleteImages removes uploaded images. Errors are logged only.
func (s *PortfolioService) deleteImages(ctx context.Context, keys []string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		err := retry.Do(ctx, retry.StorageConfig(), "deletePortfolioImage", func() error {
			return s.storage.DeleteImage(ctx, key)
		})
		if err != nil {
			logger.Error("Failed to delete orphaned portfolio image", zap.Error(err), zap.String("key", key))
		}
	}
}
