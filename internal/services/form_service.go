package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/getmentor/portfolio-api/config"
	"github.com/getmentor/portfolio-api/internal/form"
	"github.com/getmentor/portfolio-api/internal/models"
	"github.com/getmentor/portfolio-api/internal/notify"
	apperrors "github.com/getmentor/portfolio-api/pkg/errors"
	"github.com/getmentor/portfolio-api/pkg/logger"
	"github.com/getmentor/portfolio-api/pkg/metrics"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	defaultSessionTTL     = 30 * time.Minute
	defaultMaxOpenPerUser = 5
	sessionCleanupPeriod  = time.Minute
)

// formSession is one hosted form and the notifications it produced
type formSession struct {
	id      string
	ownerID string
	form    *form.Form
	inbox   *notify.Inbox
	// seq orders sessions by opening time
	seq uint64

	mu        sync.Mutex
	open      bool
	expiresAt time.Time
}

func (fs *formSession) setOpen(open bool) {
	fs.mu.Lock()
	fs.open = open
	fs.mu.Unlock()
}

// FormService hosts portfolio forms server side. Sessions expire after the
// configured idle time; an expired or discarded session is torn down.
type FormService struct {
	portfolios PortfolioServiceInterface
	skills     SkillVocabulary
	store      PortfolioStore
	sessions   *cache.Cache
	ttl        time.Duration
	maxOpen    int
	now        func() time.Time

	openMu  sync.Mutex
	openSeq uint64
}

func NewFormService(
	portfolios PortfolioServiceInterface,
	skills SkillVocabulary,
	store PortfolioStore,
	cfg *config.Config,
) *FormService {
	ttl := time.Duration(cfg.Forms.SessionTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	maxOpen := cfg.Forms.MaxOpenPerOwner
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenPerUser
	}

	sessions := cache.New(ttl, sessionCleanupPeriod)
	sessions.OnEvicted(func(id string, value interface{}) {
		session, ok := value.(*formSession)
		if !ok {
			return
		}
		session.form.Close()
		metrics.FormSessions.Dec()
		logger.Debug("Portfolio form session closed",
			zap.String("form_id", id),
			zap.String("owner_id", session.ownerID))
	})

	return &FormService{
		portfolios: portfolios,
		skills:     skills,
		store:      store,
		sessions:   sessions,
		ttl:        ttl,
		maxOpen:    maxOpen,
		now:        time.Now,
	}
}

// Open starts a new form for ownerID with default values
func (s *FormService) Open(ctx context.Context, ownerID string) (*models.PortfolioFormState, error) {
	id := uuid.NewString()
	session := &formSession{
		id:      id,
		ownerID: ownerID,
		inbox:   notify.NewInbox(id, notify.DefaultCapacity),
		open:    true,
	}

	creator := form.CreatorFunc(func(ctx context.Context, payload *models.SubmissionPayload) (*models.CreatePortfolioResult, error) {
		return s.portfolios.CreatePortfolio(ctx, ownerID, payload)
	})
	session.form = form.New(creator, s.store, session.inbox,
		form.WithOnClose(func() { session.setOpen(false) }),
	)

	session.expiresAt = s.now().Add(s.ttl)

	s.openMu.Lock()
	s.evictOldest(ownerID, s.maxOpen-1)
	s.openSeq++
	session.seq = s.openSeq
	s.sessions.Set(id, session, s.ttl)
	s.openMu.Unlock()
	metrics.FormSessions.Inc()

	logger.Info("Portfolio form opened", zap.String("form_id", id), zap.String("owner_id", ownerID))

	return s.state(session), nil
}

// evictOldest discards the oldest forms of ownerID until at most keep remain
func (s *FormService) evictOldest(ownerID string, keep int) {
	var owned []*formSession
	for _, item := range s.sessions.Items() {
		if session, ok := item.Object.(*formSession); ok && session.ownerID == ownerID {
			owned = append(owned, session)
		}
	}
	if len(owned) <= keep {
		return
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].seq < owned[j].seq })
	for _, session := range owned[:len(owned)-keep] {
		logger.Info("Discarding oldest portfolio form",
			zap.String("form_id", session.id),
			zap.String("owner_id", ownerID))
		s.sessions.Delete(session.id)
	}
}

// Get returns the current state of a form
func (s *FormService) Get(ctx context.Context, ownerID, formID string) (*models.PortfolioFormState, error) {
	session, err := s.lookup(ownerID, formID)
	if err != nil {
		return nil, err
	}
	return s.state(session), nil
}

// UpdateFields applies the non-nil fields of req
func (s *FormService) UpdateFields(ctx context.Context, ownerID, formID string, req *models.UpdatePortfolioFormFieldsRequest) (*models.PortfolioFormState, error) {
	session, err := s.lookup(ownerID, formID)
	if err != nil {
		return nil, err
	}

	updates := []struct {
		field string
		value *string
	}{
		{form.FieldTitle, req.Title},
		{form.FieldDescription, req.Description},
		{form.FieldLinks, req.Links},
	}
	for _, u := range updates {
		if u.value == nil {
			continue
		}
		if err := session.form.SetField(u.field, *u.value); err != nil {
			return nil, formError(err)
		}
	}

	session.setOpen(true)
	return s.state(session), nil
}

// SetSkills replaces the skill selection. Every skill must be in the vocabulary.
func (s *FormService) SetSkills(ctx context.Context, ownerID, formID string, skills []string) (*models.PortfolioFormState, error) {
	session, err := s.lookup(ownerID, formID)
	if err != nil {
		return nil, err
	}

	selected := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
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
		selected = append(selected, skill)
	}

	if err := session.form.SetSkills(selected); err != nil {
		return nil, formError(err)
	}

	session.setOpen(true)
	return s.state(session), nil
}

// SetImages replaces the image selection
func (s *FormService) SetImages(ctx context.Context, ownerID, formID string, images []models.ImageAttachment) (*models.PortfolioFormState, error) {
	session, err := s.lookup(ownerID, formID)
	if err != nil {
		return nil, err
	}

	if err := session.form.SetImages(images); err != nil {
		return nil, formError(err)
	}

	session.setOpen(true)
	return s.state(session), nil
}

// Submit runs the form submission. The response is always returned once the
// session is found; a failed create operation additionally returns its error.
func (s *FormService) Submit(ctx context.Context, ownerID, formID string) (*models.SubmitPortfolioFormResponse, error) {
	session, err := s.lookup(ownerID, formID)
	if err != nil {
		return nil, err
	}

	// The create operation outlives a disconnected client
	result, submitErr := session.form.Submit(context.WithoutCancel(ctx))
	if errors.Is(submitErr, form.ErrClosed) {
		return nil, formError(submitErr)
	}

	outcome := result.Outcome.String()
	metrics.FormSubmissions.WithLabelValues(outcome).Inc()

	resp := &models.SubmitPortfolioFormResponse{
		Outcome: outcome,
		Form:    s.state(session),
	}

	switch result.Outcome {
	case form.OutcomeCreated:
		resp.Portfolio = result.Created.NewPortfolio
		logger.Info("Portfolio form submitted",
			zap.String("form_id", formID),
			zap.String("portfolio_id", resp.Portfolio.ID))
	case form.OutcomeNoSkills:
		resp.Error = form.NoSkillsMessage
	case form.OutcomeNoImages:
		resp.Error = form.NoImagesMessage
	case form.OutcomeFailed:
		resp.Error = form.CreateFailedMessage
		logger.Warn("Portfolio form submission failed",
			zap.Error(submitErr),
			zap.String("form_id", formID),
			zap.String("owner_id", ownerID))
		return resp, submitErr
	}

	return resp, nil
}

// Reset restores the default values and clears every selection
func (s *FormService) Reset(ctx context.Context, ownerID, formID string) (*models.PortfolioFormState, error) {
	session, err := s.lookup(ownerID, formID)
	if err != nil {
		return nil, err
	}

	if err := session.form.Reset(); err != nil {
		return nil, formError(err)
	}
	return s.state(session), nil
}

// Notifications drains the pending notifications of a form
func (s *FormService) Notifications(ctx context.Context, ownerID, formID string) ([]models.Notification, error) {
	session, err := s.lookup(ownerID, formID)
	if err != nil {
		return nil, err
	}
	return session.inbox.Drain(), nil
}

// Discard tears a form down and cancels its pending notifications
func (s *FormService) Discard(ctx context.Context, ownerID, formID string) error {
	if _, err := s.lookup(ownerID, formID); err != nil {
		return err
	}
	s.sessions.Delete(formID)
	return nil
}

// Close tears down every open form
func (s *FormService) Close() {
	for id := range s.sessions.Items() {
		s.sessions.Delete(id)
	}
}

// lookup finds the session of formID owned by ownerID and extends its lifetime
func (s *FormService) lookup(ownerID, formID string) (*formSession, error) {
	value, found := s.sessions.Get(formID)
	if !found {
		return nil, apperrors.NotFoundError("portfolio form")
	}
	session, ok := value.(*formSession)
	if !ok {
		return nil, apperrors.InternalError("unexpected form session type")
	}
	if session.ownerID != ownerID {
		return nil, apperrors.AccessDeniedError("portfolio form belongs to another user")
	}

	// Replace fails once the session expired in between; the form is closed then
	if err := s.sessions.Replace(formID, session, s.ttl); err == nil {
		session.mu.Lock()
		session.expiresAt = s.now().Add(s.ttl)
		session.mu.Unlock()
	}

	return session, nil
}

func (s *FormService) state(session *formSession) *models.PortfolioFormState {
	st := session.form.State()

	errs := make(map[string]string, len(st.Errors))
	for field, msg := range st.Errors {
		errs[field] = msg
	}

	skills := st.Skills
	if skills == nil {
		skills = []string{}
	}

	images := make([]models.PortfolioFormImage, 0, len(st.Images))
	for _, image := range st.Images {
		images = append(images, models.PortfolioFormImage{
			FileName:    image.FileName,
			ContentType: image.ContentType,
		})
	}

	session.mu.Lock()
	open := session.open
	expiresAt := session.expiresAt
	session.mu.Unlock()

	state := &models.PortfolioFormState{
		ID:            session.id,
		Open:          open && !st.Closed,
		Values:        st.Values,
		Errors:        errs,
		Dirty:         st.Dirty,
		SubmitCount:   st.SubmitCount,
		Skills:        skills,
		Images:        images,
		NoSkillsError: st.NoSkillsError,
		Pending:       st.Pending,
		ExpiresAt:     expiresAt,
	}
	if st.NoSkillsError {
		state.NoSkillsMessage = form.NoSkillsMessage
	}
	return state
}

// formError maps a torn down form to not found
func formError(err error) error {
	if errors.Is(err, form.ErrClosed) {
		return apperrors.NotFoundError("portfolio form")
	}
	return err
}
