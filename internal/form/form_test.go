package form

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/getmentor/portfolio-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreator struct {
	mu       sync.Mutex
	payloads []*models.SubmissionPayload
	result   *models.CreatePortfolioResult
	err      error
	block    chan struct{}
	started  chan struct{}
}

func (c *fakeCreator) CreatePortfolio(_ context.Context, payload *models.SubmissionPayload) (*models.CreatePortfolioResult, error) {
	c.mu.Lock()
	c.payloads = append(c.payloads, payload)
	c.mu.Unlock()

	if c.started != nil {
		c.started <- struct{}{}
	}
	if c.block != nil {
		<-c.block
	}
	return c.result, c.err
}

func (c *fakeCreator) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.payloads)
}

type fakeStore struct {
	updated []*models.Portfolio
}

func (s *fakeStore) UpdatePortfolio(p *models.Portfolio) {
	s.updated = append(s.updated, p)
}

type fakeNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *fakeNotifier) Success(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, text)
}

func (n *fakeNotifier) Error(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, text)
}

type scheduledTask struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (s *scheduledTask) Stop() bool {
	wasActive := !s.stopped
	s.stopped = true
	return wasActive
}

type fakeScheduler struct {
	tasks []*scheduledTask
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	task := &scheduledTask{delay: d, fn: fn}
	s.tasks = append(s.tasks, task)
	return task
}

// fire runs every task that has not been stopped, as the runtime would
func (s *fakeScheduler) fire() {
	for _, task := range s.tasks {
		if !task.stopped {
			task.fn()
		}
	}
}

type harness struct {
	form      *Form
	creator   *fakeCreator
	store     *fakeStore
	notifier  *fakeNotifier
	scheduler *fakeScheduler
	closes    int
}

func newHarness(opts ...Option) *harness {
	h := &harness{
		creator: &fakeCreator{
			result: &models.CreatePortfolioResult{
				NewPortfolio: &models.Portfolio{ID: "p-1", Title: "My Project"},
				Message:      "Portfolio \"My Project\" is now visible on your profile.",
			},
		},
		store:     &fakeStore{},
		notifier:  &fakeNotifier{},
		scheduler: &fakeScheduler{},
	}
	opts = append([]Option{
		WithAfterFunc(h.scheduler.AfterFunc),
		WithOnClose(func() { h.closes++ }),
	}, opts...)
	h.form = New(h.creator, h.store, h.notifier, opts...)
	return h
}

var validImage = models.ImageAttachment{Image: "aGVsbG8=", FileName: "img1.png", ContentType: "image/png"}

func (h *harness) fillValid(t *testing.T) {
	t.Helper()
	require.NoError(t, h.form.SetField(FieldTitle, "My Project"))
	require.NoError(t, h.form.SetField(FieldDescription, strings.Repeat("x", 50)))
	require.NoError(t, h.form.SetField(FieldLinks, "http://a.com, http://b.com "))
	require.NoError(t, h.form.SetSkills([]string{"Go"}))
	require.NoError(t, h.form.SetImages([]models.ImageAttachment{validImage}))
}

func TestForm_DefaultState(t *testing.T) {
	h := newHarness()
	state := h.form.State()

	assert.Equal(t, models.PortfolioFormValues{}, state.Values)
	assert.Empty(t, state.Errors)
	assert.Nil(t, state.Skills)
	assert.Empty(t, state.Images)
	assert.False(t, state.NoSkillsError)
	assert.False(t, state.Dirty)
	assert.False(t, state.Pending)
}

func TestForm_Submit_SchemaErrorsBlockSubmission(t *testing.T) {
	h := newHarness()
	h.fillValid(t)
	require.NoError(t, h.form.SetField(FieldTitle, "M"))
	require.NoError(t, h.form.SetField(FieldDescription, "too short"))

	result, err := h.form.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeInvalid, result.Outcome)
	state := h.form.State()
	assert.Equal(t, "Title must be at least 2 characters.", state.Errors[FieldTitle])
	assert.Equal(t, "Description must be at least 50 characters.", state.Errors[FieldDescription])
	assert.Equal(t, 0, h.creator.calls())
	assert.Empty(t, h.notifier.errors)
	assert.Empty(t, h.notifier.successes)
}

func TestForm_SetField_RevalidatesAfterSubmit(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.form.SetField(FieldTitle, "M"))
	assert.Empty(t, h.form.State().Errors, "no validation before the first submit")

	_, err := h.form.Submit(context.Background())
	require.NoError(t, err)
	assert.Contains(t, h.form.State().Errors, FieldTitle)

	require.NoError(t, h.form.SetField(FieldTitle, "My"))
	state := h.form.State()
	assert.NotContains(t, state.Errors, FieldTitle)
	assert.Contains(t, state.Errors, FieldDescription, "other fields keep their errors")
}

func TestForm_SetField_UnknownField(t *testing.T) {
	h := newHarness()
	assert.Error(t, h.form.SetField("skills", "Go"))
}

func TestForm_Submit_NoSkills(t *testing.T) {
	h := newHarness()
	h.fillValid(t)
	require.NoError(t, h.form.SetSkills(nil))

	result, err := h.form.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoSkills, result.Outcome)
	assert.True(t, h.form.State().NoSkillsError)
	assert.Equal(t, 0, h.creator.calls())
	assert.Empty(t, h.notifier.errors, "missing skills raise no notification")
}

func TestForm_SetSkills_AlwaysClearsFlag(t *testing.T) {
	h := newHarness()
	h.fillValid(t)
	require.NoError(t, h.form.SetSkills([]string{}))
	_, err := h.form.Submit(context.Background())
	require.NoError(t, err)
	require.True(t, h.form.State().NoSkillsError)

	require.NoError(t, h.form.SetSkills([]string{}))
	assert.False(t, h.form.State().NoSkillsError, "even an empty selection clears the flag")

	_, err = h.form.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, h.form.State().NoSkillsError, "flag is raised again on the next submit")

	require.NoError(t, h.form.SetSkills([]string{"Go", "SQL"}))
	assert.False(t, h.form.State().NoSkillsError)
}

func TestForm_Submit_NoImages(t *testing.T) {
	h := newHarness()
	h.fillValid(t)
	require.NoError(t, h.form.SetImages(nil))

	result, err := h.form.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoImages, result.Outcome)
	assert.Equal(t, []string{"At least add one project image!"}, h.notifier.errors)
	assert.Equal(t, 0, h.creator.calls())
	assert.False(t, h.form.State().NoSkillsError)
}

func TestForm_Submit_SkillsCheckedBeforeImages(t *testing.T) {
	h := newHarness()
	h.fillValid(t)
	require.NoError(t, h.form.SetSkills(nil))
	require.NoError(t, h.form.SetImages(nil))

	result, err := h.form.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoSkills, result.Outcome)
	assert.Empty(t, h.notifier.errors)
}

func TestForm_Submit_NormalizesPayload(t *testing.T) {
	h := newHarness()
	h.fillValid(t)

	result, err := h.form.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, result.Outcome)
	require.Equal(t, 1, h.creator.calls())

	payload := h.creator.payloads[0]
	assert.Equal(t, "My Project", payload.Title)
	assert.Equal(t, strings.Repeat("x", 50), payload.Description)
	assert.Equal(t, []string{"http://a.com", "http://b.com"}, payload.Links)
	assert.Equal(t, []string{"Go"}, payload.Skills)
	assert.Equal(t, []models.ImageAttachment{validImage}, payload.Images)
}

func TestForm_Submit_SuccessSideEffects(t *testing.T) {
	h := newHarness()
	h.fillValid(t)

	result, err := h.form.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "p-1", result.Created.NewPortfolio.ID)

	require.Len(t, h.store.updated, 1)
	assert.Equal(t, "p-1", h.store.updated[0].ID)

	assert.Equal(t, []string{"Portfolio created successfully."}, h.notifier.successes)
	require.Len(t, h.scheduler.tasks, 1)
	assert.Equal(t, 2*time.Second, h.scheduler.tasks[0].delay)

	state := h.form.State()
	assert.Equal(t, models.PortfolioFormValues{}, state.Values)
	assert.Empty(t, state.Skills)
	assert.Empty(t, state.Images)
	assert.Equal(t, 0, state.SubmitCount)
	assert.Equal(t, 1, h.closes)

	h.scheduler.fire()
	assert.Equal(t, []string{
		"Portfolio created successfully.",
		"Portfolio \"My Project\" is now visible on your profile.",
	}, h.notifier.successes)

	h.scheduler.fire()
	assert.Len(t, h.notifier.successes, 2, "deferred message fires once")
}

func TestForm_Submit_RepeatAfterReset(t *testing.T) {
	h := newHarness()

	for i := 0; i < 2; i++ {
		h.fillValid(t)
		result, err := h.form.Submit(context.Background())
		require.NoError(t, err)
		assert.Equal(t, OutcomeCreated, result.Outcome)
	}

	require.Equal(t, 2, h.creator.calls())
	assert.Equal(t, h.creator.payloads[0], h.creator.payloads[1])
	assert.Len(t, h.store.updated, 2)
	assert.Equal(t, 2, h.closes)
}

func TestForm_Submit_FailureUsesDefaultNotification(t *testing.T) {
	h := newHarness()
	h.creator.err = errors.New("network down")
	h.fillValid(t)

	result, err := h.form.Submit(context.Background())
	require.Error(t, err)

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, []string{"Failed to create portfolio. Please try again."}, h.notifier.errors)
	assert.Empty(t, h.store.updated)
	assert.Equal(t, 0, h.closes)

	state := h.form.State()
	assert.Equal(t, "My Project", state.Values.Title, "form stays editable with its values")
	assert.Equal(t, []string{"Go"}, state.Skills)
	assert.False(t, state.Pending)
}

func TestForm_Submit_FailureCustomHandler(t *testing.T) {
	var handled error
	h := newHarness(WithOnError(func(err error) { handled = err }))
	h.creator.err = errors.New("quota exceeded")
	h.fillValid(t)

	_, err := h.form.Submit(context.Background())
	require.Error(t, err)

	assert.EqualError(t, handled, "quota exceeded")
	assert.Empty(t, h.notifier.errors)
}

func TestForm_Submit_EmptyResultIsFailure(t *testing.T) {
	h := newHarness()
	h.creator.result = &models.CreatePortfolioResult{Message: "ok"}
	h.fillValid(t)

	result, err := h.form.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Empty(t, h.store.updated)
}

func TestForm_PendingWhileCreating(t *testing.T) {
	h := newHarness()
	h.creator.block = make(chan struct{})
	h.creator.started = make(chan struct{}, 1)
	h.fillValid(t)

	done := make(chan SubmitResult, 1)
	go func() {
		result, _ := h.form.Submit(context.Background())
		done <- result
	}()

	<-h.creator.started
	assert.True(t, h.form.State().Pending)

	close(h.creator.block)
	result := <-done
	assert.Equal(t, OutcomeCreated, result.Outcome)
	assert.False(t, h.form.State().Pending)
}

func TestForm_Close_CancelsDeferredMessage(t *testing.T) {
	h := newHarness()
	h.fillValid(t)

	_, err := h.form.Submit(context.Background())
	require.NoError(t, err)
	require.Len(t, h.scheduler.tasks, 1)

	h.form.Close()
	assert.True(t, h.scheduler.tasks[0].stopped)

	h.scheduler.tasks[0].fn()
	assert.Equal(t, []string{"Portfolio created successfully."}, h.notifier.successes)
}

func TestForm_Close_DuringCreate(t *testing.T) {
	h := newHarness()
	h.creator.block = make(chan struct{})
	h.creator.started = make(chan struct{}, 1)
	h.fillValid(t)

	done := make(chan error, 1)
	go func() {
		_, err := h.form.Submit(context.Background())
		done <- err
	}()

	<-h.creator.started
	h.form.Close()
	close(h.creator.block)
	require.NoError(t, <-done)

	assert.Len(t, h.store.updated, 1, "record still reaches the store")
	assert.Empty(t, h.notifier.successes)
	assert.Empty(t, h.scheduler.tasks)
	assert.Equal(t, 0, h.closes)
}

func TestForm_ClosedRejectsChanges(t *testing.T) {
	h := newHarness()
	h.form.Close()
	h.form.Close()

	assert.ErrorIs(t, h.form.SetField(FieldTitle, "x"), ErrClosed)
	assert.ErrorIs(t, h.form.SetSkills([]string{"Go"}), ErrClosed)
	assert.ErrorIs(t, h.form.SetImages(nil), ErrClosed)
	assert.ErrorIs(t, h.form.Reset(), ErrClosed)
	_, err := h.form.Submit(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestForm_Reset(t *testing.T) {
	h := newHarness()
	h.fillValid(t)
	require.NoError(t, h.form.SetSkills(nil))
	_, err := h.form.Submit(context.Background())
	require.NoError(t, err)

	require.NoError(t, h.form.Reset())
	state := h.form.State()
	assert.Equal(t, models.PortfolioFormValues{}, state.Values)
	assert.False(t, state.Dirty)
	assert.False(t, state.NoSkillsError)
	assert.Empty(t, state.Images)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "created", OutcomeCreated.String())
	assert.Equal(t, "no_images", OutcomeNoImages.String())
	assert.Equal(t, "unknown", Outcome(0).String())
}
