// Package form implements the portfolio creation form: field state, schema
// validation, the auxiliary skill/image selections and submission
// orchestration over injected collaborators.
package form

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/getmentor/portfolio-api/internal/models"
)

const (
	// CreatedMessage is shown right after a successful submission
	CreatedMessage = "Portfolio created successfully."
	// NoImagesMessage is raised when submitting without images
	NoImagesMessage = "At least add one project image!"
	// NoSkillsMessage is the inline text shown while the skills flag is set
	NoSkillsMessage = "Must be add at least one skill"
	// CreateFailedMessage is the default notification for a failed create operation
	CreateFailedMessage = "Failed to create portfolio. Please try again."

	// ServerMessageDelay defers the server-provided message after success
	ServerMessageDelay = 2 * time.Second
)

// ErrClosed is returned when operating on a form that was torn down
var ErrClosed = errors.New("portfolio form is closed")

// Creator persists a new portfolio from a normalized payload
type Creator interface {
	CreatePortfolio(ctx context.Context, payload *models.SubmissionPayload) (*models.CreatePortfolioResult, error)
}

// CreatorFunc adapts a function to Creator
type CreatorFunc func(ctx context.Context, payload *models.SubmissionPayload) (*models.CreatePortfolioResult, error)

func (fn CreatorFunc) CreatePortfolio(ctx context.Context, payload *models.SubmissionPayload) (*models.CreatePortfolioResult, error) {
	return fn(ctx, payload)
}

// Store receives every newly created portfolio
type Store interface {
	UpdatePortfolio(portfolio *models.Portfolio)
}

// Notifier shows fire-and-forget messages to the user
type Notifier interface {
	Success(text string)
	Error(text string)
}

// Timer is a scheduled task that can be cancelled
type Timer interface {
	Stop() bool
}

// AfterFunc schedules fn to run once after d
type AfterFunc func(d time.Duration, fn func()) Timer

func realAfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Outcome classifies a submit attempt
type Outcome int

const (
	OutcomeInvalid Outcome = iota + 1
	OutcomeNoSkills
	OutcomeNoImages
	OutcomeCreated
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInvalid:
		return "invalid"
	case OutcomeNoSkills:
		return "no_skills"
	case OutcomeNoImages:
		return "no_images"
	case OutcomeCreated:
		return "created"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SubmitResult is the result of a submit attempt
type SubmitResult struct {
	Outcome Outcome
	Created *models.CreatePortfolioResult
}

// State is a point-in-time copy of the form
type State struct {
	Values        models.PortfolioFormValues
	Errors        FieldErrors
	Dirty         bool
	SubmitCount   int
	Skills        []string
	Images        []models.ImageAttachment
	NoSkillsError bool
	Pending       bool
	Closed        bool
}

// Option configures a Form
type Option func(*Form)

// WithOnClose sets the signal invoked after a successful submission
func WithOnClose(fn func()) Option {
	return func(f *Form) { f.onClose = fn }
}

// WithOnError replaces the default failure notification of the create operation
func WithOnError(fn func(err error)) Option {
	return func(f *Form) { f.onError = fn }
}

// WithAfterFunc replaces the timer used for deferred notifications
func WithAfterFunc(fn AfterFunc) Option {
	return func(f *Form) { f.afterFunc = fn }
}

// Form is one open portfolio form. It is safe for concurrent use.
type Form struct {
	creator   Creator
	store     Store
	notifier  Notifier
	onClose   func()
	onError   func(err error)
	afterFunc AfterFunc

	mu            sync.Mutex
	values        models.PortfolioFormValues
	errors        FieldErrors
	dirty         bool
	submitCount   int
	skills        []string
	images        []models.ImageAttachment
	noSkillsError bool
	pending       int
	closed        bool
	timers        map[uint64]Timer
	nextTimerID   uint64
}

// New creates a form with default (empty) values
func New(creator Creator, store Store, notifier Notifier, opts ...Option) *Form {
	f := &Form{
		creator:   creator,
		store:     store,
		notifier:  notifier,
		afterFunc: realAfterFunc,
		errors:    FieldErrors{},
		timers:    make(map[uint64]Timer),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.onError == nil {
		f.onError = func(error) { f.notifier.Error(CreateFailedMessage) }
	}
	return f
}

// SetField changes one schema field. Once a submit was attempted the field is
// re-validated on every change.
func (f *Form) SetField(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}

	switch field {
	case FieldTitle:
		f.values.Title = value
	case FieldDescription:
		f.values.Description = value
	case FieldLinks:
		f.values.Links = value
	default:
		return fmt.Errorf("unknown form field %q", field)
	}
	f.dirty = true

	if f.submitCount > 0 {
		if msg, ok := Validate(f.values)[field]; ok {
			f.errors[field] = msg
		} else {
			delete(f.errors, field)
		}
	}

	return nil
}

// SetSkills replaces the skill selection and always clears the skills error flag
func (f *Form) SetSkills(skills []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}

	f.noSkillsError = false
	if len(skills) == 0 {
		f.skills = nil
		return nil
	}
	f.skills = append([]string(nil), skills...)
	return nil
}

// SetImages replaces the image selection
func (f *Form) SetImages(images []models.ImageAttachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}

	f.images = append([]models.ImageAttachment(nil), images...)
	return nil
}

// Reset restores the initial state: default values, no errors, empty selections
func (f *Form) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	f.resetLocked()
	return nil
}

func (f *Form) resetLocked() {
	f.values = models.PortfolioFormValues{}
	f.errors = FieldErrors{}
	f.dirty = false
	f.submitCount = 0
	f.skills = nil
	f.images = nil
	f.noSkillsError = false
}

// State returns a copy of the current form state
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	errs := make(FieldErrors, len(f.errors))
	for k, v := range f.errors {
		errs[k] = v
	}

	return State{
		Values:        f.values,
		Errors:        errs,
		Dirty:         f.dirty,
		SubmitCount:   f.submitCount,
		Skills:        append([]string(nil), f.skills...),
		Images:        append([]models.ImageAttachment(nil), f.images...),
		NoSkillsError: f.noSkillsError,
		Pending:       f.pending > 0,
		Closed:        f.closed,
	}
}

// Submit validates the form and, when everything is in place, runs the create
// operation. It blocks until the operation returns. Concurrent submits are
// not rejected; Pending reports whether one is in flight.
func (f *Form) Submit(ctx context.Context) (SubmitResult, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return SubmitResult{}, ErrClosed
	}

	f.submitCount++
	f.errors = Validate(f.values)
	if len(f.errors) > 0 {
		f.mu.Unlock()
		return SubmitResult{Outcome: OutcomeInvalid}, nil
	}

	if len(f.skills) == 0 {
		f.noSkillsError = true
		f.mu.Unlock()
		return SubmitResult{Outcome: OutcomeNoSkills}, nil
	}

	if len(f.images) == 0 {
		f.mu.Unlock()
		f.notifier.Error(NoImagesMessage)
		return SubmitResult{Outcome: OutcomeNoImages}, nil
	}

	payload := BuildPayload(f.values, f.skills, f.images)
	f.pending++
	f.mu.Unlock()

	result, err := f.creator.CreatePortfolio(ctx, payload)

	f.mu.Lock()
	f.pending--
	closed := f.closed
	f.mu.Unlock()

	if err == nil && (result == nil || result.NewPortfolio == nil) {
		err = errors.New("create operation returned no portfolio")
	}
	if err != nil {
		if !closed {
			f.onError(err)
		}
		return SubmitResult{Outcome: OutcomeFailed}, fmt.Errorf("create portfolio: %w", err)
	}

	f.succeed(result)
	return SubmitResult{Outcome: OutcomeCreated, Created: result}, nil
}

func (f *Form) succeed(result *models.CreatePortfolioResult) {
	f.store.UpdatePortfolio(result.NewPortfolio)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()

	f.notifier.Success(CreatedMessage)

	f.mu.Lock()
	message := result.Message
	f.scheduleLocked(ServerMessageDelay, func() { f.notifier.Success(message) })
	f.resetLocked()
	closed := f.closed
	onClose := f.onClose
	f.mu.Unlock()

	if onClose != nil && !closed {
		onClose()
	}
}

// scheduleLocked registers fn on a timer owned by the form; Close stops it
func (f *Form) scheduleLocked(d time.Duration, fn func()) {
	if f.closed {
		return
	}

	id := f.nextTimerID
	f.nextTimerID++
	f.timers[id] = f.afterFunc(d, func() {
		f.mu.Lock()
		_, scheduled := f.timers[id]
		delete(f.timers, id)
		live := scheduled && !f.closed
		f.mu.Unlock()

		if live {
			fn()
		}
	})
}

// Close tears the form down and cancels every scheduled notification.
// A create operation still in flight will update the Store but nothing else.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	for id, timer := range f.timers {
		timer.Stop()
		delete(f.timers, id)
	}
}
