// Package notify collects the toast notifications a portfolio form emits so
// clients can poll them.
package notify

import (
	"sync"
	"time"

	"github.com/getmentor/portfolio-api/internal/models"
	"github.com/getmentor/portfolio-api/pkg/logger"
	"github.com/getmentor/portfolio-api/pkg/metrics"
	"go.uber.org/zap"
)

const (
	LevelSuccess = "success"
	LevelError   = "error"

	// DefaultCapacity bounds an inbox nobody drains
	DefaultCapacity = 50
)

// Inbox is a bounded FIFO of notifications. The oldest entry is dropped when full.
type Inbox struct {
	mu       sync.Mutex
	items    []models.Notification
	capacity int
	formID   string
	now      func() time.Time
}

// NewInbox creates an inbox for one form session
func NewInbox(formID string, capacity int) *Inbox {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Inbox{
		capacity: capacity,
		formID:   formID,
		now:      time.Now,
	}
}

// Success records a success notification
func (i *Inbox) Success(text string) {
	i.push(LevelSuccess, text)
}

// Error records an error notification
func (i *Inbox) Error(text string) {
	i.push(LevelError, text)
}

func (i *Inbox) push(level, text string) {
	i.mu.Lock()
	if len(i.items) == i.capacity {
		i.items = i.items[1:]
	}
	i.items = append(i.items, models.Notification{
		Level:     level,
		Text:      text,
		CreatedAt: i.now().UTC(),
	})
	i.mu.Unlock()

	metrics.Notifications.WithLabelValues(level).Inc()
	logger.Debug("Form notification",
		zap.String("form_id", i.formID),
		zap.String("level", level),
		zap.String("text", text))
}

// Drain returns every pending notification in emission order and empties the inbox
func (i *Inbox) Drain() []models.Notification {
	i.mu.Lock()
	defer i.mu.Unlock()

	items := i.items
	i.items = nil
	if items == nil {
		return []models.Notification{}
	}
	return items
}

// Len reports the number of pending notifications
func (i *Inbox) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.items)
}
