package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/getmentor/portfolio-api/pkg/httpclient"
	"github.com/getmentor/portfolio-api/pkg/logger"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Event is the JSON body posted to a trigger URL
type Event struct {
	Type       string    `json:"type"`
	RecordID   string    `json:"record_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data,omitempty"`
}

var inflight sync.WaitGroup

// CallAsync posts event to triggerURL in the background. Failures are logged
// and never reach the caller. The request keeps the caller's trace but not its
// cancellation.
func CallAsync(ctx context.Context, triggerURL string, event Event, httpClient httpclient.Client) {
	if triggerURL == "" {
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to encode trigger event", zap.Error(err), zap.String("type", event.Type))
		return
	}

	detached := trace.ContextWithSpanContext(context.Background(), trace.SpanContextFromContext(ctx))

	inflight.Add(1)
	go func() {
		defer inflight.Done()

		reqCtx, cancel := context.WithTimeout(detached, httpclient.DefaultTimeout)
		defer cancel()

		fields := []zap.Field{
			zap.String("url", triggerURL),
			zap.String("type", event.Type),
			zap.String("record_id", event.RecordID),
		}

		req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, triggerURL, bytes.NewReader(body))
		if err != nil {
			logger.Error("Failed to build trigger request", append(fields, zap.Error(err))...)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := httpClient.Do(req)
		if err != nil {
			logger.Error("Failed to call trigger URL", append(fields, zap.Error(err))...)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			logger.Info("Trigger URL called successfully", append(fields, zap.Int("status_code", resp.StatusCode))...)
		} else {
			logger.Warn("Trigger URL returned non-success status", append(fields, zap.Int("status_code", resp.StatusCode))...)
		}
	}()
}

// Wait blocks until every trigger started by CallAsync has finished
func Wait() {
	inflight.Wait()
}
