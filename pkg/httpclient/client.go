package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds outgoing webhook calls
const DefaultTimeout = 10 * time.Second

// Client defines an interface for making HTTP requests
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

// TracedHTTPClient is an http.Client whose transport propagates trace context
type TracedHTTPClient struct {
	client *http.Client
}

// NewTracedClient creates a client with the given timeout (DefaultTimeout when zero)
func NewTracedClient(timeout time.Duration) *TracedHTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TracedHTTPClient{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Do executes an HTTP request
func (c *TracedHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req)
}
