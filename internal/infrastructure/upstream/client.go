package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/config"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/logger"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/metrics"
)

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.URL, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return model.ErrUpstreamFetch
}

type Client struct {
	httpClient *http.Client
	userAgent  string
	referer    string
	logger     logger.Logger
}

// NewClient builds a client whose idle connection pool per host matches the
// download concurrency, so a batch reuses connections instead of churning them.
func NewClient(cfg config.Upstream, maxConnsPerHost int, l logger.Logger) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = maxConnsPerHost
	transport.MaxIdleConnsPerHost = maxConnsPerHost

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		userAgent: cfg.UserAgent,
		referer:   cfg.Referer,
		logger:    l,
	}
}

// Fetch downloads the whole body of url. Transport failures and non-2xx
// statuses wrap model.ErrUpstreamFetch.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body from %s: %v", model.ErrUpstreamFetch, url, err)
	}

	return data, nil
}

// Open issues the GET and hands back a 2xx response with its body unread.
// The caller closes the body.
func (c *Client) Open(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", model.ErrValidation, err)
	}

	// Set required headers for OpenStreetMap tile usage policy
	req.Header.Set("User-Agent", c.userAgent)
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.TilesUpstreamLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.TilesUpstreamRequests.WithLabelValues("error").Inc()
		c.logger.Debug("upstream request failed", "url", url, "error", err)
		return nil, fmt.Errorf("%w: %v", model.ErrUpstreamFetch, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		metrics.TilesUpstreamRequests.WithLabelValues("bad_status").Inc()
		c.logger.Debug("upstream returned non-2xx", "url", url, "status", resp.StatusCode)
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	metrics.TilesUpstreamRequests.WithLabelValues("ok").Inc()
	return resp, nil
}
