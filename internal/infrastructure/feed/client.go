package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/glutenvergelijker/backend/internal/domain"
)

const (
	// maxBodySize caps the catalog download
	maxBodySize = 16 << 20

	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = 500 * time.Millisecond
)

// ClientConfig configures the remote catalog client
type ClientConfig struct {
	URL               string
	Timeout           time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	RequestsPerMinute int
}

// Client downloads the catalog document over HTTP
type Client struct {
	httpClient  *http.Client
	url         string
	rateLimiter *rate.Limiter
	maxRetries  int
	retryDelay  time.Duration
	logger      *zap.Logger
}

// NewClient creates a new catalog client
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		url:         cfg.URL,
		rateLimiter: rate.NewLimiter(limit, cfg.MaxRetries),
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
		logger:      logger.Named("feed.remote"),
	}
}

// Name identifies the source in the loaded catalog
func (c *Client) Name() string {
	return "remote"
}

// Fetch downloads the catalog document. Transport errors, 5xx and 429 responses are
// retried with exponential backoff; other non-200 statuses and invalid JSON fail at once.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrSourceUnavailable, err)
		}

		body, retry, err := c.fetchOnce(ctx)
		if err == nil {
			c.logger.Debug("catalog downloaded", zap.Int("bytes", len(body)), zap.Int("attempt", attempt))
			return body, nil
		}

		lastErr = err
		c.logger.Warn("catalog download failed",
			zap.Int("attempt", attempt),
			zap.Bool("retry", retry),
			zap.Error(err),
		)
		if !retry || attempt == c.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, ctx.Err())
		case <-time.After(exponentialBackoff(c.retryDelay, attempt)):
		}
	}
	return nil, lastErr
}

// fetchOnce performs a single GET and reports whether a failure is worth retrying
func (c *Client) fetchOnce(ctx context.Context) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: failed to create request: %v", domain.ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", "GlutenVergelijker/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		retry := !errors.Is(err, context.Canceled)
		return nil, retry, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := readLimitedBody(resp.Body, maxBodySize)
	if err != nil {
		return nil, true, fmt.Errorf("%w: failed to read body: %v", domain.ErrSourceUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests
		return nil, retry, fmt.Errorf("%w: status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	if !gjson.ValidBytes(body) {
		return nil, false, fmt.Errorf("%w: response is not valid JSON", domain.ErrInvalidCatalog)
	}
	return body, false, nil
}

// exponentialBackoff doubles the base delay for every attempt after the first
func exponentialBackoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<(attempt-1))
}

func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}
