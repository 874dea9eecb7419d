package arxiv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"arxivcollector/pkg/config"
	errs "arxivcollector/pkg/errors"
	"arxivcollector/pkg/logger"
	"arxivcollector/pkg/retry"
)

// Client issues paginated queries against the arXiv search API
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	sortBy     string
	sortOrder  string
	pageLimit  int
	maxRetries int
	logger     logger.Logger
}

// NewClient creates a new arXiv API client. The request timeout on the
// underlying HTTP client is the only guard against a hung upstream call, so
// cfg.RequestTimeout must be set.
func NewClient(cfg *config.ArxivConfig, rl *config.RateLimitConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		headers: map[string]string{
			"User-Agent": "arxivcollector/1.0 (mailto:maintainers@localhost)",
			"Accept":     "application/atom+xml",
		},
		baseURL:    cfg.BaseURL,
		sortBy:     cfg.SortBy,
		sortOrder:  cfg.SortOrder,
		pageLimit:  cfg.PageSize,
		maxRetries: rl.MaxRetries,
		logger:     log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// FetchPage fetches one page of results for a keyword starting at the given
// offset. Transient upstream failures are retried with backoff; the returned
// error is typed for the caller to classify.
func (c *Client) FetchPage(ctx context.Context, keyword string, start, pageSize int) (*Page, error) {
	if start < 0 {
		return nil, fmt.Errorf("offset must not be negative, got %d", start)
	}
	if pageSize <= 0 || pageSize > c.pageLimit {
		pageSize = c.pageLimit
	}

	url := BuildQueryURL(c.baseURL, keyword, start, pageSize, c.sortBy, c.sortOrder)

	cfg := &retry.Config{
		MaxAttempts: c.maxRetries,
		Backoff:     retry.DefaultExponentialBackoff(),
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      c.logger,
	}

	return retry.DoWithResult(func() (*Page, error) {
		return c.fetchFeed(ctx, url)
	}, cfg)
}

// fetchFeed performs a single GET against the API and parses the response
func (c *Client) fetchFeed(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Newf(errs.ErrorTypeUnknown, "failed to create request: %v", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending API request", map[string]interface{}{
		"url": url,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("API request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("API request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	page, err := ParseFeed(body)
	if err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse feed response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return nil, err
	}

	return page, nil
}

// checkResponseStatus maps HTTP response statuses to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeRateLimit,
			Message: "rate limit exceeded",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode >= 500:
		c.logger.ErrorWithFields("server error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeServerError,
			Message: "server error",
			Code:    resp.StatusCode,
		}
	default:
		c.logger.ErrorWithFields("unexpected API response", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}
}
