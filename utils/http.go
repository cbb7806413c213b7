package utils

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"

	"dealhive/internal/types"
)

// StatusError is returned when a store answers with a non-2xx status
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// HTTPClient fetches static result pages. It never retries: a failed
// fetch is reported once and the caller moves on. Deadlines come from the
// request context only, so a store may wait longer than RequestTimeout.
type HTTPClient struct {
	client *resty.Client
	config *types.Config
	logger types.Logger
}

// NewHTTPClient creates a new HTTP client with the given configuration
func NewHTTPClient(config *types.Config, logger types.Logger) *HTTPClient {
	client := resty.New()
	if jar, err := cookiejar.New(nil); err == nil {
		client.SetCookieJar(jar)
	}
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	client.SetHeader("User-Agent", config.UserAgent)

	return &HTTPClient{
		client: client,
		config: config,
		logger: logger,
	}
}

// Fetch performs a single GET request with the request's header profile
func (h *HTTPClient) Fetch(ctx context.Context, req types.FetchRequest) ([]byte, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = h.config.RequestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	h.logger.Debugf("Making request to %s", req.URL)

	resp, err := h.client.R().
		SetContext(ctx).
		SetHeaders(req.Headers).
		Get(req.URL)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, &StatusError{URL: req.URL, StatusCode: resp.StatusCode()}
	}

	body := resp.Body()
	h.logger.Debugf("Successfully retrieved %d bytes from %s in %v", len(body), req.URL, time.Since(start))
	return body, nil
}

// Close cleans up resources
func (h *HTTPClient) Close() {
	h.client.GetClient().CloseIdleConnections()
}
