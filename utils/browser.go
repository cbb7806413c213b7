package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"dealhive/internal/types"
)

// BrowserClient fetches result pages through a headless browser for stores
// that render listings client-side
type BrowserClient struct {
	config *types.Config
	logger types.Logger
	settle time.Duration
}

// NewBrowserClient creates a new browser client
func NewBrowserClient(config *types.Config, logger types.Logger) *BrowserClient {
	return &BrowserClient{
		config: config,
		logger: logger,
		settle: 500 * time.Millisecond,
	}
}

// Fetch navigates to the page and returns the rendered HTML
func (b *BrowserClient) Fetch(ctx context.Context, req types.FetchRequest) ([]byte, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = b.config.RequestTimeout
	}

	// chromedp's own chatter goes to the debug level of this client's logger
	browserCtx, cancel := chromedp.NewContext(ctx,
		chromedp.WithLogf(b.logger.Debugf),
		chromedp.WithErrorf(b.logger.Debugf),
	)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	headers := network.Headers{}
	for key, value := range req.Headers {
		headers[key] = value
	}

	var html string
	err := chromedp.Run(browserCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(headers),
		chromedp.Navigate(req.URL),
		chromedp.Sleep(b.settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get page content: %w", err)
	}

	b.logger.Debugf("Successfully retrieved page content from %s (%d bytes)", req.URL, len(html))
	return []byte(html), nil
}

// Close is a no-op; every fetch owns its browser context
func (b *BrowserClient) Close() {}
