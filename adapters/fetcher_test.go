package adapters

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"dealhive/internal/types"
	"dealhive/utils"
)

// fakeFetcher serves inline HTML keyed by URL. Unknown URLs get fallback,
// or a 404 when no fallback is set.
type fakeFetcher struct {
	mu       sync.Mutex
	pages    map[string]string
	errs     map[string]error
	fallback string
	requests []types.FetchRequest
	closed   bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, req types.FetchRequest) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := f.errs[req.URL]; ok {
		return nil, err
	}
	if page, ok := f.pages[req.URL]; ok {
		return []byte(page), nil
	}
	if f.fallback != "" {
		return []byte(f.fallback), nil
	}
	return nil, &utils.StatusError{URL: req.URL, StatusCode: 404}
}

func (f *fakeFetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeFetcher) urls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	urls := make([]string, 0, len(f.requests))
	for _, req := range f.requests {
		urls = append(urls, req.URL)
	}
	return urls
}

// newTestAdapter builds an unpaced adapter over profile backed by a fake fetcher
func newTestAdapter(t *testing.T, profile StoreProfile, logger types.Logger) (*BaseAdapter, *fakeFetcher) {
	t.Helper()

	config := types.DefaultConfig()
	config.PaceRequests = false
	if logger == nil {
		logger = logrus.New()
	}

	adapter := NewBaseAdapter(config, logger, profile)
	fetcher := &fakeFetcher{pages: map[string]string{}, errs: map[string]error{}}
	adapter.SetFetcher(fetcher)
	t.Cleanup(adapter.Close)
	return adapter, fetcher
}

func searchURL(profile StoreProfile, term string) string {
	return profile.BaseURL + fmt.Sprintf(profile.SearchPath, url.QueryEscape(term))
}
