package extractor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dealhive/adapters"
	"dealhive/internal/types"
	"dealhive/normalize"
)

const (
	substringScore = 10
	wordScore      = 5
)

// Extractor fans a search out to every registered store and merges the answers
type Extractor struct {
	config   *types.Config
	logger   types.Logger
	adapters map[string]types.StoreAdapter
	order    []string
}

// NewExtractor creates an extractor with the stores enabled in config
func NewExtractor(config *types.Config, logger types.Logger) *Extractor {
	e := &Extractor{
		config:   config,
		logger:   logger,
		adapters: make(map[string]types.StoreAdapter),
	}

	for _, key := range config.Stores {
		adapter, err := newStoreAdapter(key, config, logger)
		if err != nil {
			logger.Warnf("Skipping store %q: %v", key, err)
			continue
		}
		e.register(adapter)
	}

	return e
}

// NewExtractorWithAdapters creates an extractor over an explicit adapter set,
// searched and ordered as given
func NewExtractorWithAdapters(config *types.Config, logger types.Logger, storeAdapters ...types.StoreAdapter) *Extractor {
	e := &Extractor{
		config:   config,
		logger:   logger,
		adapters: make(map[string]types.StoreAdapter),
	}
	for _, adapter := range storeAdapters {
		e.register(adapter)
	}
	return e
}

func newStoreAdapter(key string, config *types.Config, logger types.Logger) (types.StoreAdapter, error) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "amazon":
		return adapters.NewAmazonAdapter(config, logger), nil
	case "flipkart":
		return adapters.NewFlipkartAdapter(config, logger), nil
	case "reliance":
		return adapters.NewRelianceDigitalAdapter(config, logger), nil
	case "croma":
		return adapters.NewCromaAdapter(config, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownStore, key)
	}
}

func (e *Extractor) register(adapter types.StoreAdapter) {
	key := adapter.GetStoreKey()
	if _, exists := e.adapters[key]; exists {
		e.logger.Warnf("Store %q registered twice, keeping the first", key)
		return
	}
	e.adapters[key] = adapter
	e.order = append(e.order, key)
}

// StoreInfo describes one registered store
type StoreInfo struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Stores lists the registered stores in search order
func (e *Extractor) Stores() []StoreInfo {
	stores := make([]StoreInfo, 0, len(e.order))
	for _, key := range e.order {
		stores = append(stores, StoreInfo{Key: key, Name: e.adapters[key].GetStoreName()})
	}
	return stores
}

// storeResult is what one adapter goroutine reports back
type storeResult struct {
	products []types.Product
	done     bool
}

// SearchAll queries every store concurrently and returns the deduplicated,
// relevance-ranked union of their results. A store that fails, panics or
// overruns the store timeout contributes nothing; the search itself only
// fails on an empty term.
func (e *Extractor) SearchAll(ctx context.Context, term string) (*types.AggregatedResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, types.ErrEmptyQuery
	}

	startTime := time.Now()
	e.logger.Infof("Searching %d stores for %q", len(e.order), term)

	results := make([]storeResult, len(e.order))
	finished := make(chan int, len(e.order))

	for i, key := range e.order {
		go func(i int, adapter types.StoreAdapter) {
			defer func() { finished <- i }()
			results[i] = e.searchStore(ctx, adapter, term, e.config.MaxResultsPerStore)
		}(i, e.adapters[key])
	}

	for range e.order {
		<-finished
	}

	var all []types.Product
	stores := make([]string, 0, len(e.order))
	for i, key := range e.order {
		if !results[i].done {
			continue
		}
		stores = append(stores, e.adapters[key].GetStoreName())
		all = append(all, results[i].products...)
	}

	products := Rank(Deduplicate(all), term)
	if e.config.MaxResults > 0 && len(products) > e.config.MaxResults {
		products = products[:e.config.MaxResults]
	}

	result := &types.AggregatedResult{
		Query:       term,
		Products:    products,
		Count:       len(products),
		Stores:      stores,
		Summary:     Summarize(products),
		Comparisons: GroupComparisons(products, e.config.GroupSimilarity),
		GeneratedAt: time.Now(),
	}
	if result.Products == nil {
		result.Products = []types.Product{}
	}

	e.logger.Infof("Search for %q finished with %d products from %d stores in %v",
		term, result.Count, len(stores), time.Since(startTime))
	return result, nil
}

// searchStore runs one adapter under the store timeout. The adapter goroutine
// is abandoned, not awaited, once the deadline passes.
func (e *Extractor) searchStore(ctx context.Context, adapter types.StoreAdapter, term string, maxResults int) storeResult {
	storeCtx := ctx
	if e.config.StoreTimeout > 0 {
		var cancel context.CancelFunc
		storeCtx, cancel = context.WithTimeout(ctx, e.config.StoreTimeout)
		defer cancel()
	}

	out := make(chan []types.Product, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Errorf("Store %s panicked: %v", adapter.GetStoreName(), r)
				out <- nil
			}
		}()
		out <- adapter.Search(storeCtx, term, maxResults)
	}()

	select {
	case products := <-out:
		e.logger.Debugf("Store %s returned %d products", adapter.GetStoreName(), len(products))
		return storeResult{products: products, done: true}
	case <-storeCtx.Done():
		e.logger.Warnf("Store %s dropped: %v", adapter.GetStoreName(), storeCtx.Err())
		return storeResult{}
	}
}

// SearchStore queries a single store by key
func (e *Extractor) SearchStore(ctx context.Context, key, term string, maxResults int) ([]types.Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, types.ErrEmptyQuery
	}

	adapter, ok := e.adapters[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownStore, key)
	}

	if maxResults <= 0 {
		maxResults = e.config.MaxResultsPerStore
	}

	result := e.searchStore(ctx, adapter, term, maxResults)
	products := Rank(result.products, term)
	if products == nil {
		products = []types.Product{}
	}
	return products, nil
}

// Deduplicate merges records that share a store and a normalized name. The
// merged record keeps the position of the first occurrence and the lowest
// non-zero price seen.
func Deduplicate(products []types.Product) []types.Product {
	index := make(map[string]int, len(products))
	var unique []types.Product

	for _, product := range products {
		key := product.Store + "|" + normalize.NameKey(product.Name)
		i, exists := index[key]
		if !exists {
			index[key] = len(unique)
			unique = append(unique, product)
			continue
		}
		if cheaper(product.Price, unique[i].Price) {
			unique[i] = product
		}
	}

	return unique
}

// cheaper reports whether candidate should replace current
func cheaper(candidate, current decimal.Decimal) bool {
	if !candidate.IsPositive() {
		return false
	}
	return current.IsZero() || candidate.LessThan(current)
}

// Score rates how well name matches the query tokens: each token found as a
// substring of the normalized name is worth 10, and 5 more when it is a whole
// word of the title, punctuation counting as a word boundary
func Score(name string, tokens []string) int {
	key := normalize.NameKey(name)
	words := make(map[string]struct{})
	for _, word := range normalize.Words(name) {
		words[word] = struct{}{}
	}

	score := 0
	for _, token := range tokens {
		if strings.Contains(key, token) {
			score += substringScore
		}
		if _, ok := words[token]; ok {
			score += wordScore
		}
	}
	return score
}

// Rank orders products by relevance to term, then by ascending price.
// Ties keep their incoming order.
func Rank(products []types.Product, term string) []types.Product {
	tokens := normalize.Tokens(term)
	scores := make([]int, len(products))
	for i, product := range products {
		scores[i] = Score(product.Name, tokens)
	}

	idx := make([]int, len(products))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if scores[ia] != scores[ib] {
			return scores[ia] > scores[ib]
		}
		return products[ia].Price.LessThan(products[ib].Price)
	})

	ranked := make([]types.Product, len(products))
	for i, j := range idx {
		ranked[i] = products[j]
	}
	if len(ranked) == 0 {
		return nil
	}
	return ranked
}

// Close cleans up resources
func (e *Extractor) Close() {
	for _, key := range e.order {
		e.adapters[key].Close()
	}
}
